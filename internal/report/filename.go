package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Filename builds the output file name for an emitted dataset:
// manychat_<kind>_<yyyymmdd_hhmmss>_<8 char id>.<ext>
func Filename(kind, ext string, now time.Time) string {
	id := uuid.NewString()[:8]
	return fmt.Sprintf("manychat_%s_%s_%s.%s", kind, now.Format("20060102_150405"), id, ext)
}

package sheet

import "github.com/rotisserie/eris"

var (
	// ErrTargetUnavailable means the destination sheet could not be opened or
	// created. Nothing has been written.
	ErrTargetUnavailable = eris.New("sheet: target unavailable")

	// ErrPartialWrite means a failure occurred after header reconciliation,
	// during row writes. The result carries the confirmed rows_added so the
	// caller can decide whether to re-upload the remainder.
	ErrPartialWrite = eris.New("sheet: partial write")
)

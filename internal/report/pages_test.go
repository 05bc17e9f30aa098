package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pages:
  - id: fb12345
    name: fitness
    account_name: Acme
    user: alex
    tl: sam
  - id: "67890"
    name: beauty
`), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	p := reg.Lookup("12345")
	assert.Equal(t, "fitness", p.Name)
	assert.Equal(t, "Acme", p.AccountName)
	assert.Equal(t, "alex", p.User)
	assert.Equal(t, "sam", p.TL)

	// fb prefix on the query normalizes too.
	assert.Equal(t, "fitness", reg.Lookup("fb12345").Name)

	// Missing operator fields get placeholders.
	p = reg.Lookup("67890")
	assert.Equal(t, "beauty", p.Name)
	assert.Equal(t, "Unknown", p.AccountName)
}

func TestLookupUnknownPage(t *testing.T) {
	reg := NewRegistry(nil)
	p := reg.Lookup("fb555")
	assert.Equal(t, "555", p.ID)
	assert.Equal(t, "Unknown", p.Name)
	assert.Equal(t, "Unknown", p.AccountName)
	assert.Equal(t, "Unknown", p.User)
	assert.Equal(t, "Unknown", p.TL)
}

func TestKnown(t *testing.T) {
	reg := NewRegistry([]Page{{ID: "1", Name: "fitness"}})
	assert.True(t, reg.Known("fitness"))
	assert.False(t, reg.Known("unheard-of"))
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

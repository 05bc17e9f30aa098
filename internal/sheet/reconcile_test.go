package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "pagename", "pagename"},
		{"underscore", "page_name", "pagename"},
		{"spaces and case", " Page Name ", "pagename"},
		{"punctuation", "Revenue ($)", "revenue"},
		{"digits kept", "utm_2", "utm2"},
		{"unicode stripped", "résumé", "rsum"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestReconcileIdentityIsIdempotent(t *testing.T) {
	existing := []string{"pagename", "sent", "read"}

	updated, mapping, actions := Reconcile(existing, existing)

	assert.Equal(t, existing, updated)
	assert.Equal(t, []int{0, 1, 2}, mapping)
	assert.Empty(t, actions)
}

func TestReconcileNormalizedMatchRenames(t *testing.T) {
	updated, mapping, actions := Reconcile([]string{"page_name"}, []string{"Page Name"})

	assert.Equal(t, []string{"Page Name"}, updated)
	assert.Equal(t, []int{0}, mapping)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionRename, actions[0].Kind)
	assert.Equal(t, 0, actions[0].Index)
	assert.Equal(t, "page_name", actions[0].From)
	assert.Equal(t, "Page Name", actions[0].To)
}

func TestReconcileNewColumnAppends(t *testing.T) {
	updated, mapping, actions := Reconcile([]string{"a", "b"}, []string{"a", "b", "c"})

	assert.Equal(t, []string{"a", "b", "c"}, updated)
	assert.Equal(t, []int{0, 1, 2}, mapping)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionAdd, actions[0].Kind)
	assert.Equal(t, 2, actions[0].Index)
	assert.Equal(t, "c", actions[0].To)
}

func TestReconcileExactMatchBeatsNormalized(t *testing.T) {
	// "sent" matches exactly even though "Sent " also normalizes to it.
	updated, mapping, actions := Reconcile([]string{"Sent ", "sent"}, []string{"sent"})

	assert.Equal(t, []string{"Sent ", "sent"}, updated)
	assert.Equal(t, []int{1}, mapping)
	assert.Empty(t, actions)
}

func TestReconcileMixedChanges(t *testing.T) {
	existing := []string{"pagename", "count"}
	incoming := []string{"page_name", "count", "rate"}

	updated, mapping, actions := Reconcile(existing, incoming)

	assert.Equal(t, []string{"page_name", "count", "rate"}, updated)
	assert.Equal(t, []int{0, 1, 2}, mapping)
	require.Len(t, actions, 2)
	assert.Equal(t, ActionRename, actions[0].Kind)
	assert.Equal(t, "pagename", actions[0].From)
	assert.Equal(t, ActionAdd, actions[1].Kind)
	assert.Equal(t, "rate", actions[1].To)
}

func TestReconcileMatchesAgainstNewlyAddedColumns(t *testing.T) {
	// A repeated incoming header maps to the column its first occurrence
	// created; no duplicate column is allocated.
	updated, mapping, actions := Reconcile(nil, []string{"x", "x"})

	assert.Equal(t, []string{"x"}, updated)
	assert.Equal(t, []int{0, 0}, mapping)
	require.Len(t, actions, 1)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	existing := []string{"page_name"}
	_, _, _ = Reconcile(existing, []string{"Page Name"})
	assert.Equal(t, []string{"page_name"}, existing)
}

func TestReconcileEveryIncomingColumnMapped(t *testing.T) {
	existing := []string{"a", "b", "c"}
	incoming := []string{"C", "new one", "a", "B_", "another"}

	updated, mapping, _ := Reconcile(existing, incoming)

	require.Len(t, mapping, len(incoming))
	for i, j := range mapping {
		require.GreaterOrEqual(t, j, 0)
		require.Less(t, j, len(updated), "incoming %d out of range", i)
	}
	// Original order preserved, renames in place, new columns appended in
	// encounter order.
	assert.Equal(t, []string{"a", "B_", "C", "new one", "another"}, updated)
}

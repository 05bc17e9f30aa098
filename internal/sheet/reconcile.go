// Package sheet implements the spreadsheet upload protocol: column
// reconciliation against a live sheet schema, the upload handler, and the
// persistent sheet stores behind it.
package sheet

import "strings"

// ActionKind classifies a schema change produced by reconciliation.
type ActionKind string

const (
	ActionAdd    ActionKind = "add"
	ActionRename ActionKind = "rename"
)

// Action records one header change: a column added at Index, or the header
// at Index renamed From -> To.
type Action struct {
	Kind  ActionKind `json:"kind"`
	Index int        `json:"index"`
	From  string     `json:"from,omitempty"`
	To    string     `json:"to"`
}

// Normalize reduces a header to its comparison form: lowercased, trimmed,
// with every rune that is not an ASCII letter or digit removed. Two headers
// name the same column when their normalized forms are equal.
func Normalize(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	var b strings.Builder
	b.Grow(len(header))
	for _, r := range header {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Reconcile maps incoming headers onto an existing sheet header row without
// dropping any incoming column. For each incoming header, in order: an exact
// text match wins first; then a normalized match, renaming the sheet header
// to the incoming text when they differ (last writer wins on naming); else a
// new column is appended. Existing column order is preserved and new columns
// land at the end in first-encounter order, so the mapping is deterministic
// and re-uploading an identical header set is a no-op.
//
// The returned mapping is positional: mapping[i] is the sheet column index
// for incoming column i. Reconcile is pure; callers persist the updated
// header list themselves.
func Reconcile(existing, incoming []string) (updated []string, mapping []int, actions []Action) {
	updated = make([]string, len(existing))
	copy(updated, existing)
	mapping = make([]int, len(incoming))

	for i, header := range incoming {
		if j := indexExact(updated, header); j >= 0 {
			mapping[i] = j
			continue
		}
		if j := indexNormalized(updated, header); j >= 0 {
			mapping[i] = j
			if updated[j] != header {
				actions = append(actions, Action{Kind: ActionRename, Index: j, From: updated[j], To: header})
				updated[j] = header
			}
			continue
		}
		mapping[i] = len(updated)
		updated = append(updated, header)
		actions = append(actions, Action{Kind: ActionAdd, Index: len(updated) - 1, To: header})
	}

	return updated, mapping, actions
}

func indexExact(headers []string, h string) int {
	for i, existing := range headers {
		if existing == h {
			return i
		}
	}
	return -1
}

func indexNormalized(headers []string, h string) int {
	n := Normalize(h)
	for i, existing := range headers {
		if Normalize(existing) == n {
			return i
		}
	}
	return -1
}

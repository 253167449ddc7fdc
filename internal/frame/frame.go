// Package frame implements the minimal columnar, time-indexed table the
// rest of the engine treats as "the dataframe library" (spec §1 names this
// as an assumed-available external collaborator; no complete general-purpose
// dataframe library ships in the retrieved reference pack, so this is the
// one hand-written ambient piece — see DESIGN.md).
package frame

import (
	"sort"
	"time"

	"github.com/epochflow/engine/internal/value"
)

// Frame is a datetime-indexed table: every column is a []value.Value the
// same length as Index, aligned by position. Column order is preserved in
// insertion order, since column order is semantically meaningful for final
// assembly (spec §4.3: "scalars || outputs || base-columns").
type Frame struct {
	index   []time.Time
	order   []string
	columns map[string][]value.Value
}

// New returns an empty frame over the given index. The index must already be
// sorted and monotonic; callers that cannot guarantee this should go through
// Dedupe first.
func New(index []time.Time) *Frame {
	return &Frame{
		index:   index,
		columns: make(map[string][]value.Value, 4),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Index returns the frame's row index.
func (f *Frame) Index() []time.Time { return f.index }

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool { return len(f.index) == 0 }

// Columns returns column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Column returns a column's values, ok=false if not present.
func (f *Frame) Column(name string) ([]value.Value, bool) {
	v, ok := f.columns[name]
	return v, ok
}

// HasColumn reports whether name is present.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.columns[name]
	return ok
}

// SetColumn adds or replaces a column. values must have the same length as
// the frame's index.
func (f *Frame) SetColumn(name string, values []value.Value) error {
	if len(values) != len(f.index) {
		return indexLengthMismatchError{column: name, got: len(values), want: len(f.index)}
	}
	if _, exists := f.columns[name]; !exists {
		f.order = append(f.order, name)
	}
	f.columns[name] = values
	return nil
}

// DropColumn removes a column if present.
func (f *Frame) DropColumn(name string) {
	if _, ok := f.columns[name]; !ok {
		return
	}
	delete(f.columns, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// RenameColumn renames a column in place, preserving its position.
func (f *Frame) RenameColumn(oldName, newName string) {
	vals, ok := f.columns[oldName]
	if !ok {
		return
	}
	delete(f.columns, oldName)
	f.columns[newName] = vals
	for i, n := range f.order {
		if n == oldName {
			f.order[i] = newName
			break
		}
	}
}

// Clone returns a shallow copy: a new index/order slice and column map, but
// the same underlying value.Value elements (which are themselves immutable
// value types).
func (f *Frame) Clone() *Frame {
	clone := &Frame{
		index:   append([]time.Time(nil), f.index...),
		order:   append([]string(nil), f.order...),
		columns: make(map[string][]value.Value, len(f.columns)),
	}
	for k, v := range f.columns {
		clone.columns[k] = append([]value.Value(nil), v...)
	}
	return clone
}

// Broadcast returns a column of length n, every element equal to v.
func Broadcast(v value.Value, n int) []value.Value {
	out := make([]value.Value, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// DropNullRows returns a new frame with every row that has a null in any
// column removed.
func (f *Frame) DropNullRows() *Frame {
	keep := make([]bool, f.Len())
	for i := range keep {
		keep[i] = true
	}
	for _, col := range f.columns {
		for i, v := range col {
			if v.IsNull() {
				keep[i] = false
			}
		}
	}
	return f.filterRows(keep)
}

func (f *Frame) filterRows(keep []bool) *Frame {
	out := New(nil)
	newIndex := make([]time.Time, 0, f.Len())
	for i, ts := range f.index {
		if keep[i] {
			newIndex = append(newIndex, ts)
		}
	}
	out.index = newIndex
	for _, name := range f.order {
		col := f.columns[name]
		newCol := make([]value.Value, 0, len(newIndex))
		for i, v := range col {
			if keep[i] {
				newCol = append(newCol, v)
			}
		}
		_ = out.SetColumn(name, newCol)
	}
	return out
}

// SortedUnionIndex returns the sorted, de-duplicated union of several
// timestamp indices, used by OuterJoinConcat and Reindex.
func SortedUnionIndex(indices ...[]time.Time) []time.Time {
	seen := make(map[int64]struct{})
	var out []time.Time
	for _, idx := range indices {
		for _, ts := range idx {
			key := ts.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ts)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

type indexLengthMismatchError struct {
	column   string
	got, want int
}

func (e indexLengthMismatchError) Error() string {
	return "frame: column " + e.column + " length mismatch"
}

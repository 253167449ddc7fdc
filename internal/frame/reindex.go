package frame

import (
	"time"

	"github.com/epochflow/engine/internal/value"
)

// Reindex aligns the frame onto target, filling gaps with a typed null of
// the same kind as the column's existing non-null values (or, for an
// entirely-null column, value.KindString as a safe default). This is the
// "align by timestamp with null fill on gaps" behavior spec §4.3 prescribes
// for a cross-timeframe GatherInputs lookup.
func (f *Frame) Reindex(target []time.Time) *Frame {
	pos := make(map[int64]int, f.Len())
	for i, ts := range f.index {
		pos[ts.UnixNano()] = i
	}
	out := New(append([]time.Time(nil), target...))
	for _, name := range f.order {
		col := f.columns[name]
		nullKind := columnNullKind(col)
		newCol := make([]value.Value, len(target))
		for i, ts := range target {
			if srcIdx, ok := pos[ts.UnixNano()]; ok {
				newCol[i] = col[srcIdx]
			} else {
				newCol[i] = value.MustNull(nullKind)
			}
		}
		_ = out.SetColumn(name, newCol)
	}
	return out
}

// ReindexForwardFill aligns the frame onto target the same way Reindex
// does, except gaps are filled by carrying the last observed value forward
// instead of nulling them — the alternative spec §4.3 calls out as valid
// "for non-numeric labels" (e.g. a string regime label held constant
// between observations).
func (f *Frame) ReindexForwardFill(target []time.Time) *Frame {
	pos := make(map[int64]int, f.Len())
	for i, ts := range f.index {
		pos[ts.UnixNano()] = i
	}
	out := New(append([]time.Time(nil), target...))
	for _, name := range f.order {
		col := f.columns[name]
		nullKind := columnNullKind(col)
		newCol := make([]value.Value, len(target))
		var last value.Value
		haveLast := false
		for i, ts := range target {
			if srcIdx, ok := pos[ts.UnixNano()]; ok {
				last = col[srcIdx]
				haveLast = true
				newCol[i] = last
				continue
			}
			if haveLast {
				newCol[i] = last
			} else {
				newCol[i] = value.MustNull(nullKind)
			}
		}
		_ = out.SetColumn(name, newCol)
	}
	return out
}

func columnNullKind(col []value.Value) value.Kind {
	for _, v := range col {
		if !v.IsNull() {
			return v.Kind()
		}
	}
	if len(col) > 0 {
		return col[0].Kind()
	}
	return value.KindString
}

// OuterJoinConcat column-wise-concatenates frames onto the sorted union of
// all their indices, reindexing every input frame's columns (null-filled)
// before merging. Column order is preserved: all of the first frame's
// columns, then the second's, etc. (spec §4.3's "scalars || outputs ||
// base-columns" ordering is built by callers choosing frame order.)
func OuterJoinConcat(frames ...*Frame) *Frame {
	indices := make([][]time.Time, len(frames))
	for i, fr := range frames {
		indices[i] = fr.index
	}
	union := SortedUnionIndex(indices...)
	out := New(union)
	for _, fr := range frames {
		reindexed := fr.Reindex(union)
		for _, name := range reindexed.order {
			_ = out.SetColumn(name, reindexed.columns[name])
		}
	}
	return out
}

// SessionWindow is a wall-clock (open, close) pair in a named zone, used to
// slice intraday frames to a trading session (spec §3.2).
type SessionWindow struct {
	OpenHour, OpenMinute   int
	CloseHour, CloseMinute int
	Zone                   *time.Location
}

// SliceSession returns a new frame containing only rows whose timestamp,
// converted into the session's zone, falls within [open, close) on its
// calendar day.
func (f *Frame) SliceSession(w SessionWindow) *Frame {
	loc := w.Zone
	if loc == nil {
		loc = time.UTC
	}
	keep := make([]bool, f.Len())
	for i, ts := range f.index {
		local := ts.In(loc)
		openTime := time.Date(local.Year(), local.Month(), local.Day(), w.OpenHour, w.OpenMinute, 0, 0, loc)
		closeTime := time.Date(local.Year(), local.Month(), local.Day(), w.CloseHour, w.CloseMinute, 0, 0, loc)
		keep[i] = !local.Before(openTime) && local.Before(closeTime)
	}
	return f.filterRows(keep)
}

// DedupeLastByTimestamp sorts index/columns by timestamp and, per Open
// Question decision D.3, keeps the last occurrence of any duplicate
// timestamp. It reports whether any duplicates were found so callers can log
// a warning (spec §3.10: "duplicate timestamps are tolerated but logged").
func DedupeLastByTimestamp(f *Frame) (deduped *Frame, hadDuplicates bool) {
	rows := make([]tsRow, f.Len())
	for i, ts := range f.index {
		rows[i] = tsRow{ts: ts, pos: i}
	}
	// Stable sort by timestamp preserves original relative order among
	// duplicates, so "last occurrence" means the last one in original order.
	stableSortRows(rows)

	lastPosByTS := make(map[int64]int, len(rows))
	var orderedTS []time.Time
	for _, r := range rows {
		key := r.ts.UnixNano()
		if _, exists := lastPosByTS[key]; !exists {
			orderedTS = append(orderedTS, r.ts)
		}
		lastPosByTS[key] = r.pos
	}
	hadDuplicates = len(orderedTS) != f.Len()

	out := New(orderedTS)
	for _, name := range f.order {
		col := f.columns[name]
		newCol := make([]value.Value, len(orderedTS))
		for i, ts := range orderedTS {
			newCol[i] = col[lastPosByTS[ts.UnixNano()]]
		}
		_ = out.SetColumn(name, newCol)
	}
	return out, hadDuplicates
}

// tsRow pairs a timestamp with its original position, used to implement a
// stable sort-by-timestamp without pulling in sort.SliceStable's reflection.
type tsRow struct {
	ts  time.Time
	pos int
}

func stableSortRows(rows []tsRow) {
	// insertion sort: base frames are expected nearly sorted already, and
	// this keeps the dependency surface to stdlib for a tiny, one-off sort
	// that must be stable by construction (sort.SliceStable works too, but
	// this avoids a reflection-based sort on a rarely-large input).
	for i := 1; i < len(rows); i++ {
		j := i
		for j > 0 && rows[j].ts.Before(rows[j-1].ts) {
			rows[j], rows[j-1] = rows[j-1], rows[j]
			j--
		}
	}
}

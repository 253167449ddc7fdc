// Package report implements the tearsheet/dashboard and event-marker
// payloads transforms produce after TransformData runs (spec §3.12, §4.5.1),
// plus the merge and card-grouping post-pass the orchestrator applies to
// them.
package report

import (
	"sort"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/value"
)

// Card is one tile of a tearsheet: a title plus a small series of labeled
// data points. Group/GroupSize are assigned by the post-pass, not by the
// producing transform.
type Card struct {
	Category  string
	Title     string
	DataItems []CardDataItem
	Group     int
	GroupSize int
}

// CardDataItem is one labeled value on a card.
type CardDataItem struct {
	Label string
	Value value.Value
}

// Chart is a small plot descriptor: a title, a plot kind name, and the
// series data backing it.
type Chart struct {
	Title    string
	PlotKind string
	Series   *frame.Frame
}

// Table is a tabular report section.
type Table struct {
	Title   string
	Columns []string
	Rows    *frame.Frame
}

// Dashboard ("tearsheet") is the small protobuf-like record spec §4.5.1
// describes: three repeated fields (cards, charts, tables) plus singular
// fields, merged by append-repeated / overwrite-singular semantics.
type Dashboard struct {
	Cards  []Card
	Charts []Chart
	Tables []Table

	// Singular fields: later MergeFrom calls overwrite these (Open Question
	// decision D.1: later write wins).
	Title       string
	Description string
}

// MergeFrom merges other into d: repeated fields are appended in encounter
// order, singular fields are overwritten whenever other sets them.
func (d *Dashboard) MergeFrom(other *Dashboard) {
	if other == nil {
		return
	}
	d.Cards = append(d.Cards, other.Cards...)
	d.Charts = append(d.Charts, other.Charts...)
	d.Tables = append(d.Tables, other.Tables...)
	if other.Title != "" {
		d.Title = other.Title
	}
	if other.Description != "" {
		d.Description = other.Description
	}
}

// IsEmpty reports whether the dashboard has no content at all — storage
// skips StoreReport for an empty dashboard (spec §4.4.1).
func (d *Dashboard) IsEmpty() bool {
	return d == nil || (len(d.Cards) == 0 && len(d.Charts) == 0 && len(d.Tables) == 0)
}

// AssignCardGrouping implements spec §4.5.1's post-processing pass: cards
// are grouped by Category, each group sorted alphabetically by the first
// data item's label (its "title" in the source record), and Group/GroupSize
// are assigned from the sorted position and category cardinality.
func AssignCardGrouping(d *Dashboard) {
	if d == nil || len(d.Cards) == 0 {
		return
	}

	byCategory := make(map[string][]int) // category -> card indices
	for i, c := range d.Cards {
		byCategory[c.Category] = append(byCategory[c.Category], i)
	}

	for _, indices := range byCategory {
		sort.Slice(indices, func(a, b int) bool {
			return firstItemLabel(d.Cards[indices[a]]) < firstItemLabel(d.Cards[indices[b]])
		})
		groupSize := len(indices)
		for pos, idx := range indices {
			d.Cards[idx].Group = pos
			d.Cards[idx].GroupSize = groupSize
		}
	}
}

func firstItemLabel(c Card) string {
	if len(c.DataItems) == 0 {
		return c.Title
	}
	return c.DataItems[0].Label
}

// EventMarker is the payload EventMarker-category transforms produce (spec
// §3.12): a flagged subset of rows in data, selected by the boolean
// select_key column, with a declared schema describing additional columns.
type EventMarker struct {
	Title     string
	Icon      string
	SelectKey string
	Schemas   []value.ColumnSchema
	Data      *frame.Frame
}

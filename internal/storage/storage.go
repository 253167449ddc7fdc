// Package storage implements the intermediate storage layer (spec §3.11,
// component C5): thread-safe caches for base data, per-(timeframe,asset)
// output series, global and per-asset scalars, reports, and event markers,
// plus the final-frame assembler the orchestrator calls once the graph has
// drained.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/rs/zerolog"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/report"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// MissingBaseDataError is returned when a gather/validate call needs base
// data for an (timeframe, asset) pair storage never received.
type MissingBaseDataError struct {
	Timeframe timeframe.Timeframe
	Asset     string
}

func (e *MissingBaseDataError) Error() string {
	return fmt.Sprintf("storage: no base data for asset %q at timeframe %s", e.Asset, e.Timeframe)
}

type producerInfo struct {
	timeframe timeframe.Timeframe
	category  registry.Category
}

// Storage is the per-execution intermediate cache set spec §4.3 describes.
// Each map has its own reader-writer lock: normal execution takes a writer
// briefly per store, and the hot-path reads (GatherInputs) take shared
// locks for their duration.
type Storage struct {
	log zerolog.Logger

	baseMu   sync.RWMutex
	baseData map[timeframe.Timeframe]map[string]*frame.Frame

	seriesMu sync.RWMutex
	series   map[timeframe.Timeframe]map[string]map[string][]value.Value // tf -> asset -> column_id -> series

	ioToTransform *haxmap.Map[string, producerInfo]

	assetsMu sync.RWMutex
	assets   []string

	scalarMu sync.RWMutex
	scalars  map[string]value.Value

	assetScalarMu sync.RWMutex
	assetScalars  map[string]map[string]value.Value // column_id -> asset -> value

	reportMu sync.RWMutex
	reports  map[string]*report.Dashboard

	markerMu sync.RWMutex
	markers  map[string][]*report.EventMarker
}

// New returns an empty Storage bound to log.
func New(log zerolog.Logger) *Storage {
	return &Storage{
		log:           log,
		baseData:      make(map[timeframe.Timeframe]map[string]*frame.Frame),
		series:        make(map[timeframe.Timeframe]map[string]map[string][]value.Value),
		ioToTransform: haxmap.New[string, producerInfo](),
		scalars:       make(map[string]value.Value),
		assetScalars:  make(map[string]map[string]value.Value),
		reports:       make(map[string]*report.Dashboard),
		markers:       make(map[string][]*report.EventMarker),
	}
}

// Assets returns the asset set storage was initialized with, sorted.
func (s *Storage) Assets() []string {
	s.assetsMu.RLock()
	defer s.assetsMu.RUnlock()
	out := make([]string, len(s.assets))
	copy(out, s.assets)
	return out
}

// InitializeBaseData stores base frames for each (timeframe, asset),
// intersected with allowedAssets (nil/empty means no restriction), seeding
// the series cache with one entry per base column so downstream transforms
// read base columns exactly like transform outputs (spec §4.3). Duplicate
// timestamps within an incoming frame are deduped last-write-wins and
// logged, per spec §3.10.
func (s *Storage) InitializeBaseData(data map[timeframe.Timeframe]map[string]*frame.Frame, allowedAssets []string) {
	s.baseMu.Lock()
	s.seriesMu.Lock()
	s.assetsMu.Lock()
	defer s.baseMu.Unlock()
	defer s.seriesMu.Unlock()
	defer s.assetsMu.Unlock()

	var allow map[string]struct{}
	if len(allowedAssets) > 0 {
		allow = make(map[string]struct{}, len(allowedAssets))
		for _, a := range allowedAssets {
			allow[a] = struct{}{}
		}
	}

	assetSet := make(map[string]struct{})
	for tf, byAsset := range data {
		s.baseData[tf] = make(map[string]*frame.Frame, len(byAsset))
		s.series[tf] = make(map[string]map[string][]value.Value, len(byAsset))
		for asset, f := range byAsset {
			if allow != nil {
				if _, ok := allow[asset]; !ok {
					continue
				}
			}
			deduped, hadDuplicates := frame.DedupeLastByTimestamp(f)
			if hadDuplicates {
				s.log.Warn().Str("asset", asset).Str("timeframe", tf.String()).
					Msg("duplicate timestamps in base data, kept last occurrence")
			}
			s.baseData[tf][asset] = deduped
			cols := make(map[string][]value.Value, len(deduped.Columns()))
			for _, col := range deduped.Columns() {
				vals, _ := deduped.Column(col)
				cols[col] = vals
			}
			s.series[tf][asset] = cols
			assetSet[asset] = struct{}{}
		}
	}

	s.assets = s.assets[:0]
	for a := range assetSet {
		s.assets = append(s.assets, a)
	}
	sort.Strings(s.assets)
}

// RegisterTransform writes one entry into the io->transform map for each of
// t's declared outputs, recording the producing timeframe and category so
// GatherInputs can later resolve a required input's source.
func (s *Storage) RegisterTransform(t transform.Base) {
	for _, out := range t.OutputMetadata() {
		colID := t.OutputID(out.Name)
		s.ioToTransform.Set(colID, producerInfo{timeframe: t.Timeframe(), category: t.Configuration().Metadata.Category})
	}
}

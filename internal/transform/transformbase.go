package transform

import (
	"github.com/epochflow/engine/internal/eventstream"
	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/report"
	"github.com/epochflow/engine/internal/timeframe"
)

// Base is the executable transform contract spec §6.1 names as
// TransformBase. Every builtin transform in internal/builtins implements
// this by embedding BaseTransform and supplying TransformData.
type Base interface {
	ID() string
	Timeframe() timeframe.Timeframe
	InputIDs() []string
	OutputMetadata() []registry.OutputSpec
	OutputID(handle string) string
	RequiredDataSources() []string
	Configuration() *Configuration
	ProgressEmitter() *eventstream.TransformProgressEmitter
	TransformData(f *frame.Frame) (*frame.Frame, error)
	GetDashboard(result *frame.Frame) (*report.Dashboard, bool)
	GetEventMarkers(result *frame.Frame) (*report.EventMarker, bool)
	SetProgressEmitter(e *eventstream.TransformProgressEmitter)
}

// BaseTransform supplies the plumbing every concrete transform type shares:
// id/timeframe/input-id/output accessors derived from its Configuration, and
// a progress emitter slot. Concrete transforms embed this and add
// TransformData (and, where relevant, GetDashboard/GetEventMarkers).
type BaseTransform struct {
	Config   *Configuration
	Emitter  *eventstream.TransformProgressEmitter
}

// ID returns the configuration's unique instance id.
func (b *BaseTransform) ID() string { return b.Config.ID }

// Timeframe returns the configuration's timeframe.
func (b *BaseTransform) Timeframe() timeframe.Timeframe { return b.Config.Timeframe }

// InputIDs returns the resolved column ids of this transform's inputs.
func (b *BaseTransform) InputIDs() []string { return b.Config.InputIDs() }

// OutputMetadata returns the declared output specs from metadata.
func (b *BaseTransform) OutputMetadata() []registry.OutputSpec { return b.Config.Metadata.Outputs }

// OutputID returns "{id}#{handle}" for one of this transform's outputs.
func (b *BaseTransform) OutputID(handle string) string { return b.Config.OutputColumnID(handle) }

// RequiredDataSources resolves the metadata's required base-data columns
// against this instance's resolved options.
func (b *BaseTransform) RequiredDataSources() []string { return b.Config.RequiredDataSources() }

// Configuration returns the backing configuration.
func (b *BaseTransform) Configuration() *Configuration { return b.Config }

// ProgressEmitter returns the progress emitter wired in by SetProgressEmitter,
// nil before the orchestrator wires one in.
func (b *BaseTransform) ProgressEmitter() *eventstream.TransformProgressEmitter { return b.Emitter }

// GetDashboard is the default no-dashboard implementation; Reporter-category
// transforms override it.
func (b *BaseTransform) GetDashboard(*frame.Frame) (*report.Dashboard, bool) { return nil, false }

// GetEventMarkers is the default no-marker implementation; EventMarker-
// category transforms override it.
func (b *BaseTransform) GetEventMarkers(*frame.Frame) (*report.EventMarker, bool) { return nil, false }

// SetProgressEmitter wires the per-node progress emitter in before
// execution.
func (b *BaseTransform) SetProgressEmitter(e *eventstream.TransformProgressEmitter) { b.Emitter = e }

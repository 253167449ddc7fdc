package registry

import "github.com/epochflow/engine/internal/value"

// KernelKind selects which of the four execution node kernels (spec §4.4)
// the orchestrator wraps a transform type in.
type KernelKind int

const (
	KernelDefault KernelKind = iota
	KernelCrossSectional
	KernelAssetRefPassthrough
	KernelIsAssetRef
)

// InputSpec declares one named input slot on a transform type.
type InputSpec struct {
	Name          string
	DataType      IODataType
	AllowMultiple bool // variadic slot: zero or more InputValues
	IsFilter      bool // consumed only to filter rows, not as a data column
}

// OutputSpec declares one named output handle on a transform type.
type OutputSpec struct {
	Name     string
	DataType IODataType
}

// OptionSpec declares one configurable option: its expected kind, default,
// and optional numeric bounds / selection membership.
type OptionSpec struct {
	Name     string
	Kind     value.OptionKind
	Default  value.OptionValue
	Required bool

	// HasBounds, Min, Max enforce a numeric range on Decimal/Integer scalar
	// options. Both bounds are inclusive.
	HasBounds bool
	Min       float64
	Max       float64

	// Selections, if non-empty, restricts a String scalar option to one of
	// these case-sensitive values.
	Selections []string
}

// FlagSchema is a structured extra: boolean feature flags a transform
// exposes to the front-end compiler, name-only at the engine layer.
type FlagSchema struct {
	Name        string
	Description string
}

// StrategyTag is a free-form classification tag attached to a transform's
// metadata (e.g. "mean-reversion", "trend-following"), consumed only by
// external catalog/search tooling.
type StrategyTag string

// Metadata is the declarative, immutable description of one transform type
// (spec §3.8). Metadata objects are built once at registry load and never
// mutated afterward, so reads require no locking.
type Metadata struct {
	ID       string
	Category Category
	PlotKind PlotKind

	Inputs  []InputSpec
	Outputs []OutputSpec
	Options []OptionSpec

	// Kernel selects the execution node kernel the orchestrator wraps this
	// type in (spec §4.5 Construction step 3). IsCrossSectional is kept as
	// a convenience mirror of Kernel == KernelCrossSectional for callers
	// that only care about that one distinction.
	Kernel           KernelKind
	IsCrossSectional bool
	IntradayOnly     bool
	// RequiresSession marks a transform whose default kernel must slice
	// gathered rows to the resolved session range before calling
	// TransformData (spec §4.4.1).
	RequiresSession bool
	AllowNullInputs bool
	InternalUse     bool

	// RequiredDataSources are extra base-frame columns the transform needs
	// beyond its declared inputs (spec §4.1), e.g. "BS:cash", "ECON:CPI:value".
	RequiredDataSources []string

	// ExpandRequiredDataSources, if set, overrides RequiredDataSources with
	// template expansion against the resolved options of one instantiation
	// (e.g. replacing "{category}" with a chosen option value). Metadata
	// that needs no expansion leaves this nil and GetRequiredDataSources
	// returns RequiredDataSources verbatim.
	ExpandRequiredDataSources func(resolved map[string]value.OptionValue) []string

	FlagSchema   []FlagSchema
	StrategyTags []StrategyTag
}

// GetRequiredDataSources resolves the transform's required base-data columns
// against one instantiation's resolved options, applying template expansion
// when the metadata declares it.
func (m *Metadata) GetRequiredDataSources(resolved map[string]value.OptionValue) []string {
	if m.ExpandRequiredDataSources != nil {
		return m.ExpandRequiredDataSources(resolved)
	}
	return m.RequiredDataSources
}

// OutputColumnID returns the globally unique column identifier spec §3.7/§4.1
// prescribe for one of this transform type's outputs on a given instance id.
func OutputColumnID(id, output string) string {
	return id + "#" + output
}

// findInput returns the declared InputSpec for name, or nil.
func (m *Metadata) findInput(name string) *InputSpec {
	for i := range m.Inputs {
		if m.Inputs[i].Name == name {
			return &m.Inputs[i]
		}
	}
	return nil
}

// findOption returns the declared OptionSpec for name, or nil.
func (m *Metadata) findOption(name string) *OptionSpec {
	for i := range m.Options {
		if m.Options[i].Name == name {
			return &m.Options[i]
		}
	}
	return nil
}

// FindInput exposes findInput for callers outside this package (the
// transform configuration layer validates declared slots against supplied
// inputs during Instantiate).
func (m *Metadata) FindInput(name string) (InputSpec, bool) {
	if s := m.findInput(name); s != nil {
		return *s, true
	}
	return InputSpec{}, false
}

// FindOption exposes findOption for callers outside this package.
func (m *Metadata) FindOption(name string) (OptionSpec, bool) {
	if s := m.findOption(name); s != nil {
		return *s, true
	}
	return OptionSpec{}, false
}

package transform

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/value"
)

// Configuration is a concrete transform instance: a metadata pointer, a
// unique id, resolved options, resolved inputs, a timeframe, and an
// optional session window (spec §3.9).
type Configuration struct {
	Metadata  *registry.Metadata
	ID        string
	Options   map[string]value.OptionValue
	Inputs    map[string][]InputValue
	Timeframe timeframe.Timeframe
	Session   *frame.SessionWindow
}

// OutputColumnID returns the globally unique column identifier for one of
// this configuration's declared outputs.
func (c *Configuration) OutputColumnID(output string) string {
	return registry.OutputColumnID(c.ID, output)
}

// GetOption returns a resolved option value, ok=false if undeclared.
func (c *Configuration) GetOption(name string) (value.OptionValue, bool) {
	v, ok := c.Options[name]
	return v, ok
}

// GetInputs returns the ordered InputValues bound to slot.
func (c *Configuration) GetInputs(slot string) ([]InputValue, bool) {
	v, ok := c.Inputs[slot]
	return v, ok
}

// GetInput is the scalar-slot shorthand: it requires exactly one InputValue
// bound to slot.
func (c *Configuration) GetInput(slot string) (InputValue, error) {
	vals, ok := c.Inputs[slot]
	if !ok || len(vals) != 1 {
		return InputValue{}, fmt.Errorf("transform: slot %q is not a single-valued input", slot)
	}
	return vals[0], nil
}

// RequiredDataSources resolves the metadata's required base-data columns
// against this configuration's resolved options.
func (c *Configuration) RequiredDataSources() []string {
	return c.Metadata.GetRequiredDataSources(c.Options)
}

// InputIDs returns, in metadata declaration order, the resolved column id
// for every bound InputValue across every declared slot (NodeRef ->
// "{node_id}#{handle}", Constant -> its derived name, Empty -> skipped).
// This is the contract §6.1's TransformBase.input_ids names.
func (c *Configuration) InputIDs() []string {
	var ids []string
	for _, spec := range c.Metadata.Inputs {
		for _, iv := range c.Inputs[spec.Name] {
			switch iv.Kind() {
			case InputKindNodeRef:
				ref, _ := iv.NodeRef()
				ids = append(ids, ref.ColumnID())
			case InputKindConstant:
				v, _ := iv.Constant()
				ids = append(ids, value.DerivedConstantName(v))
			case InputKindEmpty:
				// unconnected optional slot contributes no column id
			}
		}
	}
	return ids
}

// ConstantValues returns, keyed by derived constant name, every literal
// value bound across this configuration's inputs — storage broadcasts these
// the same way it broadcasts scalars (spec §4.3).
func (c *Configuration) ConstantValues() map[string]value.Value {
	out := make(map[string]value.Value)
	for _, vals := range c.Inputs {
		for _, iv := range vals {
			if v, ok := iv.Constant(); ok {
				out[value.DerivedConstantName(v)] = v
			}
		}
	}
	return out
}

// Instantiate implements spec §4.1's Instantiate operation: it fills in
// option defaults from metadata, coerces/validates supplied options, and
// enforces the non-variadic-slot-has-exactly-one-input invariant from
// §3.9. If id is empty, a uuid is minted for it instead of requiring every
// caller to supply one.
func Instantiate(
	reg *registry.Registry,
	typeID string,
	id string,
	rawOptions map[string]value.OptionValue,
	inputs map[string][]InputValue,
	tf timeframe.Timeframe,
	session *frame.SessionWindow,
) (*Configuration, error) {
	meta, err := reg.GetMetaData(typeID)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveOptions(meta, rawOptions)
	if err != nil {
		return nil, err
	}

	resolvedInputs, err := resolveInputs(meta, inputs)
	if err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.NewString()
	}

	return &Configuration{
		Metadata:  meta,
		ID:        id,
		Options:   resolved,
		Inputs:    resolvedInputs,
		Timeframe: tf,
		Session:   session,
	}, nil
}

func resolveOptions(meta *registry.Metadata, rawOptions map[string]value.OptionValue) (map[string]value.OptionValue, error) {
	resolved := make(map[string]value.OptionValue, len(meta.Options))
	declared := make(map[string]bool, len(meta.Options))

	for _, spec := range meta.Options {
		declared[spec.Name] = true
		raw, has := rawOptions[spec.Name]
		if !has {
			if spec.Required {
				return nil, &registry.BadOptionError{Name: spec.Name, Reason: "required option not supplied"}
			}
			resolved[spec.Name] = spec.Default
			continue
		}
		coerced, err := coerceOption(spec, raw)
		if err != nil {
			return nil, err
		}
		resolved[spec.Name] = coerced
	}

	for name := range rawOptions {
		if !declared[name] {
			return nil, &registry.BadOptionError{Name: name, Reason: "unknown option"}
		}
	}

	return resolved, nil
}

func coerceOption(spec registry.OptionSpec, raw value.OptionValue) (value.OptionValue, error) {
	if raw.Kind() != spec.Kind {
		return value.OptionValue{}, &registry.BadOptionError{
			Name:   spec.Name,
			Reason: fmt.Sprintf("expected %s, got %s", spec.Kind, raw.Kind()),
		}
	}

	if spec.Kind != value.OptionKindScalar {
		return raw, nil
	}

	scalar, _ := raw.Scalar()

	if spec.HasBounds {
		f, ok := scalar.AsDecimal()
		if !ok {
			return value.OptionValue{}, &registry.BadOptionError{Name: spec.Name, Reason: "option is not numeric, cannot enforce bounds"}
		}
		if f < spec.Min || f > spec.Max {
			return value.OptionValue{}, &registry.BadOptionError{
				Name:   spec.Name,
				Reason: fmt.Sprintf("%.6g out of bounds [%.6g, %.6g]", f, spec.Min, spec.Max),
			}
		}
	}

	if len(spec.Selections) > 0 {
		s, ok := scalar.AsString()
		if !ok {
			return value.OptionValue{}, &registry.BadOptionError{Name: spec.Name, Reason: "option is not a string, cannot enforce selection"}
		}
		found := false
		for _, sel := range spec.Selections {
			if sel == s {
				found = true
				break
			}
		}
		if !found {
			return value.OptionValue{}, &registry.BadOptionError{
				Name:   spec.Name,
				Reason: fmt.Sprintf("%q is not one of %v", s, spec.Selections),
			}
		}
	}

	return raw, nil
}

func resolveInputs(meta *registry.Metadata, inputs map[string][]InputValue) (map[string][]InputValue, error) {
	resolved := make(map[string][]InputValue, len(meta.Inputs))
	for _, spec := range meta.Inputs {
		vals := inputs[spec.Name]
		if spec.AllowMultiple {
			resolved[spec.Name] = vals
			continue
		}
		if len(vals) != 1 {
			return nil, &registry.MissingInputError{Slot: spec.Name}
		}
		resolved[spec.Name] = vals
	}
	return resolved, nil
}

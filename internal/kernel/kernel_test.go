package kernel

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epochflow/engine/internal/frame"
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/storage"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// doublingTransform implements transform.Base by doubling its sole input
// column, used to exercise RunDefault end to end.
type doublingTransform struct {
	transform.BaseTransform
}

func (d *doublingTransform) TransformData(f *frame.Frame) (*frame.Frame, error) {
	out := frame.New(f.Index())
	col, _ := f.Column("series")
	doubled := make([]value.Value, len(col))
	for i, v := range col {
		n, _ := v.AsDecimal()
		doubled[i] = value.Decimal(n * 2)
	}
	_ = out.SetColumn("doubled", doubled)
	return out, nil
}

func minuteIndex(n int) []time.Time {
	base := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func baseFrame(idx []time.Time, closes []float64) *frame.Frame {
	f := frame.New(idx)
	col := make([]value.Value, len(closes))
	for i, c := range closes {
		col[i] = value.Decimal(c)
	}
	_ = f.SetColumn("c", col)
	return f
}

func TestRunDefaultDoublesSeries(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Metadata{
		ID:       "src",
		Category: registry.CategoryMath,
		Outputs:  []registry.OutputSpec{{Name: "out", DataType: registry.IODataTypeDecimal}},
	})
	reg.Register(&registry.Metadata{
		ID:       "doubler",
		Category: registry.CategoryMath,
		Kernel:   registry.KernelDefault,
		Inputs:   []registry.InputSpec{{Name: "series", DataType: registry.IODataTypeDecimal}},
		Outputs:  []registry.OutputSpec{{Name: "doubled", DataType: registry.IODataTypeDecimal}},
	})

	idx := minuteIndex(3)
	s := storage.New(zerolog.Nop())
	s.InitializeBaseData(map[timeframe.Timeframe]map[string]*frame.Frame{
		timeframe.Minute1: {"AAPL": baseFrame(idx, []float64{1, 2, 3})},
	}, nil)

	srcCfg, err := transform.Instantiate(reg, "src", "a", nil, nil, timeframe.Minute1, nil)
	require.NoError(t, err)
	src := &doublingTransform{BaseTransform: transform.BaseTransform{Config: srcCfg}}
	s.RegisterTransform(src)
	result := frame.New(idx)
	_ = result.SetColumn("out", []value.Value{value.Decimal(1), value.Decimal(2), value.Decimal(3)})
	require.NoError(t, s.StoreTransformOutput("AAPL", src, result))

	dblCfg, err := transform.Instantiate(reg, "doubler", "b", nil, map[string][]transform.InputValue{
		"series": {transform.FromNodeRef("a", "out")},
	}, timeframe.Minute1, nil)
	require.NoError(t, err)
	doubler := &doublingTransform{BaseTransform: transform.BaseTransform{Config: dblCfg}}
	s.RegisterTransform(doubler)

	_, err = RunDefault(doubler, s, zerolog.Nop(), nil)
	require.NoError(t, err)

	final := s.BuildFinalOutput()
	col, ok := final[timeframe.Minute1]["AAPL"].Column("b#doubled")
	require.True(t, ok)
	for i, want := range []float64{2, 4, 6} {
		got, _ := col[i].AsDecimal()
		assert.Equal(t, want, got)
	}
}

func TestRunDefaultIntradayOnlyGatesDailyTimeframe(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Metadata{
		ID:           "daily_only",
		Category:     registry.CategoryMath,
		IntradayOnly: true,
		Outputs:      []registry.OutputSpec{{Name: "out", DataType: registry.IODataTypeDecimal}},
	})

	idx := []time.Time{time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	s := storage.New(zerolog.Nop())
	s.InitializeBaseData(map[timeframe.Timeframe]map[string]*frame.Frame{
		timeframe.Day1: {"AAPL": baseFrame(idx, []float64{1})},
	}, nil)

	cfg, err := transform.Instantiate(reg, "daily_only", "x", nil, nil, timeframe.Day1, nil)
	require.NoError(t, err)
	tr := &doublingTransform{BaseTransform: transform.BaseTransform{Config: cfg}}
	s.RegisterTransform(tr)

	_, err = RunDefault(tr, s, zerolog.Nop(), nil)
	require.NoError(t, err)

	final := s.BuildFinalOutput()
	col, ok := final[timeframe.Day1]["AAPL"].Column("x#out")
	require.True(t, ok)
	assert.True(t, col[0].IsNull())
}

func TestRunIsAssetRefEmitsBooleanSwitch(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Metadata{
		ID:       "is_ref",
		Category: registry.CategoryUtility,
		Kernel:   registry.KernelIsAssetRef,
		Options:  []registry.OptionSpec{{Name: "ticker", Kind: value.OptionKindScalar, Default: value.FromScalar(value.String("AAPL"))}},
		Outputs:  []registry.OutputSpec{{Name: "is_match", DataType: registry.IODataTypeBoolean}},
	})

	idx := minuteIndex(1)
	s := storage.New(zerolog.Nop())
	s.InitializeBaseData(map[timeframe.Timeframe]map[string]*frame.Frame{
		timeframe.Minute1: {
			"AAPL": baseFrame(idx, []float64{1}),
			"MSFT": baseFrame(idx, []float64{1}),
		},
	}, nil)

	cfg, err := transform.Instantiate(reg, "is_ref", "sw", map[string]value.OptionValue{
		"ticker": value.FromScalar(value.String("AAPL")),
	}, nil, timeframe.Minute1, nil)
	require.NoError(t, err)
	tr := &doublingTransform{BaseTransform: transform.BaseTransform{Config: cfg}}
	s.RegisterTransform(tr)

	_, err = RunIsAssetRef(tr, s, zerolog.Nop(), nil)
	require.NoError(t, err)

	final := s.BuildFinalOutput()
	aaplCol, _ := final[timeframe.Minute1]["AAPL"].Column("sw#is_match")
	msftCol, _ := final[timeframe.Minute1]["MSFT"].Column("sw#is_match")
	aaplMatch, _ := aaplCol[0].AsBoolean()
	msftMatch, _ := msftCol[0].AsBoolean()
	assert.True(t, aaplMatch)
	assert.False(t, msftMatch)
}

func TestRunAssetRefPassthroughOmitsNonMatchingAsset(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.Metadata{
		ID:       "src",
		Category: registry.CategoryMath,
		Outputs:  []registry.OutputSpec{{Name: "out", DataType: registry.IODataTypeDecimal}},
	})
	reg.Register(&registry.Metadata{
		ID:       "passthrough",
		Category: registry.CategoryUtility,
		Kernel:   registry.KernelAssetRefPassthrough,
		Inputs:   []registry.InputSpec{{Name: "series", DataType: registry.IODataTypeDecimal}},
		Options:  []registry.OptionSpec{{Name: "ticker", Kind: value.OptionKindScalar, Default: value.FromScalar(value.String(""))}},
		Outputs:  []registry.OutputSpec{{Name: "passed", DataType: registry.IODataTypeDecimal}},
	})

	idx := minuteIndex(1)
	s := storage.New(zerolog.Nop())
	s.InitializeBaseData(map[timeframe.Timeframe]map[string]*frame.Frame{
		timeframe.Minute1: {
			"AAPL": baseFrame(idx, []float64{1}),
			"MSFT": baseFrame(idx, []float64{1}),
		},
	}, nil)

	srcCfg, err := transform.Instantiate(reg, "src", "a", nil, nil, timeframe.Minute1, nil)
	require.NoError(t, err)
	src := &doublingTransform{BaseTransform: transform.BaseTransform{Config: srcCfg}}
	s.RegisterTransform(src)
	for _, asset := range []string{"AAPL", "MSFT"} {
		result := frame.New(idx)
		_ = result.SetColumn("out", []value.Value{value.Decimal(9)})
		require.NoError(t, s.StoreTransformOutput(asset, src, result))
	}

	cfg, err := transform.Instantiate(reg, "passthrough", "p", map[string]value.OptionValue{
		"ticker": value.FromScalar(value.String("AAPL")),
	}, map[string][]transform.InputValue{
		"series": {transform.FromNodeRef("a", "out")},
	}, timeframe.Minute1, nil)
	require.NoError(t, err)
	tr := &doublingTransform{BaseTransform: transform.BaseTransform{Config: cfg}}
	s.RegisterTransform(tr)

	_, err = RunAssetRefPassthrough(tr, s, zerolog.Nop(), nil)
	require.NoError(t, err)

	final := s.BuildFinalOutput()
	_, hasAAPL := final[timeframe.Minute1]["AAPL"].Column("p#passed")
	_, hasMSFT := final[timeframe.Minute1]["MSFT"].Column("p#passed")
	assert.True(t, hasAAPL)
	assert.False(t, hasMSFT)
}

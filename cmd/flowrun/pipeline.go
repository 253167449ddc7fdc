package main

import (
	"github.com/epochflow/engine/internal/registry"
	"github.com/epochflow/engine/internal/timeframe"
	"github.com/epochflow/engine/internal/transform"
	"github.com/epochflow/engine/internal/value"
)

// buildExamplePipeline wires a small DAG exercising most of the registered
// builtin types: a price passthrough feeding an SMA branch and an EMA
// branch, a diff node taking the first difference of the fast SMA, a
// cross-sectional rank on top of the trend branch, a scalar broadcast, and a
// rolling risk metric.
func buildExamplePipeline(reg *registry.Registry, tf timeframe.Timeframe) ([]*transform.Configuration, error) {
	price, err := transform.Instantiate(reg, "identity", "price", nil, nil, tf, nil)
	if err != nil {
		return nil, err
	}

	sma, err := transform.Instantiate(reg, "sma", "sma_fast",
		map[string]value.OptionValue{"period": value.FromScalar(value.Integer(10))},
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("price", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	ema, err := transform.Instantiate(reg, "ema", "ema_slow",
		map[string]value.OptionValue{"period": value.FromScalar(value.Integer(20))},
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("price", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	diff, err := transform.Instantiate(reg, "diff", "sma_vs_ema", nil,
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("sma_fast", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	bollinger, err := transform.Instantiate(reg, "bollinger", "bands",
		map[string]value.OptionValue{"period": value.FromScalar(value.Integer(20))},
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("price", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	rank, err := transform.Instantiate(reg, "top_k", "rank",
		map[string]value.OptionValue{"k": value.FromScalar(value.Integer(1))},
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("sma_fast", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	z, err := transform.Instantiate(reg, "zscore", "rank_z", nil,
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("sma_fast", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	risk, err := transform.Instantiate(reg, "cvar", "tail_risk",
		map[string]value.OptionValue{
			"window":     value.FromScalar(value.Integer(20)),
			"confidence": value.FromScalar(value.Decimal(0.95)),
		},
		map[string][]transform.InputValue{"in": {transform.FromNodeRef("price", "result")}},
		tf, nil)
	if err != nil {
		return nil, err
	}

	benchmark, err := transform.Instantiate(reg, "number", "benchmark",
		map[string]value.OptionValue{"value": value.FromScalar(value.Decimal(100))}, nil, tf, nil)
	if err != nil {
		return nil, err
	}

	return []*transform.Configuration{price, sma, ema, diff, bollinger, rank, z, risk, benchmark}, nil
}

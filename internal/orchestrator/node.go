package orchestrator

import "github.com/epochflow/engine/internal/transform"

// node is one DAG vertex: an executable transform plus the producer nodes
// it must wait on before it may start. done is closed once the node's
// kernel has returned (success, failure, or skip — all three release
// dependents), the Go rendering of spec §5's "happens-before of node
// completion -> successor start".
type node struct {
	index     int
	transform transform.Base
	deps      []*node
	done      chan struct{}
}

func newNode(index int, t transform.Base) *node {
	return &node{index: index, transform: t, done: make(chan struct{})}
}

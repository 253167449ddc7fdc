// Package transform implements the transform configuration and manager
// layers (spec §4.1/§4.2, components C3/C4): a concrete, validated instance
// of a transform type, and the assembly of a compiled graph description
// into an ordered, executable transform list.
package transform

import "github.com/epochflow/engine/internal/value"

// InputValueKind tags the variant held by an InputValue (spec §3.7).
type InputValueKind int

const (
	InputKindNodeRef InputValueKind = iota
	InputKindConstant
	InputKindEmpty
)

// NodeRef names another transform's output handle (spec §3.6). The pair
// "{node_id}#{handle}" is the canonical column identifier of that output.
type NodeRef struct {
	NodeID string
	Handle string
}

// ColumnID returns the canonical "{node_id}#{handle}" identifier.
func (r NodeRef) ColumnID() string { return r.NodeID + "#" + r.Handle }

// InputValue is the closed sum from spec §3.7: a reference to another
// transform's output, an inline literal, or an explicitly unconnected
// optional slot.
type InputValue struct {
	kind     InputValueKind
	nodeRef  NodeRef
	constant value.Value
}

// FromNodeRef constructs an InputValue referencing another transform's
// output handle.
func FromNodeRef(nodeID, handle string) InputValue {
	return InputValue{kind: InputKindNodeRef, nodeRef: NodeRef{NodeID: nodeID, Handle: handle}}
}

// FromConstant constructs an inline-literal InputValue.
func FromConstant(v value.Value) InputValue {
	return InputValue{kind: InputKindConstant, constant: v}
}

// Empty constructs the Empty variant, representing an unconnected optional
// input slot.
func Empty() InputValue { return InputValue{kind: InputKindEmpty} }

// Kind reports which variant this input value holds.
func (i InputValue) Kind() InputValueKind { return i.kind }

// NodeRef returns the wrapped reference, ok=false if this is not a NodeRef.
func (i InputValue) NodeRef() (NodeRef, bool) {
	if i.kind != InputKindNodeRef {
		return NodeRef{}, false
	}
	return i.nodeRef, true
}

// Constant returns the wrapped literal, ok=false if this is not a Constant.
func (i InputValue) Constant() (value.Value, bool) {
	if i.kind != InputKindConstant {
		return value.Value{}, false
	}
	return i.constant, true
}

// IsEmpty reports whether this is the Empty variant.
func (i InputValue) IsEmpty() bool { return i.kind == InputKindEmpty }

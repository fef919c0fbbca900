// Package ee builds Earth Engine REST expression graphs.
//
// An expression is a tree of value nodes serialised as
// {"result":"0","values":{"0":<node>}}. Nodes nest inline; no shared
// references are emitted.
package ee

import (
	"github.com/goccy/go-json"
)

// Value is one node of an expression graph.
type Value struct {
	node map[string]any
}

// MarshalJSON emits the node in the REST ValueNode form.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.node == nil {
		return []byte(`{"constantValue":null}`), nil
	}
	return json.Marshal(v.node)
}

// IsZero reports whether v was never built.
func (v Value) IsZero() bool {
	return v.node == nil
}

// Constant wraps a JSON-serialisable literal.
func Constant(c any) Value {
	return Value{node: map[string]any{"constantValue": c}}
}

// Null is the explicit null constant.
func Null() Value {
	return Constant(nil)
}

// Invoke calls a server-side function by name.
func Invoke(function string, args map[string]Value) Value {
	arguments := make(map[string]Value, len(args))
	for k, a := range args {
		if a.IsZero() {
			continue
		}
		arguments[k] = a
	}
	return Value{node: map[string]any{
		"functionInvocationValue": map[string]any{
			"functionName": function,
			"arguments":    arguments,
		},
	}}
}

// Array builds an array node.
func Array(values ...Value) Value {
	return Value{node: map[string]any{
		"arrayValue": map[string]any{"values": values},
	}}
}

// Dict builds a dictionary node.
func Dict(values map[string]Value) Value {
	return Value{node: map[string]any{
		"dictionaryValue": map[string]any{"values": values},
	}}
}

// Expression is the request envelope accepted by compute, thumbnails and maps.
type Expression struct {
	Result string           `json:"result"`
	Values map[string]Value `json:"values"`
}

// NewExpression wraps v as the single result of an expression.
func NewExpression(v Value) *Expression {
	return &Expression{Result: "0", Values: map[string]Value{"0": v}}
}

// Strings converts a slice into a constant list.
func Strings(s ...string) Value {
	return Constant(s)
}

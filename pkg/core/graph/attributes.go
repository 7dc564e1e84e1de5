// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"slices"
)

// AttrValue is the value of a node attribute. It is one of IntAttr, FloatAttr, StringAttr, IntsAttr or FloatsAttr.
type AttrValue interface {
	fmt.Stringer

	// clone returns an independent copy (lists are copied).
	clone() AttrValue
	isAttrValue()
}

type (
	IntAttr    int32
	FloatAttr  float32
	StringAttr string
	IntsAttr   []int32
	FloatsAttr []float32
)

func (v IntAttr) isAttrValue()    {}
func (v FloatAttr) isAttrValue()  {}
func (v StringAttr) isAttrValue() {}
func (v IntsAttr) isAttrValue()   {}
func (v FloatsAttr) isAttrValue() {}

func (v IntAttr) clone() AttrValue    { return v }
func (v FloatAttr) clone() AttrValue  { return v }
func (v StringAttr) clone() AttrValue { return v }
func (v IntsAttr) clone() AttrValue   { return slices.Clone(v) }
func (v FloatsAttr) clone() AttrValue { return slices.Clone(v) }

func (v IntAttr) String() string    { return fmt.Sprintf("%d", int32(v)) }
func (v FloatAttr) String() string  { return fmt.Sprintf("%g", float32(v)) }
func (v StringAttr) String() string { return fmt.Sprintf("%q", string(v)) }
func (v IntsAttr) String() string   { return fmt.Sprintf("%v", []int32(v)) }
func (v FloatsAttr) String() string { return fmt.Sprintf("%v", []float32(v)) }

// CloneAttr returns an independent copy of v. It returns nil for nil.
func CloneAttr(v AttrValue) AttrValue {
	if v == nil {
		return nil
	}
	return v.clone()
}

// SetAttr sets (or replaces) the attribute name. A nil value removes it.
func (n *Node) SetAttr(name string, value AttrValue) {
	if value == nil {
		delete(n.attrs, name)
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]AttrValue)
	}
	n.attrs[name] = value
}

// Attr returns the attribute and whether it was set.
func (n *Node) Attr(name string) (AttrValue, bool) {
	v, found := n.attrs[name]
	return v, found
}

// HasAttr returns whether the attribute is set.
func (n *Node) HasAttr(name string) bool {
	_, found := n.attrs[name]
	return found
}

// RemoveAttr removes the attribute, if set.
func (n *Node) RemoveAttr(name string) {
	delete(n.attrs, name)
}

// ClearAttrs removes all attributes.
func (n *Node) ClearAttrs() {
	clear(n.attrs)
}

// NumAttrs returns the number of attributes set.
func (n *Node) NumAttrs() int {
	return len(n.attrs)
}

// AttrNames returns the sorted names of the attributes.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// typedAttr returns the attribute name if it is set with type T, or defaultValue otherwise.
func typedAttr[T AttrValue](n *Node, name string, defaultValue T) T {
	if v, ok := n.attrs[name].(T); ok {
		return v
	}
	return defaultValue
}

// IntAttrOr returns the integer attribute name, or defaultValue if not set or of a different type.
func (n *Node) IntAttrOr(name string, defaultValue int32) int32 {
	return int32(typedAttr(n, name, IntAttr(defaultValue)))
}

// FloatAttrOr returns the float attribute name, or defaultValue if not set or of a different type.
func (n *Node) FloatAttrOr(name string, defaultValue float32) float32 {
	return float32(typedAttr(n, name, FloatAttr(defaultValue)))
}

// StringAttrOr returns the string attribute name, or defaultValue if not set or of a different type.
func (n *Node) StringAttrOr(name string, defaultValue string) string {
	return string(typedAttr(n, name, StringAttr(defaultValue)))
}

// IntsAttrOr returns the integer-list attribute name, or defaultValue if not set or of a different type.
func (n *Node) IntsAttrOr(name string, defaultValue []int32) []int32 {
	return typedAttr(n, name, IntsAttr(defaultValue))
}

// FloatsAttrOr returns the float-list attribute name, or defaultValue if not set or of a different type.
func (n *Node) FloatsAttrOr(name string, defaultValue []float32) []float32 {
	return typedAttr(n, name, FloatsAttr(defaultValue))
}

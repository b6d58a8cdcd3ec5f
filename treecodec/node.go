// Copyright The CORECONF Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package treecodec implements the delta-SID-keyed CBOR map codec at the
// center of the engine: encoding a YANG-shaped data tree as a single CBOR
// item per RFC 9254, and decoding the inverse, entirely schema-driven
// (the wire form carries no structural tags of its own).
package treecodec

import "github.com/samsirohi11/coreconf/valuecodec"

// Kind tags the shape of one Node: Container, List, Leaf, or LeafList.
type Kind int

const (
	KindContainer Kind = iota
	KindList
	KindLeaf
	KindLeafList
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindList:
		return "list"
	case KindLeaf:
		return "leaf"
	case KindLeafList:
		return "leaf-list"
	default:
		return "unknown"
	}
}

// Node is one node of the data tree, keyed externally by its SID in
// whatever map holds it. It is the shared in-memory shape both treecodec
// and the datastore operate on.
type Node struct {
	Kind Kind

	// Children holds this node's child nodes keyed by SID, valid when
	// Kind == KindContainer.
	Children map[uint64]*Node

	// Entries holds this node's list entries in order, each entry a
	// map of child SID (including key leaves) to Node, valid when
	// Kind == KindList.
	Entries []map[uint64]*Node

	// Value holds the scalar value, valid when Kind == KindLeaf.
	Value valuecodec.Value

	// Values holds the ordered scalar values, valid when
	// Kind == KindLeafList.
	Values []valuecodec.Value
}

// NewContainer builds an empty container Node.
func NewContainer() *Node {
	return &Node{Kind: KindContainer, Children: map[uint64]*Node{}}
}

// NewList builds an empty list Node.
func NewList() *Node {
	return &Node{Kind: KindList}
}

// NewLeaf builds a leaf Node carrying v.
func NewLeaf(v valuecodec.Value) *Node {
	return &Node{Kind: KindLeaf, Value: v}
}

// NewLeafList builds a leaf-list Node carrying vs.
func NewLeafList(vs []valuecodec.Value) *Node {
	return &Node{Kind: KindLeafList, Values: append([]valuecodec.Value(nil), vs...)}
}

// Clone returns a deep copy of n, so that datastore readers can be handed
// independent subtrees while the store keeps exclusive ownership of its
// own tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value}
	if n.Children != nil {
		out.Children = make(map[uint64]*Node, len(n.Children))
		for sid, child := range n.Children {
			out.Children[sid] = child.Clone()
		}
	}
	if n.Entries != nil {
		out.Entries = make([]map[uint64]*Node, len(n.Entries))
		for i, entry := range n.Entries {
			clone := make(map[uint64]*Node, len(entry))
			for sid, child := range entry {
				clone[sid] = child.Clone()
			}
			out.Entries[i] = clone
		}
	}
	if n.Values != nil {
		out.Values = append([]valuecodec.Value(nil), n.Values...)
	}
	return out
}

// CloneTree deep-copies a SID-keyed map of Nodes.
func CloneTree(tree map[uint64]*Node) map[uint64]*Node {
	if tree == nil {
		return nil
	}
	out := make(map[uint64]*Node, len(tree))
	for sid, n := range tree {
		out[sid] = n.Clone()
	}
	return out
}

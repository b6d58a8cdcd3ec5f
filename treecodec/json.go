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

package treecodec

import (
	"strings"

	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/valuecodec"
)

// PathRegistry extends Registry with the path->sid lookup FromJSONTree
// needs to resolve bare child names against their parent's schema path
// (the JSON tree, unlike the CBOR wire form, carries names instead of
// SIDs, so decoding runs in the opposite direction from decodeMap: path
// string -> sid rather than sid -> path).
type PathRegistry interface {
	Registry
	SIDOf(path string) (uint64, bool)
}

var _ PathRegistry = (*sidindex.SidIndex)(nil)

// ToJSONTree converts a SID-keyed Node tree to the plain JSON-shaped form
// used by the Datastore's human-editable snapshot: the outermost map is
// keyed by the item's full schema path ("/ietf-schc:schc"), and every
// nested level is keyed by the item's bare last path segment ("rule",
// "rule-id"), mirroring RFC 7951 JSON with module prefixes only at the
// top.
func ToJSONTree(reg Registry, tree map[uint64]*Node) (map[string]interface{}, error) {
	return encodeJSONLevel(reg, tree, true)
}

func encodeJSONLevel(reg Registry, nodes map[uint64]*Node, root bool) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(nodes))
	for sid, n := range nodes {
		item, ok := reg.PathOf(sid)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "treecodec: encoding unknown sid to json")
		}
		key := item.Path
		if !root {
			key = lastPathSegment(item.Path)
		}
		val, err := NodeToJSON(reg, item, n)
		if err != nil {
			return nil, err
		}
		out[key] = val
	}
	return out, nil
}

// NodeToJSON converts a single Node, whose schema metadata is item, to its
// JSON-native representation: a nested map for a container, an array of
// maps for a list, an array of scalars for a leaf-list, or a bare scalar
// for a leaf.
func NodeToJSON(reg Registry, item sidindex.Item, n *Node) (interface{}, error) {
	switch n.Kind {
	case KindContainer:
		return encodeJSONLevel(reg, n.Children, false)
	case KindList:
		arr := make([]interface{}, 0, len(n.Entries))
		for _, entry := range n.Entries {
			m, err := encodeJSONLevel(reg, entry, false)
			if err != nil {
				return nil, err
			}
			arr = append(arr, m)
		}
		return arr, nil
	case KindLeafList:
		arr := make([]interface{}, 0, len(n.Values))
		for _, v := range n.Values {
			arr = append(arr, valuecodec.ToJSON(sidindex.HintNone, v))
		}
		return arr, nil
	default:
		return valuecodec.ToJSON(item.Hint, n.Value), nil
	}
}

// FromJSONTree is the inverse of ToJSONTree: it resolves every key against
// reg, starting from the empty parent path, so each nested map's keys
// must be bare child names reachable from an already-resolved ancestor
// path.
func FromJSONTree(reg PathRegistry, tree map[string]interface{}) (map[uint64]*Node, error) {
	return decodeJSONLevel(reg, tree, "")
}

// FromJSONTreeAt is FromJSONTree with an explicit parent path, used by the
// Datastore when the incoming JSON object's keys are bare names relative
// to an already-resolved ancestor (e.g. the fields of one list entry
// addressed by its key predicate).
func FromJSONTreeAt(reg PathRegistry, parentPath string, tree map[string]interface{}) (map[uint64]*Node, error) {
	return decodeJSONLevel(reg, tree, parentPath)
}

func decodeJSONLevel(reg PathRegistry, m map[string]interface{}, parentPath string) (map[uint64]*Node, error) {
	out := make(map[uint64]*Node, len(m))
	for key, val := range m {
		path := key
		if parentPath != "" {
			path = parentPath + "/" + key
		}
		sid, ok := reg.SIDOf(path)
		if !ok {
			return nil, coreerr.New(coreerr.PathInvalid, "treecodec: path %q does not resolve", path)
		}
		item, ok := reg.PathOf(sid)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "treecodec: sid resolved from path not in index")
		}
		node, err := JSONToNode(reg, item, path, val)
		if err != nil {
			return nil, err
		}
		out[sid] = node
	}
	return out, nil
}

// JSONToNode converts a single JSON value val, addressed by path and
// described by item, into a Node.
func JSONToNode(reg PathRegistry, item sidindex.Item, path string, val interface{}) (*Node, error) {
	hint := item.Hint
	if hint == sidindex.HintNone {
		// No declared type: an object can only be a container, anything
		// else falls through to the pass-through scalar conversion.
		if _, ok := val.(map[string]interface{}); ok {
			hint = sidindex.HintContainer
		}
	}
	switch hint {
	case sidindex.HintContainer:
		mv, ok := val.(map[string]interface{})
		if !ok {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, item.SID, "treecodec: expected container object at %q", path)
		}
		children, err := decodeJSONLevel(reg, mv, path)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindContainer, Children: children}, nil

	case sidindex.HintList:
		arr, ok := val.([]interface{})
		if !ok {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, item.SID, "treecodec: expected list array at %q", path)
		}
		entries := make([]map[uint64]*Node, 0, len(arr))
		for _, e := range arr {
			em, ok := e.(map[string]interface{})
			if !ok {
				return nil, coreerr.WithSID(coreerr.TypeMismatch, item.SID, "treecodec: expected object list entry at %q", path)
			}
			entry, err := decodeJSONLevel(reg, em, path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		if err := checkEntryKeys(reg, item.SID, entries); err != nil {
			return nil, err
		}
		return &Node{Kind: KindList, Entries: entries}, nil

	case sidindex.HintLeafList:
		arr, ok := val.([]interface{})
		if !ok {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, item.SID, "treecodec: expected leaf-list array at %q", path)
		}
		values := make([]valuecodec.Value, 0, len(arr))
		for _, e := range arr {
			v, err := valuecodec.FromJSON(reg, sidindex.HintNone, e)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &Node{Kind: KindLeafList, Values: values}, nil

	default:
		v, err := valuecodec.FromJSON(reg, item.Hint, val)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindLeaf, Value: v}, nil
	}
}

func lastPathSegment(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

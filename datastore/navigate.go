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

package datastore

import (
	"github.com/samsirohi11/coreconf/instancepath"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
)

// locateResult describes where an Addr resolved to. Exactly one of two
// shapes holds:
//   - a field within some container or list entry: parent/sid/node are
//     set, entryIndex is -1;
//   - a whole list entry (the path ends immediately after a key
//     predicate): listNode/entryIndex identify the entry, and node/sid
//     are a synthetic container view of it for Get's convenience.
type locateResult struct {
	parent     map[uint64]*treecodec.Node
	sid        uint64
	node       *treecodec.Node
	listSID    uint64 // nonzero if node's container is a list entry of this list sid
	entryIndex int    // >= 0 when node denotes a whole list entry
	listNode   *treecodec.Node
}

// locate walks addr's elements against ds.tree, creating intermediate
// containers and list entries along the way when create is true. elements
// must be non-empty; callers handle the whole-datastore (empty Addr) case
// themselves.
func (ds *Datastore) locate(addr Addr, create bool) (locateResult, error) {
	elements := addr.Path.Elements
	cur := ds.tree
	var listCtx uint64
	i := 0

	for i < len(elements) {
		el := elements[i]
		if el.Key {
			return locateResult{}, coreerr.New(coreerr.Internal, "datastore: malformed instance path: unexpected key element")
		}
		sid := el.SID
		item, ok := ds.reg.PathOf(sid)
		if !ok {
			return locateResult{}, coreerr.WithSID(coreerr.UnknownSid, sid, "datastore: sid not in schema")
		}

		node, exists := cur[sid]
		if !exists {
			if !create {
				return locateResult{}, coreerr.WithSID(coreerr.NotFound, sid, "datastore: %q absent", item.Path)
			}
			node = newNodeFor(item.Hint)
			cur[sid] = node
		}
		i++

		if item.Hint == sidindex.HintList {
			keys := ds.reg.ListKeys(sid)
			hasPredicate := i < len(elements) && elements[i].Key
			if !hasPredicate {
				if i != len(elements) {
					return locateResult{}, coreerr.WithSID(coreerr.PathInvalid, sid, "datastore: path continues past list %q without a key predicate", item.Path)
				}
				return locateResult{parent: cur, sid: sid, node: node, listSID: listCtx, entryIndex: -1}, nil
			}
			if i+len(keys) > len(elements) {
				return locateResult{}, coreerr.WithSID(coreerr.KeyMissing, sid, "datastore: incomplete key predicate for list %q", item.Path)
			}
			keyEls := elements[i : i+len(keys)]
			idx, entry := findEntry(node, keyEls, create)
			i += len(keys)
			if idx < 0 {
				return locateResult{}, coreerr.WithSID(coreerr.NotFound, sid, "datastore: no entry matches key predicate under %q", item.Path)
			}
			if i == len(elements) {
				return locateResult{
					sid:        sid,
					node:       &treecodec.Node{Kind: treecodec.KindContainer, Children: entry},
					listSID:    listCtx,
					entryIndex: idx,
					listNode:   node,
				}, nil
			}
			cur = entry
			listCtx = sid
			continue
		}

		if i == len(elements) {
			return locateResult{parent: cur, sid: sid, node: node, listSID: listCtx, entryIndex: -1}, nil
		}

		switch item.Hint {
		case sidindex.HintContainer, sidindex.HintNone:
			if node.Children == nil {
				if !create {
					return locateResult{}, coreerr.WithSID(coreerr.NotFound, sid, "datastore: %q absent", item.Path)
				}
				node.Children = map[uint64]*treecodec.Node{}
			}
			cur = node.Children
			listCtx = 0
		default:
			return locateResult{}, coreerr.WithSID(coreerr.PathInvalid, sid, "datastore: path continues past non-container %q", item.Path)
		}
	}

	return locateResult{}, coreerr.New(coreerr.Internal, "datastore: locate called with an empty path")
}

// parentSID returns the SID of sid's schema parent, or 0 if sid is
// top-level or its parent path does not itself resolve to a SID.
func parentSID(reg Registry, sid uint64) uint64 {
	item, ok := reg.PathOf(sid)
	if !ok {
		return 0
	}
	parent := sidindex.ParentPath(item.Path)
	if parent == "" {
		return 0
	}
	psid, ok := reg.SIDOf(parent)
	if !ok {
		return 0
	}
	return psid
}

func newNodeFor(hint sidindex.Hint) *treecodec.Node {
	switch hint {
	case sidindex.HintList:
		return treecodec.NewList()
	case sidindex.HintLeafList:
		return treecodec.NewLeafList(nil)
	case sidindex.HintContainer, sidindex.HintNone:
		return treecodec.NewContainer()
	default:
		return treecodec.NewLeaf(nil)
	}
}

// findEntry returns the index of the list entry matching keyEls, creating
// one (appended to listNode.Entries) when create is true and no entry
// matches. It returns -1 when no entry matches and create is false.
func findEntry(listNode *treecodec.Node, keyEls []instancepath.PathElement, create bool) (int, map[uint64]*treecodec.Node) {
	for idx, entry := range listNode.Entries {
		if entryMatchesKeys(entry, keyEls) {
			return idx, entry
		}
	}
	if !create {
		return -1, nil
	}
	entry := make(map[uint64]*treecodec.Node, len(keyEls))
	for _, kv := range keyEls {
		entry[kv.SID] = treecodec.NewLeaf(kv.Value)
	}
	listNode.Entries = append(listNode.Entries, entry)
	return len(listNode.Entries) - 1, entry
}

func entryMatchesKeys(entry map[uint64]*treecodec.Node, keyEls []instancepath.PathElement) bool {
	for _, kv := range keyEls {
		n, ok := entry[kv.SID]
		if !ok || n.Kind != treecodec.KindLeaf || n.Value != kv.Value {
			return false
		}
	}
	return true
}

// findEntryByKeys is findEntry's merge-time counterpart: it compares two
// entry maps' key leaves directly rather than against explicit path-element
// values.
func findEntryByKeys(entries []map[uint64]*treecodec.Node, keySIDs []uint64, candidate map[uint64]*treecodec.Node) int {
	for idx, entry := range entries {
		match := true
		for _, k := range keySIDs {
			a, aok := entry[k]
			b, bok := candidate[k]
			if !aok || !bok || a.Value != b.Value {
				match = false
				break
			}
		}
		if match {
			return idx
		}
	}
	return -1
}

// mergeTree merges src into dst (creating dst if nil) SID by SID,
// recursing per mergeNode. It is the merge-not-replace discipline iPATCH
// requires.
func mergeTree(reg Registry, dst, src map[uint64]*treecodec.Node) (map[uint64]*treecodec.Node, error) {
	if dst == nil {
		dst = map[uint64]*treecodec.Node{}
	}
	for sid, sn := range src {
		merged, err := mergeNode(reg, sid, dst[sid], sn)
		if err != nil {
			return nil, err
		}
		dst[sid] = merged
	}
	return dst, nil
}

// mergeNode merges src into dst under sid. A container merges its
// children; a list merges entries by key, appending unmatched ones; a
// leaf or leaf-list is replaced outright.
func mergeNode(reg Registry, sid uint64, dst, src *treecodec.Node) (*treecodec.Node, error) {
	if dst == nil {
		return src, nil
	}
	if src == nil {
		return dst, nil
	}
	if dst.Kind != src.Kind {
		return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "datastore: cannot merge a %s into a %s", src.Kind, dst.Kind)
	}
	switch dst.Kind {
	case treecodec.KindContainer:
		merged, err := mergeTree(reg, dst.Children, src.Children)
		if err != nil {
			return nil, err
		}
		dst.Children = merged
		return dst, nil

	case treecodec.KindList:
		keys := reg.ListKeys(sid)
		for _, se := range src.Entries {
			idx := findEntryByKeys(dst.Entries, keys, se)
			if idx < 0 {
				dst.Entries = append(dst.Entries, se)
				continue
			}
			merged, err := mergeTree(reg, dst.Entries[idx], se)
			if err != nil {
				return nil, err
			}
			dst.Entries[idx] = merged
		}
		return dst, nil

	default: // KindLeaf, KindLeafList
		return src, nil
	}
}

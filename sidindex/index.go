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

package sidindex

import (
	"sort"
	"strings"
)

// SidIndex is the immutable path/SID index built from one .sid document.
// It is safe for concurrent use by multiple readers once constructed.
type SidIndex struct {
	moduleName     string
	moduleRevision string
	ranges         []AssignmentRange

	byPath []Item // sorted by Path
	bySID  []Item // sorted by SID

	childrenOf map[uint64][]uint64 // parent sid -> child sids, ascending
	rootItems  []uint64            // top-level (parentless) sids, ascending
	listKeys   map[uint64][]uint64 // list sid -> key leaf sids, schema order

	identityByName map[string]uint64 // identity-namespace items only
	identityByID   map[uint64]string
}

// build constructs the derived indices from the flat item list. The
// combined byPath/bySID tables hold every item, whatever its namespace.
// Only NamespaceData items participate in the data-tree hierarchy
// (childrenOf/rootItems/listKeys); NamespaceIdentity items additionally
// populate the separate identity name/SID tables used for the
// enum/identityref integer short form, and NamespaceModule items appear
// only in byPath/bySID.
func build(moduleName, moduleRevision string, ranges []AssignmentRange, items []Item) *SidIndex {
	idx := &SidIndex{
		moduleName:     moduleName,
		moduleRevision: moduleRevision,
		ranges:         append([]AssignmentRange(nil), ranges...),
		byPath:         append([]Item(nil), items...),
		bySID:          append([]Item(nil), items...),
		childrenOf:     make(map[uint64][]uint64, len(items)),
		listKeys:       make(map[uint64][]uint64),
		identityByName: make(map[string]uint64),
		identityByID:   make(map[uint64]string),
	}
	sort.Slice(idx.byPath, func(i, j int) bool { return idx.byPath[i].Path < idx.byPath[j].Path })
	sort.Slice(idx.bySID, func(i, j int) bool { return idx.bySID[i].SID < idx.bySID[j].SID })

	dataItems := make([]Item, 0, len(items))
	pathToSID := make(map[string]uint64, len(items))
	for _, it := range items {
		switch it.Namespace {
		case NamespaceIdentity:
			idx.identityByName[it.Path] = it.SID
			idx.identityByID[it.SID] = it.Path
		case NamespaceModule:
			// Informational only; not part of the data tree.
		default:
			dataItems = append(dataItems, it)
			pathToSID[it.Path] = it.SID
		}
	}

	for _, it := range dataItems {
		parent := ParentPath(it.Path)
		if parent == "" {
			idx.rootItems = append(idx.rootItems, it.SID)
			continue
		}
		if parentSID, ok := pathToSID[parent]; ok {
			idx.childrenOf[parentSID] = append(idx.childrenOf[parentSID], it.SID)
		} else {
			// Parent path not itself a SID-assigned node (e.g. a
			// choice/case container elided from the .sid file);
			// treat this item as rooted for traversal purposes.
			idx.rootItems = append(idx.rootItems, it.SID)
		}
	}
	for k := range idx.childrenOf {
		sort.Slice(idx.childrenOf[k], func(i, j int) bool { return idx.childrenOf[k][i] < idx.childrenOf[k][j] })
	}
	sort.Slice(idx.rootItems, func(i, j int) bool { return idx.rootItems[i] < idx.rootItems[j] })

	for _, it := range dataItems {
		if it.Hint != HintList || len(it.Keys) == 0 {
			continue
		}
		keySIDs := make([]uint64, 0, len(it.Keys))
		for _, name := range it.Keys {
			if sid, ok := pathToSID[it.Path+"/"+name]; ok {
				keySIDs = append(keySIDs, sid)
			}
		}
		if len(keySIDs) > 0 {
			idx.listKeys[it.SID] = keySIDs
		}
	}

	return idx
}

// IdentitySID looks up the SID assigned to the identity name, for the
// enum/identityref integer short form.
func (idx *SidIndex) IdentitySID(name string) (uint64, bool) {
	sid, ok := idx.identityByName[name]
	return sid, ok
}

// IdentityName looks up the identity name assigned to sid, for the
// enum/identityref integer short form.
func (idx *SidIndex) IdentityName(sid uint64) (string, bool) {
	name, ok := idx.identityByID[sid]
	return name, ok
}

// ParentPath returns the schema path of path's parent, or "" if path is
// already a top-level (root-rooted) path.
func ParentPath(path string) string {
	segs := strings.Split(path, "/")
	if len(segs) <= 2 {
		// e.g. "/module:top" -> ["", "module:top"]
		return ""
	}
	return strings.Join(segs[:len(segs)-1], "/")
}

// ModuleName returns the module-name field of the source .sid document.
func (idx *SidIndex) ModuleName() string { return idx.moduleName }

// ModuleRevision returns the module-revision field of the source .sid
// document.
func (idx *SidIndex) ModuleRevision() string { return idx.moduleRevision }

// Ranges returns the assignment ranges declared by the source document.
func (idx *SidIndex) Ranges() []AssignmentRange {
	return append([]AssignmentRange(nil), idx.ranges...)
}

// SIDOf looks up the SID assigned to path. ok is false if path is not in
// the index.
func (idx *SidIndex) SIDOf(path string) (sid uint64, ok bool) {
	i := sort.Search(len(idx.byPath), func(i int) bool { return idx.byPath[i].Path >= path })
	if i < len(idx.byPath) && idx.byPath[i].Path == path {
		return idx.byPath[i].SID, true
	}
	return 0, false
}

// PathOf looks up the path and type hint for sid. ok is false if sid is
// not in the index.
func (idx *SidIndex) PathOf(sid uint64) (item Item, ok bool) {
	i := sort.Search(len(idx.bySID), func(i int) bool { return idx.bySID[i].SID >= sid })
	if i < len(idx.bySID) && idx.bySID[i].SID == sid {
		return idx.bySID[i], true
	}
	return Item{}, false
}

// ChildrenOf returns the child SIDs of parent in ascending order. This is
// the auxiliary index TreeCodec needs to know where, in a SID-ordered
// walk, one container's children end and the next sibling begins.
func (idx *SidIndex) ChildrenOf(parent uint64) []uint64 {
	return append([]uint64(nil), idx.childrenOf[parent]...)
}

// RootItems returns the SIDs with no parent in the index, i.e. the
// top-level containers a datastore root holds, in ascending order.
func (idx *SidIndex) RootItems() []uint64 {
	return append([]uint64(nil), idx.rootItems...)
}

// ListKeys returns the key leaf SIDs of the list identified by listSID, in
// schema-declared order, or nil if listSID does not name a list or the
// source document did not declare its key. The instancepath and treecodec
// decoders need this to know how many key predicates follow a list step
// and which SIDs they occupy.
func (idx *SidIndex) ListKeys(listSID uint64) []uint64 {
	return append([]uint64(nil), idx.listKeys[listSID]...)
}

// IsListKey reports whether sid is a key leaf of listSID.
func (idx *SidIndex) IsListKey(listSID, sid uint64) bool {
	for _, k := range idx.listKeys[listSID] {
		if k == sid {
			return true
		}
	}
	return false
}

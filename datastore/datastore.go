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

// Package datastore implements the hierarchical in-memory instance-data
// store addressed by SID or YANG path. It holds the same tagged
// Container/List/Leaf/LeafList tree treecodec operates on, owns it
// exclusively, and hands readers copies of whatever subtree they asked
// for.
package datastore

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/samsirohi11/coreconf/instancepath"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
)

// Registry is the SidIndex lookup surface the Datastore needs: everything
// TreeCodec needs plus path<->sid resolution and the list-key test that
// Delete uses to reject removal of a key leaf.
type Registry interface {
	treecodec.PathRegistry
	IsListKey(listSID, sid uint64) bool
}

var _ Registry = (*sidindex.SidIndex)(nil)

// Datastore is the single-owner in-memory instance tree. Get/Export take
// the read lock and Set/Delete/Restore the exclusive lock, giving callers
// the expected readers-writer discipline (concurrent FETCH/GET, exclusive
// iPATCH) without layering their own.
type Datastore struct {
	reg Registry

	mu   sync.RWMutex
	tree map[uint64]*treecodec.Node
}

// New builds an empty Datastore. If seed is non-empty, it is parsed as the
// same JSON shape Snapshot produces, validated against reg, and used to
// populate the initial state.
func New(reg Registry, seed []byte) (*Datastore, error) {
	ds := &Datastore{reg: reg, tree: map[uint64]*treecodec.Node{}}
	if len(seed) == 0 {
		return ds, nil
	}
	if err := ds.restoreLocked(seed); err != nil {
		return nil, err
	}
	return ds, nil
}

// Addr identifies a target node in the Datastore: a (possibly empty,
// meaning "the whole store") root-rooted instance path. Build one with
// PathAddr (textual YANG instance identifier, key predicates allowed) or
// SIDAddr (schema-position addressing, no list keys).
type Addr struct {
	Path instancepath.InstancePath
}

// RootAddr addresses the entire datastore.
func RootAddr() Addr { return Addr{} }

// PathAddr resolves a textual instance identifier such as
// "/ietf-schc:schc/rule[rule-id=7]/rule-id" against reg.
func PathAddr(reg Registry, path string) (Addr, error) {
	p, err := instancepath.ParsePath(reg, path)
	if err != nil {
		return Addr{}, err
	}
	return Addr{Path: p}, nil
}

// SIDAddr resolves a bare schema SID into an Addr by walking the SID's
// ancestor chain back to the root via repeated ParentPath/SIDOf lookups.
// It cannot address a specific list entry: a list step resolved this way
// addresses the whole list, since a bare SID carries no key value.
func SIDAddr(reg Registry, sid uint64) (Addr, error) {
	item, ok := reg.PathOf(sid)
	if !ok {
		return Addr{}, coreerr.WithSID(coreerr.UnknownSid, sid, "datastore: sid not in schema")
	}
	var chain []uint64
	for path := item.Path; path != ""; path = sidindex.ParentPath(path) {
		s, ok := reg.SIDOf(path)
		if !ok {
			return Addr{}, coreerr.New(coreerr.PathInvalid, "datastore: ancestor path %q of sid %d does not resolve", path, sid)
		}
		chain = append(chain, s)
	}
	elements := make([]instancepath.PathElement, len(chain))
	for i, s := range chain {
		elements[len(chain)-1-i] = instancepath.Leaf(s)
	}
	return Addr{Path: instancepath.InstancePath{Elements: elements}}, nil
}

// Get returns the JSON-shaped subtree rooted at addr, or nil if addr
// addresses a schema-valid but data-absent node. Intermediate steps not
// present in the instance tree are skipped rather than treated as an
// error.
func (ds *Datastore) Get(addr Addr) (interface{}, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if len(addr.Path.Elements) == 0 {
		tree, err := treecodec.ToJSONTree(ds.reg, ds.tree)
		if err != nil {
			return nil, err
		}
		return tree, nil
	}

	res, err := ds.locate(addr, false)
	if err != nil {
		if coreerr.KindOf(err) == coreerr.NotFound {
			return nil, nil
		}
		return nil, err
	}
	item, ok := ds.reg.PathOf(res.sid)
	if !ok {
		return nil, coreerr.WithSID(coreerr.UnknownSid, res.sid, "datastore: get target sid not in schema")
	}
	return treecodec.NodeToJSON(ds.reg, item, res.node)
}

// Set writes value, a JSON-shaped subtree as produced by encoding/json
// with UseNumber enabled, at addr. Intermediate containers and list
// entries are created as needed; setting an existing container merges
// rather than replaces (iPATCH semantics, not PUT), and setting a leaf or
// leaf-list replaces its value outright.
func (ds *Datastore) Set(addr Addr, value interface{}) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.setLocked(addr, value)
}

func (ds *Datastore) setLocked(addr Addr, value interface{}) error {
	if len(addr.Path.Elements) == 0 {
		mv, ok := value.(map[string]interface{})
		if !ok {
			return coreerr.New(coreerr.TypeMismatch, "datastore: whole-datastore set requires a JSON object")
		}
		incoming, err := treecodec.FromJSONTree(ds.reg, mv)
		if err != nil {
			return err
		}
		merged, err := mergeTree(ds.reg, ds.tree, incoming)
		if err != nil {
			return err
		}
		ds.tree = merged
		return nil
	}

	res, err := ds.locate(addr, true)
	if err != nil {
		return err
	}
	item, ok := ds.reg.PathOf(res.sid)
	if !ok {
		return coreerr.WithSID(coreerr.UnknownSid, res.sid, "datastore: set target sid not in schema")
	}

	if res.entryIndex >= 0 {
		mv, ok := value.(map[string]interface{})
		if !ok {
			return coreerr.WithSID(coreerr.TypeMismatch, res.sid, "datastore: setting a list entry requires a JSON object")
		}
		incoming, err := treecodec.FromJSONTreeAt(ds.reg, item.Path, mv)
		if err != nil {
			return err
		}
		merged, err := mergeTree(ds.reg, res.listNode.Entries[res.entryIndex], incoming)
		if err != nil {
			return err
		}
		res.listNode.Entries[res.entryIndex] = merged
		return nil
	}

	incoming, err := treecodec.JSONToNode(ds.reg, item, item.Path, value)
	if err != nil {
		return err
	}
	merged, err := mergeNode(ds.reg, res.sid, res.node, incoming)
	if err != nil {
		return err
	}
	res.parent[res.sid] = merged
	return nil
}

// Delete removes the node addressed by addr. Deleting a list's key leaf
// is forbidden (KeyImmutable); deleting an already-absent address is a
// no-op reported as NotFound.
func (ds *Datastore) Delete(addr Addr) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.deleteLocked(addr)
}

func (ds *Datastore) deleteLocked(addr Addr) error {
	if len(addr.Path.Elements) == 0 {
		return coreerr.New(coreerr.Unsupported, "datastore: the datastore root cannot be deleted")
	}
	res, err := ds.locate(addr, false)
	if err != nil {
		return err
	}
	if res.listSID != 0 && ds.reg.IsListKey(res.listSID, res.sid) {
		return coreerr.WithSID(coreerr.KeyImmutable, res.sid, "datastore: cannot delete a list key leaf")
	}
	if res.entryIndex >= 0 {
		listNode := res.listNode
		listNode.Entries = append(listNode.Entries[:res.entryIndex], listNode.Entries[res.entryIndex+1:]...)
		return nil
	}
	delete(res.parent, res.sid)
	return nil
}

// Export returns the SID-keyed map of child nodes addressed by addr, along
// with the baseline SID a TreeCodec EncodeAt/DecodeAt call against that
// map must use (the addressed container or list's own SID, the sid of its
// parent when addr names a leaf/list/leaf-list directly, or 0 at the
// root). RequestHandler uses this to encode a GET response or a FETCH
// projection for any target, root or subtree alike. An absent-but-
// schema-valid addr yields an empty map rather than an error, mirroring
// Get's nil-on-absent contract.
func (ds *Datastore) Export(addr Addr) (tree map[uint64]*treecodec.Node, baseline uint64, err error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if len(addr.Path.Elements) == 0 {
		return treecodec.CloneTree(ds.tree), 0, nil
	}

	res, lerr := ds.locate(addr, false)
	if lerr != nil {
		if coreerr.KindOf(lerr) == coreerr.NotFound {
			return map[uint64]*treecodec.Node{}, 0, nil
		}
		return nil, 0, lerr
	}
	if res.node.Kind == treecodec.KindContainer {
		return treecodec.CloneTree(res.node.Children), res.sid, nil
	}
	return map[uint64]*treecodec.Node{res.sid: res.node.Clone()}, parentSID(ds.reg, res.sid), nil
}

// Snapshot returns the entire Datastore as a human-editable JSON object
// whose keys are YANG paths at each level.
func (ds *Datastore) Snapshot() ([]byte, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	tree, err := treecodec.ToJSONTree(ds.reg, ds.tree)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// Restore replaces the Datastore's contents with the snapshot encoded in
// data, round-tripping with Snapshot.
func (ds *Datastore) Restore(data []byte) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.restoreLocked(data)
}

func (ds *Datastore) restoreLocked(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return coreerr.New(coreerr.BadSidFile, "datastore: invalid snapshot json: %v", err)
	}
	tree, err := treecodec.FromJSONTree(ds.reg, raw)
	if err != nil {
		return err
	}
	ds.tree = tree
	return nil
}

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

// Package reqbuilder composes client-side CORECONF request payloads: the
// delta-encoded SID array of a FETCH, the sid -> value-or-null map of an
// iPATCH, and an RPC/action's POST input map. Inputs are sorted by
// ascending SID before delta encoding, so callers receive a canonical
// payload regardless of input order.
package reqbuilder

import (
	"sort"

	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/internal/cborwire"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
	"github.com/samsirohi11/coreconf/valuecodec"
)

// Registry is the SidIndex lookup surface reqbuilder needs; it is what
// treecodec already requires plus the path->sid resolution used to turn
// JSON values into typed nodes.
type Registry interface {
	treecodec.PathRegistry
}

var _ Registry = (*sidindex.SidIndex)(nil)

// BuildFetch encodes sids as a CBOR array of signed deltas relative to 0.
// The input is sorted ascending first and deduplicated, so the emitted
// deltas are all positive and the payload is canonical.
func BuildFetch(sids []uint64) []byte {
	sorted := append([]uint64(nil), sids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	dedup := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		dedup = append(dedup, s)
	}

	buf := cborwire.ArrayHeader(len(dedup))
	cur := int64(0)
	for _, sid := range dedup {
		buf = appendSignedDelta(buf, int64(sid)-cur)
		cur = int64(sid)
	}
	return buf
}

// PatchOp is one iPATCH entry before encoding: a deletion (Value nil,
// Delete true) or a set carrying a JSON-shaped value for the leaf,
// container, or list the SID names.
type PatchOp struct {
	SID    uint64
	Delete bool
	Value  interface{}
}

// Set builds a PatchOp writing value at sid.
func Set(sid uint64, value interface{}) PatchOp {
	return PatchOp{SID: sid, Value: value}
}

// Delete builds a PatchOp removing the node at sid.
func Delete(sid uint64) PatchOp {
	return PatchOp{SID: sid, Delete: true}
}

// BuildIPatch encodes ops as the iPATCH body: a CBOR map of sid ->
// value-or-null, keys delta-encoded from 0 after sorting by ascending
// SID. A duplicate SID in ops is an error, since a canonical map cannot
// carry the same key twice.
func BuildIPatch(reg Registry, ops []PatchOp) ([]byte, error) {
	return BuildIPatchAt(reg, 0, ops)
}

// BuildIPatchAt is BuildIPatch with an explicit baseline, for a request
// whose URI path targets a non-root instance-identifier: deltas are then
// relative to the targeted container's (or owning list's) SID.
func BuildIPatchAt(reg Registry, baseline uint64, ops []PatchOp) ([]byte, error) {
	sorted := append([]PatchOp(nil), ops...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SID < sorted[j].SID })

	entries := make([]treecodec.PatchEntry, 0, len(sorted))
	for i, op := range sorted {
		if i > 0 && op.SID == sorted[i-1].SID {
			return nil, coreerr.WithSID(coreerr.DuplicateSidInMap, op.SID, "reqbuilder: duplicate sid in patch")
		}
		if op.Delete {
			entries = append(entries, treecodec.PatchEntry{SID: op.SID, Delete: true})
			continue
		}
		item, ok := reg.PathOf(op.SID)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, op.SID, "reqbuilder: sid not in schema")
		}
		node, err := treecodec.JSONToNode(reg, item, item.Path, op.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, treecodec.PatchEntry{SID: op.SID, Node: node})
	}
	return treecodec.EncodePatchAt(reg, baseline, entries)
}

// BuildPost composes the POST body for the RPC/action identified by
// rpcSID: a delta-SID map of its input parameters, baselined at the RPC's
// own SID the way the server decodes it. inputs maps each input leaf's
// SID to its JSON-shaped value; a nil/empty inputs yields an empty body.
func BuildPost(reg Registry, rpcSID uint64, inputs map[uint64]interface{}) ([]byte, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	tree := make(map[uint64]*treecodec.Node, len(inputs))
	for sid, val := range inputs {
		item, ok := reg.PathOf(sid)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "reqbuilder: input sid not in schema")
		}
		node, err := treecodec.JSONToNode(reg, item, item.Path, val)
		if err != nil {
			return nil, err
		}
		tree[sid] = node
	}
	return treecodec.EncodeAt(reg, rpcSID, tree)
}

// NewRequest wraps a built payload in the abstract request the transport
// adapter serializes: method, the /c-prefixed URI path for target (the
// textual instance identifier, "" for the datastore root), and the
// CORECONF Content-Format when a body is present.
func NewRequest(method coapmsg.Method, target string, payload []byte) coapmsg.Request {
	req := coapmsg.Request{Method: method, UriPath: []string{"c"}, Payload: payload}
	req.UriPath = append(req.UriPath, splitTarget(target)...)
	if len(payload) > 0 {
		req.ContentFormat = coapmsg.ContentFormatYANGDataCBOR
		req.Options = append(req.Options, coapmsg.Option{Number: coapmsg.OptionContentFormat, Value: []byte{coapmsg.ContentFormatYANGDataCBOR}})
	}
	return req
}

func splitTarget(target string) []string {
	if target == "" {
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i <= len(target); i++ {
		if i == len(target) || target[i] == '/' {
			if i > start {
				segs = append(segs, target[start:i])
			}
			start = i + 1
		}
	}
	return segs
}

func appendSignedDelta(buf []byte, delta int64) []byte {
	if delta >= 0 {
		return cborwire.EncodeHead(buf, cborwire.MajorUnsigned, uint64(delta))
	}
	return cborwire.EncodeHead(buf, cborwire.MajorNegative, uint64(-delta-1))
}

// EncodeValue converts one JSON scalar to its wire form per sid's type
// hint, for callers assembling key predicates or single-leaf bodies by
// hand.
func EncodeValue(reg Registry, sid uint64, jv interface{}) ([]byte, error) {
	item, ok := reg.PathOf(sid)
	if !ok {
		return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "reqbuilder: sid not in schema")
	}
	v, err := valuecodec.FromJSON(reg, item.Hint, jv)
	if err != nil {
		return nil, err
	}
	return valuecodec.EncodeCBOR(reg, item.Hint, v)
}

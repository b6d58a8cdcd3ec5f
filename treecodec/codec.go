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
	"bytes"
	"sort"

	"github.com/samsirohi11/coreconf/internal/cborwire"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/valuecodec"
)

// Registry is the SidIndex lookup surface treecodec needs: path/type
// resolution, list-key declarations, and child enumeration (the last is
// what lets a schema-driven decoder tell where one container's children
// end, since the wire itself carries no structural tags).
type Registry interface {
	valuecodec.Registry
	PathOf(sid uint64) (sidindex.Item, bool)
	ChildrenOf(parent uint64) []uint64
	ListKeys(listSID uint64) []uint64
}

var _ Registry = (*sidindex.SidIndex)(nil)

// Encode serializes tree as a single CBOR map item, keys delta-encoded
// against the baseline 0 and emitted in ascending absolute SID order.
// tree is used both for a full-datastore GET/iPATCH body and for a FETCH
// response keyed by the fetched SIDs directly.
func Encode(reg Registry, tree map[uint64]*Node) ([]byte, error) {
	return EncodeAt(reg, 0, tree)
}

// EncodeAt is Encode with an explicit baseline, used by reqhandler when a
// request targets a non-root instance-identifier: the response body's
// first key is then delta-encoded against the target subtree's own SID
// rather than against 0.
func EncodeAt(reg Registry, baseline uint64, tree map[uint64]*Node) ([]byte, error) {
	return encodeMap(reg, int64(baseline), tree)
}

// Decode parses data, a single CBOR map item, back into a SID-keyed tree,
// baselined at 0.
func Decode(reg Registry, data []byte) (map[uint64]*Node, error) {
	return DecodeAt(reg, 0, data)
}

// DecodeAt is Decode with an explicit baseline, the decode-side mirror of
// EncodeAt for a request body targeting a non-root instance-identifier.
func DecodeAt(reg Registry, baseline uint64, data []byte) (map[uint64]*Node, error) {
	d := &decoder{data: data}
	tree, err := decodeMap(d, reg, int64(baseline))
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, coreerr.New(coreerr.MalformedCbor, "treecodec: %d trailing bytes after top-level map", len(d.data)-d.pos)
	}
	return tree, nil
}

func encodeMap(reg Registry, baseline int64, nodes map[uint64]*Node) ([]byte, error) {
	sids := make([]uint64, 0, len(nodes))
	for sid := range nodes {
		sids = append(sids, sid)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })

	buf := cborwire.MapHeader(len(sids))
	cur := baseline
	for _, sid := range sids {
		delta := int64(sid) - cur
		buf = encodeSignedInt(buf, delta)
		cur = int64(sid)

		valBytes, err := encodeNodeValue(reg, sid, cur, nodes[sid])
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	return buf, nil
}

func encodeNodeValue(reg Registry, sid uint64, baseline int64, n *Node) ([]byte, error) {
	item, ok := reg.PathOf(sid)
	if !ok {
		return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "treecodec: encoding unknown sid")
	}

	switch n.Kind {
	case KindContainer:
		if item.Hint != sidindex.HintNone && item.Hint != sidindex.HintContainer {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema does not mark sid %d as a container", sid)
		}
		return encodeMap(reg, baseline, n.Children)

	case KindList:
		if item.Hint != sidindex.HintList {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema does not mark sid %d as a list", sid)
		}
		if err := checkEntryKeys(reg, sid, n.Entries); err != nil {
			return nil, err
		}
		buf := cborwire.ArrayHeader(len(n.Entries))
		for _, entry := range n.Entries {
			entryBytes, err := encodeMap(reg, baseline, entry)
			if err != nil {
				return nil, err
			}
			buf = append(buf, entryBytes...)
		}
		return buf, nil

	case KindLeafList:
		if item.Hint != sidindex.HintLeafList {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema does not mark sid %d as a leaf-list", sid)
		}
		buf := cborwire.ArrayHeader(len(n.Values))
		for _, v := range n.Values {
			vb, err := valuecodec.EncodeCBOR(reg, sidindex.HintNone, v)
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		return buf, nil

	default: // KindLeaf
		if item.Hint.IsStructural() {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema marks sid %d as structural, got a leaf value", sid)
		}
		return valuecodec.EncodeCBOR(reg, item.Hint, n.Value)
	}
}

func checkEntryKeys(reg Registry, listSID uint64, entries []map[uint64]*Node) error {
	keys := reg.ListKeys(listSID)
	if len(keys) == 0 {
		return nil
	}
	for _, entry := range entries {
		for _, k := range keys {
			if _, ok := entry[k]; !ok {
				return coreerr.WithSID(coreerr.KeyMissing, k, "treecodec: list entry missing key leaf")
			}
		}
	}
	return nil
}

// decoder walks data left to right, tracking the read position so nested
// recursive-descent calls (map within map, map within list entry) share
// one cursor instead of re-slicing at every level.
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readHead() (cborwire.Head, error) {
	r := bytes.NewReader(d.data[d.pos:])
	before := r.Len()
	head, err := cborwire.ReadHead(r)
	if err != nil {
		return cborwire.Head{}, coreerr.New(coreerr.MalformedCbor, "treecodec: %v", err)
	}
	d.pos += before - r.Len()
	return head, nil
}

func (d *decoder) readRawItem() ([]byte, error) {
	n, err := cborwire.ItemLength(d.data[d.pos:])
	if err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "treecodec: %v", err)
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func decodeMap(d *decoder, reg Registry, baseline int64) (map[uint64]*Node, error) {
	head, err := d.readHead()
	if err != nil {
		return nil, err
	}
	if head.Major != cborwire.MajorMap {
		return nil, coreerr.New(coreerr.TypeMismatch, "treecodec: expected a map, got major type %d", head.Major)
	}

	out := make(map[uint64]*Node, head.Argument)
	cur := baseline
	for i := uint64(0); i < head.Argument; i++ {
		deltaHead, err := d.readHead()
		if err != nil {
			return nil, err
		}
		var delta int64
		switch deltaHead.Major {
		case cborwire.MajorUnsigned:
			delta = int64(deltaHead.Argument)
		case cborwire.MajorNegative:
			delta = -1 - int64(deltaHead.Argument)
		default:
			return nil, coreerr.New(coreerr.MalformedCbor, "treecodec: expected signed integer key, got major type %d", deltaHead.Major)
		}
		if i > 0 && delta <= 0 {
			return nil, coreerr.New(coreerr.DuplicateSidInMap, "treecodec: non-positive delta %d after the first key", delta)
		}
		cur += delta
		if cur < 0 {
			return nil, coreerr.New(coreerr.MalformedCbor, "treecodec: cumulative sid went negative")
		}
		sid := uint64(cur)

		item, ok := reg.PathOf(sid)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, sid, "treecodec: sid not in schema")
		}

		node, err := decodeNodeValue(d, reg, item, sid, cur)
		if err != nil {
			return nil, err
		}
		out[sid] = node
	}
	return out, nil
}

func decodeNodeValue(d *decoder, reg Registry, item sidindex.Item, sid uint64, baseline int64) (*Node, error) {
	hint := item.Hint
	if hint == sidindex.HintNone && len(reg.ChildrenOf(sid)) > 0 {
		// The .sid document carried no type for this item, but it has
		// child assignments, so it can only be an interior node.
		hint = sidindex.HintContainer
	}
	switch hint {
	case sidindex.HintContainer:
		children, err := decodeMap(d, reg, baseline)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindContainer, Children: children}, nil

	case sidindex.HintList:
		head, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if head.Major != cborwire.MajorArray {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema says sid %d is a list, wire gives a non-array", sid)
		}
		entries := make([]map[uint64]*Node, 0, head.Argument)
		for i := uint64(0); i < head.Argument; i++ {
			entry, err := decodeMap(d, reg, baseline)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
		if err := checkEntryKeys(reg, sid, entries); err != nil {
			return nil, err
		}
		return &Node{Kind: KindList, Entries: entries}, nil

	case sidindex.HintLeafList:
		head, err := d.readHead()
		if err != nil {
			return nil, err
		}
		if head.Major != cborwire.MajorArray {
			return nil, coreerr.WithSID(coreerr.TypeMismatch, sid, "treecodec: schema says sid %d is a leaf-list, wire gives a non-array", sid)
		}
		values := make([]valuecodec.Value, 0, head.Argument)
		for i := uint64(0); i < head.Argument; i++ {
			raw, err := d.readRawItem()
			if err != nil {
				return nil, err
			}
			v, err := valuecodec.DecodeCBOR(reg, sidindex.HintNone, raw)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &Node{Kind: KindLeafList, Values: values}, nil

	default:
		raw, err := d.readRawItem()
		if err != nil {
			return nil, err
		}
		v, err := valuecodec.DecodeCBOR(reg, item.Hint, raw)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindLeaf, Value: v}, nil
	}
}

func encodeSignedInt(buf []byte, v int64) []byte {
	if v >= 0 {
		return cborwire.EncodeHead(buf, cborwire.MajorUnsigned, uint64(v))
	}
	return cborwire.EncodeHead(buf, cborwire.MajorNegative, uint64(-v-1))
}

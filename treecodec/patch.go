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

	"github.com/samsirohi11/coreconf/internal/cborwire"
	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// cborNull is the RFC 8949 §3.3 simple-value argument for null, the wire
// spelling of an iPATCH entry that deletes rather than sets.
const cborNull = 22

// PatchEntry is one decoded iPATCH map entry, in wire order: either a
// deletion (Delete true, Node nil) or a set carrying the decoded value.
type PatchEntry struct {
	SID    uint64
	Delete bool
	Node   *Node
}

// DecodePatchAt parses data, a single CBOR map of sid -> value-or-null
// delta-encoded against baseline, into the ordered PatchEntry sequence
// RequestHandler applies one at a time. Preserving wire order is what lets
// the handler report the first failing SID on rollback.
func DecodePatchAt(reg Registry, baseline uint64, data []byte) ([]PatchEntry, error) {
	d := &decoder{data: data}
	entries, err := decodePatchMap(d, reg, int64(baseline))
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, coreerr.New(coreerr.MalformedCbor, "treecodec: %d trailing bytes after patch map", len(d.data)-d.pos)
	}
	return entries, nil
}

func decodePatchMap(d *decoder, reg Registry, baseline int64) ([]PatchEntry, error) {
	head, err := d.readHead()
	if err != nil {
		return nil, err
	}
	if head.Major != cborwire.MajorMap {
		return nil, coreerr.New(coreerr.TypeMismatch, "treecodec: expected a patch map, got major type %d", head.Major)
	}

	out := make([]PatchEntry, 0, head.Argument)
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

		isNull, consumed, err := d.peekNull()
		if err != nil {
			return nil, err
		}
		if isNull {
			d.pos += consumed
			out = append(out, PatchEntry{SID: sid, Delete: true})
			continue
		}

		node, err := decodeNodeValue(d, reg, item, sid, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, PatchEntry{SID: sid, Node: node})
	}
	return out, nil
}

// peekNull reports whether the next item in d is a CBOR null, without
// consuming it on a negative answer; consumed is the null's encoded
// length (always one byte) when isNull is true.
func (d *decoder) peekNull() (isNull bool, consumed int, err error) {
	r := bytes.NewReader(d.data[d.pos:])
	before := r.Len()
	head, err := cborwire.ReadHead(r)
	if err != nil {
		return false, 0, coreerr.New(coreerr.MalformedCbor, "treecodec: %v", err)
	}
	if head.Major == cborwire.MajorSimple && head.Argument == cborNull {
		return true, before - r.Len(), nil
	}
	return false, 0, nil
}

// EncodePatchAt is DecodePatchAt's inverse, used by reqbuilder to compose
// an iPATCH request body. Unlike EncodeAt, entries are serialized in the
// order given rather than re-sorted; reqbuilder sorts its inputs by
// ascending SID before calling this.
func EncodePatchAt(reg Registry, baseline uint64, entries []PatchEntry) ([]byte, error) {
	buf := cborwire.MapHeader(len(entries))
	cur := int64(baseline)
	for _, e := range entries {
		delta := int64(e.SID) - cur
		buf = encodeSignedInt(buf, delta)
		cur = int64(e.SID)

		if e.Delete {
			buf = cborwire.EncodeHead(buf, cborwire.MajorSimple, cborNull)
			continue
		}
		valBytes, err := encodeNodeValue(reg, e.SID, cur, e.Node)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	return buf, nil
}

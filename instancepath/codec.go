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

package instancepath

import (
	"bytes"

	"github.com/samsirohi11/coreconf/internal/cborwire"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/valuecodec"
)

// Registry is the lookup surface InstancePathCodec needs from the
// SidIndex: the path/type metadata for the cumulative SID at each step
// plus its list-key declaration, if any.
type Registry interface {
	valuecodec.Registry
	PathOf(sid uint64) (sidindex.Item, bool)
	ListKeys(listSID uint64) []uint64
}

var _ Registry = (*sidindex.SidIndex)(nil)

// MaxDepth bounds the number of elements Decode accepts in one encoded
// path, so a hostile sequence of tiny deltas cannot force unbounded
// element allocation.
const MaxDepth = 64

// Encode serializes p as a CBOR sequence of signed SID deltas, each
// followed by its key predicate's encoded value when the element is a
// key. The first element's delta is relative to 0. An empty path encodes
// as the empty byte slice, addressing the datastore root.
func Encode(reg Registry, p InstancePath) ([]byte, error) {
	var buf []byte
	cur := int64(0)
	for _, el := range p.Elements {
		delta := int64(el.SID) - cur
		buf = encodeSignedDelta(buf, delta)
		cur = int64(el.SID)

		if !el.Key {
			continue
		}
		item, ok := reg.PathOf(el.SID)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, el.SID, "instancepath: encoding key predicate for unknown sid")
		}
		valBytes, err := valuecodec.EncodeCBOR(reg, item.Hint, el.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	return buf, nil
}

// Decode parses the CBOR sequence data back into an InstancePath,
// consulting reg to resolve each cumulative SID and to know how many
// key predicates follow a list step and which SIDs they occupy. An empty
// data slice decodes to the empty (root) path.
func Decode(reg Registry, data []byte) (InstancePath, error) {
	var out InstancePath
	cur := int64(0)
	var pendingKeys []uint64
	offset := 0

	for offset < len(data) {
		if len(out.Elements) >= MaxDepth {
			return InstancePath{}, coreerr.New(coreerr.PathInvalid, "instancepath: path deeper than %d elements", MaxDepth)
		}
		r := bytes.NewReader(data[offset:])
		before := r.Len()
		head, err := cborwire.ReadHead(r)
		if err != nil {
			return InstancePath{}, coreerr.New(coreerr.MalformedCbor, "instancepath: reading delta: %v", err)
		}
		consumed := before - r.Len()

		var delta int64
		switch head.Major {
		case cborwire.MajorUnsigned:
			delta = int64(head.Argument)
		case cborwire.MajorNegative:
			delta = -1 - int64(head.Argument)
		default:
			return InstancePath{}, coreerr.New(coreerr.MalformedCbor,
				"instancepath: expected signed integer delta, got major type %d", head.Major)
		}
		offset += consumed
		cur += delta
		if cur < 0 {
			return InstancePath{}, coreerr.New(coreerr.UnknownSid, "instancepath: cumulative sid went negative")
		}
		sid := uint64(cur)

		item, ok := reg.PathOf(sid)
		if !ok {
			return InstancePath{}, coreerr.WithSID(coreerr.UnknownSid, sid, "instancepath: sid not in schema")
		}

		el := PathElement{SID: sid}
		if len(pendingKeys) > 0 {
			if pendingKeys[0] != sid {
				return InstancePath{}, coreerr.WithSID(coreerr.TypeMismatch, sid,
					"instancepath: expected key sid %d next, got %d", pendingKeys[0], sid)
			}
			pendingKeys = pendingKeys[1:]

			n, err := cborwire.ItemLength(data[offset:])
			if err != nil {
				return InstancePath{}, coreerr.New(coreerr.MalformedCbor, "instancepath: reading key value: %v", err)
			}
			v, err := valuecodec.DecodeCBOR(reg, item.Hint, data[offset:offset+n])
			if err != nil {
				return InstancePath{}, err
			}
			offset += n
			el.Key = true
			el.Value = v
		} else if item.Hint == sidindex.HintList {
			pendingKeys = append([]uint64(nil), reg.ListKeys(sid)...)
		}

		out.Elements = append(out.Elements, el)
	}

	// Outstanding pendingKeys here means the path ends on the list step
	// itself, selecting the whole list; descending below a list without
	// its keys is rejected inline above.
	return out, nil
}

func encodeSignedDelta(buf []byte, delta int64) []byte {
	if delta >= 0 {
		return cborwire.EncodeHead(buf, cborwire.MajorUnsigned, uint64(delta))
	}
	return cborwire.EncodeHead(buf, cborwire.MajorNegative, uint64(-delta-1))
}

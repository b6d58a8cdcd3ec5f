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

// Package cborwire implements just enough of the RFC 8949 major-type head
// encoding to let treecodec and instancepath build and walk CBOR maps and
// arrays in an exact, caller-chosen item order.
//
// github.com/fxamacker/cbor/v2 (used everywhere else in this module for
// scalar marshaling) is deliberately not used for the map/array framing
// itself: its canonical mode sorts map keys by encoded byte value, which
// would scramble the signed SID deltas this format depends on being
// emitted in schema-walk order rather than sorted-by-magnitude order. See
// DESIGN.md for the fuller rationale.
package cborwire

import (
	"bytes"
	"fmt"
)

// Major types per RFC 8949 §3.
const (
	MajorUnsigned = 0
	MajorNegative = 1
	MajorBytes    = 2
	MajorText     = 3
	MajorArray    = 4
	MajorMap      = 5
	MajorTag      = 6
	MajorSimple   = 7
)

// Head is a decoded major-type head: the major type and its argument
// (item count for array/map, length for bytes/text, value for
// unsigned/negative, tag number for tag).
type Head struct {
	Major      byte
	Argument   uint64
	Indefinite bool
}

// EncodeHead appends the RFC 8949 head encoding of (major, argument) to
// buf and returns the result.
func EncodeHead(buf []byte, major byte, argument uint64) []byte {
	first := major << 5
	switch {
	case argument < 24:
		return append(buf, first|byte(argument))
	case argument <= 0xff:
		return append(buf, first|24, byte(argument))
	case argument <= 0xffff:
		return append(buf, first|25, byte(argument>>8), byte(argument))
	case argument <= 0xffffffff:
		return append(buf, first|26,
			byte(argument>>24), byte(argument>>16), byte(argument>>8), byte(argument))
	default:
		return append(buf, first|27,
			byte(argument>>56), byte(argument>>48), byte(argument>>40), byte(argument>>32),
			byte(argument>>24), byte(argument>>16), byte(argument>>8), byte(argument))
	}
}

// MapHeader returns the encoded head for a definite-length map of n
// key/value pairs.
func MapHeader(n int) []byte {
	return EncodeHead(nil, MajorMap, uint64(n))
}

// ArrayHeader returns the encoded head for a definite-length array of n
// items.
func ArrayHeader(n int) []byte {
	return EncodeHead(nil, MajorArray, uint64(n))
}

// ReadHead parses one RFC 8949 head from the front of r and returns it,
// leaving r positioned just past the head (callers derive the number of
// bytes consumed from r.Len()). Indefinite-length items (RFC
// 8949 §3.2) are reported via Head.Indefinite rather than an argument;
// this module never emits them and treats decoding one as a schema
// violation the caller should reject.
func ReadHead(r *bytes.Reader) (Head, error) {
	first, err := r.ReadByte()
	if err != nil {
		return Head{}, fmt.Errorf("cborwire: read head: %w", err)
	}
	major := first >> 5
	info := first & 0x1f

	switch {
	case info < 24:
		return Head{Major: major, Argument: uint64(info)}, nil
	case info == 24:
		b, err := readN(r, 1)
		if err != nil {
			return Head{}, err
		}
		return Head{Major: major, Argument: uint64(b[0])}, nil
	case info == 25:
		b, err := readN(r, 2)
		if err != nil {
			return Head{}, err
		}
		return Head{Major: major, Argument: uint64(b[0])<<8 | uint64(b[1])}, nil
	case info == 26:
		b, err := readN(r, 4)
		if err != nil {
			return Head{}, err
		}
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return Head{Major: major, Argument: v}, nil
	case info == 27:
		b, err := readN(r, 8)
		if err != nil {
			return Head{}, err
		}
		var v uint64
		for _, c := range b {
			v = v<<8 | uint64(c)
		}
		return Head{Major: major, Argument: v}, nil
	case info == 31 && (major == MajorBytes || major == MajorText || major == MajorArray || major == MajorMap):
		return Head{Major: major, Indefinite: true}, nil
	default:
		return Head{}, fmt.Errorf("cborwire: reserved additional info %d for major type %d", info, major)
	}
}

func readN(r *bytes.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return nil, fmt.Errorf("cborwire: short head: %w", err)
	}
	return b, nil
}

// ItemLength returns the total encoded length, in bytes, of the single
// top-level CBOR data item at the front of data, without fully decoding
// it. It is used to split a raw map's value bytes from the bytes of
// whatever follows.
func ItemLength(data []byte) (int, error) {
	r := bytes.NewReader(data)
	start := r.Len()
	head, err := ReadHead(r)
	if err != nil {
		return 0, err
	}
	if head.Indefinite {
		return 0, fmt.Errorf("cborwire: indefinite-length items are not supported")
	}
	consumed := start - r.Len()

	switch head.Major {
	case MajorUnsigned, MajorNegative:
		return consumed, nil
	case MajorBytes, MajorText:
		return consumed + int(head.Argument), nil
	case MajorArray:
		total := consumed
		for i := uint64(0); i < head.Argument; i++ {
			n, err := ItemLength(data[total:])
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case MajorMap:
		total := consumed
		for i := uint64(0); i < head.Argument*2; i++ {
			n, err := ItemLength(data[total:])
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case MajorTag:
		n, err := ItemLength(data[consumed:])
		if err != nil {
			return 0, err
		}
		return consumed + n, nil
	case MajorSimple:
		return consumed, nil
	default:
		return 0, fmt.Errorf("cborwire: unknown major type %d", head.Major)
	}
}

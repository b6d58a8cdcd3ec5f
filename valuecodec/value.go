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

// Package valuecodec converts scalar leaf values between their JSON
// representation and their CBOR wire representation, consulting the
// SidIndex type hint for the leaf being converted.
//
// Scalar CBOR marshaling itself is delegated to
// github.com/fxamacker/cbor/v2 throughout; valuecodec's own code is the
// type-hint dispatch and the JSON-side shape conversions (base64,
// decimal-string, bit-name lists) that hint requires.
package valuecodec

import (
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
)

// Value is the canonical in-memory form of one decoded scalar leaf. It is
// always one of: nil, bool, int64, uint64, float64, string, []byte, or
// BitsBitmap. An untyped sum via interface{} plus a type switch keeps the
// dispatch reflection-free; there are no Go structs here to reflect over,
// only wire scalars.
type Value interface{}

// Registry groups the SidIndex and index-derived identity tables a
// codec pass needs; it is just the SidIndex today but gives FromJSON,
// EncodeCBOR and DecodeCBOR a stable signature if more lookup state is
// ever required.
type Registry interface {
	IdentitySID(name string) (uint64, bool)
	IdentityName(sid uint64) (string, bool)
}

var _ Registry = (*sidindex.SidIndex)(nil)

// FromJSON converts jv, a scalar as produced by encoding/json (using
// json.Number for numbers to avoid precision loss; bool; string; or nil),
// into the canonical Value for hint h.
func FromJSON(reg Registry, h sidindex.Hint, jv interface{}) (Value, error) {
	switch h {
	case sidindex.HintUint:
		return uintFromJSON(jv)
	case sidindex.HintInt:
		return intFromJSON(jv)
	case sidindex.HintDecimal64:
		return decimalFromJSON(jv)
	case sidindex.HintBoolean:
		return boolFromJSON(jv)
	case sidindex.HintString:
		return stringFromJSON(jv)
	case sidindex.HintBinary:
		return binaryFromJSON(jv)
	case sidindex.HintEnum, sidindex.HintIdentityref:
		return enumFromJSON(jv)
	case sidindex.HintBits:
		return bitsFromJSON(jv)
	case sidindex.HintEmpty:
		return emptyFromJSON(jv)
	case sidindex.HintUnion, sidindex.HintNone:
		return passthroughFromJSON(jv)
	case sidindex.HintInstanceIdentifier:
		return nil, coreerr.New(coreerr.Internal,
			"instance-identifier leaves are encoded by treecodec via the instancepath package, not valuecodec")
	default:
		return passthroughFromJSON(jv)
	}
}

// ToJSON converts a canonical Value back to a JSON-native scalar ready
// for encoding/json.Marshal.
func ToJSON(h sidindex.Hint, v Value) interface{} {
	switch h {
	case sidindex.HintBinary:
		return binaryToJSON(v)
	case sidindex.HintDecimal64:
		return decimalToJSON(v)
	default:
		return v
	}
}

// EncodeCBOR marshals v, already typed per h, to a single CBOR data item.
// reg resolves the enum/identityref integer short form; it may be nil for
// every other hint.
func EncodeCBOR(reg Registry, h sidindex.Hint, v Value) ([]byte, error) {
	switch h {
	case sidindex.HintDecimal64:
		return encodeDecimalCBOR(v)
	case sidindex.HintBinary:
		return encodeBinaryCBOR(v)
	case sidindex.HintEmpty:
		return encodeEmptyCBOR()
	case sidindex.HintBits:
		return encodeBitsCBOR(v)
	case sidindex.HintEnum, sidindex.HintIdentityref:
		return encodeEnumCBOR(reg, v)
	default:
		return encodeScalarCBOR(v)
	}
}

// DecodeCBOR unmarshals one complete CBOR data item (data must contain
// exactly that item's bytes, as sliced by cborwire.ItemLength) into a
// canonical Value, per h. reg resolves the enum/identityref integer short
// form; it may be nil for every other hint.
func DecodeCBOR(reg Registry, h sidindex.Hint, data []byte) (Value, error) {
	switch h {
	case sidindex.HintDecimal64:
		return decodeDecimalCBOR(data)
	case sidindex.HintBinary:
		return decodeBinaryCBOR(data)
	case sidindex.HintEmpty:
		return decodeEmptyCBOR(data)
	case sidindex.HintBits:
		return decodeBitsCBOR(data)
	case sidindex.HintUint:
		return decodeUintCBOR(data)
	case sidindex.HintInt:
		return decodeIntCBOR(data)
	case sidindex.HintBoolean:
		return decodeBoolCBOR(data)
	case sidindex.HintEnum, sidindex.HintIdentityref:
		return decodeEnumCBOR(reg, data)
	default:
		return decodeScalarCBOR(data)
	}
}

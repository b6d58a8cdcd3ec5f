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

package valuecodec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// uint and int leaves map to CBOR unsigned/negative integers, width
// determined by magnitude. Signed and unsigned get separate entry points
// rather than one function branching on a sign flag.

func uintFromJSON(jv interface{}) (Value, error) {
	switch v := jv.(type) {
	case json.Number:
		u, err := v.Int64()
		if err != nil || u < 0 {
			return nil, coreerr.New(coreerr.TypeMismatch, "value %q is not a non-negative integer", v)
		}
		return uint64(u), nil
	case float64:
		if v < 0 {
			return nil, coreerr.New(coreerr.TypeMismatch, "value %v is not a non-negative integer", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return nil, coreerr.New(coreerr.TypeMismatch, "value %v is not a non-negative integer", v)
		}
		return uint64(v), nil
	default:
		return nil, coreerr.New(coreerr.TypeMismatch, "expected uint, got %T", jv)
	}
}

func intFromJSON(jv interface{}) (Value, error) {
	switch v := jv.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, coreerr.New(coreerr.TypeMismatch, "value %q is not an integer", v)
		}
		return i, nil
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	default:
		return nil, coreerr.New(coreerr.TypeMismatch, "expected int, got %T", jv)
	}
}

func decodeUintCBOR(data []byte) (Value, error) {
	var u uint64
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding uint: %v", err)
	}
	return u, nil
}

func decodeIntCBOR(data []byte) (Value, error) {
	var i int64
	if err := cbor.Unmarshal(data, &i); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding int: %v", err)
	}
	return i, nil
}

func boolFromJSON(jv interface{}) (Value, error) {
	b, ok := jv.(bool)
	if !ok {
		return nil, coreerr.New(coreerr.TypeMismatch, "expected boolean, got %T", jv)
	}
	return b, nil
}

func decodeBoolCBOR(data []byte) (Value, error) {
	var b bool
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding boolean: %v", err)
	}
	return b, nil
}

func stringFromJSON(jv interface{}) (Value, error) {
	s, ok := jv.(string)
	if !ok {
		return nil, coreerr.New(coreerr.TypeMismatch, "expected string, got %T", jv)
	}
	return s, nil
}

// encodeScalarCBOR marshals a Value already in canonical form (bool,
// int64, uint64, float64, string) directly via fxamacker/cbor. No
// per-hint special-casing is needed here: the major type the wire uses
// falls straight out of the Go type.
func encodeScalarCBOR(v Value) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, coreerr.New(coreerr.Internal, "encoding scalar %v (%T): %v", v, v, err)
	}
	return b, nil
}

func decodeScalarCBOR(data []byte) (Value, error) {
	var v interface{}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, coreerr.New(coreerr.Internal, "building CBOR decode mode: %v", err)
	}
	if err := dm.Unmarshal(data, &v); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding scalar: %v", err)
	}
	return normalizeScalar(v), nil
}

// normalizeScalar passes the canonical scalar types (uint64, int64, bool,
// string, float64, nil) through unchanged and renders any other type
// fxamacker/cbor may produce (a byte string, a tag, a big integer, ...)
// as its fmt %v text.
func normalizeScalar(v interface{}) Value {
	switch t := v.(type) {
	case uint64, int64, bool, string, float64, nil:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

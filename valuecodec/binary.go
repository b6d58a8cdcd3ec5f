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
	"encoding/base64"

	"github.com/fxamacker/cbor/v2"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// binary leaves are base64 text in JSON (there is no JSON byte-string
// type) and a CBOR byte string on the wire. The canonical Value is the
// bare []byte; there is no generated struct field to attach a named
// wrapper type to.

func binaryFromJSON(jv interface{}) (Value, error) {
	if b, ok := jv.([]byte); ok {
		return b, nil
	}
	s, ok := jv.(string)
	if !ok {
		return nil, coreerr.New(coreerr.TypeMismatch, "expected binary as base64 JSON string, got %T", jv)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, coreerr.New(coreerr.TypeMismatch, "invalid base64 for binary leaf: %v", err)
	}
	return b, nil
}

func binaryToJSON(v Value) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	return base64.StdEncoding.EncodeToString(b)
}

func encodeBinaryCBOR(v Value) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, coreerr.New(coreerr.Internal, "binary Value must be []byte, got %T", v)
	}
	out, err := cbor.Marshal(b)
	if err != nil {
		return nil, coreerr.New(coreerr.Internal, "encoding binary: %v", err)
	}
	return out, nil
}

func decodeBinaryCBOR(data []byte) (Value, error) {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding binary: %v", err)
	}
	return b, nil
}

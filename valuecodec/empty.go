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
	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// An empty leaf carries no value: CBOR null on the wire, nil in the
// canonical Value. RFC 7951 spells it as the one-element array [null] in
// JSON, so both that form and a bare null are accepted on input.

func emptyFromJSON(jv interface{}) (Value, error) {
	switch v := jv.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		if len(v) == 1 && v[0] == nil {
			return nil, nil
		}
	}
	return nil, coreerr.New(coreerr.TypeMismatch, "expected empty leaf as null or [null], got %T", jv)
}

func encodeEmptyCBOR() ([]byte, error) {
	// Simple value 22 (null), always the single byte 0xf6.
	return []byte{0xf6}, nil
}

func decodeEmptyCBOR(data []byte) (Value, error) {
	if len(data) == 1 && data[0] == 0xf6 {
		return nil, nil
	}
	return nil, coreerr.New(coreerr.TypeMismatch, "empty leaf must be CBOR null, got % x", data)
}

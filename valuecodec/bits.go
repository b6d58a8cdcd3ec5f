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
	"github.com/fxamacker/cbor/v2"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// BitsBitmap is the canonical Value used for a bits leaf that arrived on
// the wire as an integer bitmap instead of the space-separated bit-name
// text form. Bit position to name mapping is schema metadata the .sid
// item format does not carry, so a bitmap round-trips as an opaque
// integer rather than being expanded back to names; the text form is the
// normal, name-preserving path and is preferred whenever the caller has
// it.
type BitsBitmap uint64

func bitsFromJSON(jv interface{}) (Value, error) {
	switch v := jv.(type) {
	case string:
		return v, nil
	case BitsBitmap:
		return v, nil
	default:
		return nil, coreerr.New(coreerr.TypeMismatch, "expected bits as space-separated JSON string, got %T", jv)
	}
}

func encodeBitsCBOR(v Value) ([]byte, error) {
	switch t := v.(type) {
	case string:
		b, err := cbor.Marshal(t)
		if err != nil {
			return nil, coreerr.New(coreerr.Internal, "encoding bits text: %v", err)
		}
		return b, nil
	case BitsBitmap:
		b, err := cbor.Marshal(uint64(t))
		if err != nil {
			return nil, coreerr.New(coreerr.Internal, "encoding bits bitmap: %v", err)
		}
		return b, nil
	default:
		return nil, coreerr.New(coreerr.Internal, "bits Value must be string or BitsBitmap, got %T", v)
	}
}

func decodeBitsCBOR(data []byte) (Value, error) {
	var s string
	if err := cbor.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var u uint64
	if err := cbor.Unmarshal(data, &u); err == nil {
		return BitsBitmap(u), nil
	}
	return nil, coreerr.New(coreerr.MalformedCbor, "bits value is neither text nor integer bitmap")
}

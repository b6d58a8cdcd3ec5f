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

// enum and identityref leaves are always a name (string) in JSON and in
// the canonical Value. On the wire they are a CBOR text string, or, when
// the name is itself a SID-indexed identity, the shorter CBOR integer
// form naming that identity's SID.

func enumFromJSON(jv interface{}) (Value, error) {
	s, ok := jv.(string)
	if !ok {
		return nil, coreerr.New(coreerr.TypeMismatch, "expected enum/identityref as JSON string, got %T", jv)
	}
	return s, nil
}

func encodeEnumCBOR(reg Registry, v Value) ([]byte, error) {
	name, ok := v.(string)
	if !ok {
		return nil, coreerr.New(coreerr.Internal, "enum/identityref Value must be string, got %T", v)
	}
	if reg != nil {
		if sid, ok := reg.IdentitySID(name); ok {
			b, err := cbor.Marshal(sid)
			if err != nil {
				return nil, coreerr.New(coreerr.Internal, "encoding identity short form: %v", err)
			}
			return b, nil
		}
	}
	b, err := cbor.Marshal(name)
	if err != nil {
		return nil, coreerr.New(coreerr.Internal, "encoding enum/identityref text: %v", err)
	}
	return b, nil
}

func decodeEnumCBOR(reg Registry, data []byte) (Value, error) {
	var asText string
	if err := cbor.Unmarshal(data, &asText); err == nil {
		return asText, nil
	}

	var asUint uint64
	if err := cbor.Unmarshal(data, &asUint); err == nil {
		if reg == nil {
			return nil, coreerr.WithSID(coreerr.UnknownSid, asUint,
				"enum/identityref integer short form requires an identity registry")
		}
		name, ok := reg.IdentityName(asUint)
		if !ok {
			return nil, coreerr.WithSID(coreerr.UnknownSid, asUint, "unknown identity sid")
		}
		return name, nil
	}

	return nil, coreerr.New(coreerr.MalformedCbor, "enum/identityref value is neither text nor integer")
}

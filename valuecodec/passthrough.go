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
	"strings"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// passthroughFromJSON handles leaves with no usable type hint (and union
// leaves, whose member type is not knowable from the index alone):
// integral numbers become integers, everything else keeps its JSON-native
// shape. Non-negative integers normalize to uint64 and negative ones to
// int64, matching what decodeScalarCBOR produces, so a JSON-sourced tree
// and its wire round trip compare equal.
func passthroughFromJSON(jv interface{}) (Value, error) {
	switch v := jv.(type) {
	case nil, bool, string:
		return v, nil
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if i, err := v.Int64(); err == nil {
				if i >= 0 {
					return uint64(i), nil
				}
				return i, nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return nil, coreerr.New(coreerr.TypeMismatch, "value %q is not a number", v)
		}
		return f, nil
	case float64:
		if v == float64(int64(v)) {
			if v >= 0 {
				return uint64(v), nil
			}
			return int64(v), nil
		}
		return v, nil
	case int64:
		if v >= 0 {
			return uint64(v), nil
		}
		return v, nil
	case uint64:
		return v, nil
	default:
		return nil, coreerr.New(coreerr.TypeMismatch, "unsupported scalar %T", jv)
	}
}

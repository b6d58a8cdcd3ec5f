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
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// decimal64 values round-trip through RFC 7951 JSON text ("3.14") to
// preserve the exact digit count, and through CBOR tag 4 (decimal
// fraction: a 2-element array [exponent, mantissa]) on the wire.
//
// Canonical in-memory form is the decimal text itself (a string): it is
// the one representation that never loses precision regardless of which
// wire form was used to transmit it.

func decimalFromJSON(jv interface{}) (Value, error) {
	s, ok := jv.(string)
	if !ok {
		return nil, coreerr.New(coreerr.TypeMismatch, "expected decimal64 as JSON string, got %T", jv)
	}
	if _, _, err := splitDecimal(s); err != nil {
		return nil, err
	}
	return s, nil
}

func decimalToJSON(v Value) interface{} {
	return v
}

// splitDecimal parses a decimal64 text value into (mantissa, exponent)
// such that value == mantissa * 10^exponent.
func splitDecimal(s string) (mantissa int64, exponent int, err error) {
	neg := strings.HasPrefix(s, "-")
	unsigned := strings.TrimPrefix(s, "-")

	dot := strings.IndexByte(unsigned, '.')
	digits := unsigned
	if dot >= 0 {
		digits = unsigned[:dot] + unsigned[dot+1:]
		exponent = -(len(unsigned) - dot - 1)
	}
	if digits == "" {
		return 0, 0, coreerr.New(coreerr.TypeMismatch, "%q is not a valid decimal64 value", s)
	}
	m, convErr := strconv.ParseInt(digits, 10, 64)
	if convErr != nil {
		return 0, 0, coreerr.New(coreerr.TypeMismatch, "%q does not fit a decimal64 mantissa: %v", s, convErr)
	}
	if neg {
		m = -m
	}
	return m, exponent, nil
}

// joinDecimal renders (mantissa, exponent) back to decimal text.
func joinDecimal(mantissa int64, exponent int) string {
	if exponent >= 0 {
		return fmt.Sprintf("%d%s", mantissa, strings.Repeat("0", exponent))
	}
	neg := mantissa < 0
	digits := strconv.FormatInt(abs64(mantissa), 10)
	point := -exponent
	for len(digits) <= point {
		digits = "0" + digits
	}
	whole, frac := digits[:len(digits)-point], digits[len(digits)-point:]
	if whole == "" {
		whole = "0"
	}
	s := whole + "." + frac
	if neg {
		s = "-" + s
	}
	return s
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func encodeDecimalCBOR(v Value) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, coreerr.New(coreerr.Internal, "decimal64 Value must be string, got %T", v)
	}
	mantissa, exponent, err := splitDecimal(s)
	if err != nil {
		return nil, err
	}

	tag := cbor.Tag{Number: 4, Content: []interface{}{int64(exponent), mantissa}}
	b, err := cbor.Marshal(tag)
	if err != nil {
		// Fall back to plain text for mantissas the tag-4 integer
		// array cannot represent.
		return cbor.Marshal(s)
	}
	return b, nil
}

func decodeDecimalCBOR(data []byte) (Value, error) {
	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err == nil && tag.Number == 4 {
		parts, ok := tag.Content.([]interface{})
		if !ok || len(parts) != 2 {
			return nil, coreerr.New(coreerr.MalformedCbor, "decimal64 tag 4 content must be a 2-element array")
		}
		exponent, err := asInt64(parts[0])
		if err != nil {
			return nil, coreerr.New(coreerr.MalformedCbor, "decimal64 exponent: %v", err)
		}
		mantissa, err := asInt64(parts[1])
		if err != nil {
			return nil, coreerr.New(coreerr.MalformedCbor, "decimal64 mantissa: %v", err)
		}
		return joinDecimal(mantissa, int(exponent)), nil
	}

	// Fallback text form.
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, coreerr.New(coreerr.MalformedCbor, "decoding decimal64: %v", err)
	}
	return s, nil
}

func asInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

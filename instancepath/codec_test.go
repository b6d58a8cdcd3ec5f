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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openconfig/gnmi/errdiff"

	"github.com/samsirohi11/coreconf/sidindex"
)

const schcDoc = `{
  "module-name": "ietf-schc",
  "assignment-ranges": [{"entry-point": 2500, "size": 100}],
  "items": [
    {"namespace": "data", "identifier": "/ietf-schc:schc", "sid": 2500, "type": "container"},
    {"namespace": "data", "identifier": "/ietf-schc:schc/rule", "sid": 2501, "type": "list", "key": "rule-id"},
    {"namespace": "data", "identifier": "/ietf-schc:schc/rule/rule-id", "sid": 2502, "type": "uint"},
    {"namespace": "data", "identifier": "/ietf-schc:schc/rule/target-value", "sid": 2503, "type": "string"}
  ]
}`

func mustIndex(t *testing.T) *sidindex.SidIndex {
	t.Helper()
	idx, err := sidindex.Parse(strings.NewReader(schcDoc), sidindex.Options{})
	if err != nil {
		t.Fatalf("sidindex.Parse() failed: %v", err)
	}
	return idx
}

func TestEmptyPathRoundTrip(t *testing.T) {
	idx := mustIndex(t)
	data, err := Encode(idx, InstancePath{})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("Encode(empty path) = %x, want empty", data)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(got.Elements) != 0 {
		t.Errorf("Decode(empty) = %+v, want empty path", got)
	}
}

func TestPlainPathRoundTrip(t *testing.T) {
	idx := mustIndex(t)
	p := InstancePath{Elements: []PathElement{Leaf(2500), Leaf(2501)}}

	data, err := Encode(idx, p)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyPredicateRoundTrip(t *testing.T) {
	idx := mustIndex(t)
	p := InstancePath{Elements: []PathElement{
		Leaf(2500),
		Leaf(2501),
		KeyValue(2502, uint64(7)),
	}}

	data, err := Encode(idx, p)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownSid(t *testing.T) {
	idx := mustIndex(t)
	// Delta 0 -> 9999, an unassigned sid.
	data := []byte{0x19, 0x27, 0x0f} // unsigned 9999
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "sid not in schema"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestDecodeRejectsNegativeCumulativeSid(t *testing.T) {
	idx := mustIndex(t)
	data := []byte{0x20} // negative delta -1, cur = -1
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "negative"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestDecodeRejectsMissingKey(t *testing.T) {
	idx := mustIndex(t)
	// Path: 2500, 2501 (a list) with no following key predicate.
	p := InstancePath{Elements: []PathElement{Leaf(2500), Leaf(2501)}}
	data, err := Encode(idx, p)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	_, err = Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() of a path legitimately ending at the list itself should succeed, got: %v", err)
	}

	// Truncated mid-predicate: list step present but the key's delta byte
	// is cut off entirely.
	truncated := data // 2500, 2501 with no key leaf sid/value to follow
	_, err = Decode(idx, truncated)
	// A path that legitimately stops at the list node (selecting "all
	// entries") is valid; Decode only fails when a key delta begins but is
	// cut off before its value, with a MalformedCbor "reading key value"
	// error. Construct that case explicitly.
	partial := append(append([]byte{}, truncated...), 0x01) // delta +1 -> sid 2502, no value bytes follow
	_, err = Decode(idx, partial)
	if diff := errdiff.Substring(err, "reading key value"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestEncodeEmitsNegativeDeltaWhenSidsDescend(t *testing.T) {
	idx := mustIndex(t)
	// An InstancePath is a schema walk, so SIDs normally ascend, but the
	// codec itself must still be able to emit (and accept) a negative
	// delta when a walk steps back across sibling SID ranges.
	p := InstancePath{Elements: []PathElement{Leaf(2503), Leaf(2501)}}
	data, err := Encode(idx, p)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

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

package treecodec

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openconfig/gnmi/errdiff"

	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/valuecodec"
)

const schcDoc = `{
  "module-name": "ietf-schc",
  "assignment-ranges": [{"entry-point": 2500, "size": 100}],
  "items": [
    {"identifier": "/ietf-schc:schc", "sid": 2500, "type": "container"},
    {"identifier": "/ietf-schc:schc/rule", "sid": 2501, "type": "list", "key": "rule-id"},
    {"identifier": "/ietf-schc:schc/rule/rule-id", "sid": 2502, "type": "uint"},
    {"identifier": "/ietf-schc:schc/rule/target-value", "sid": 2503, "type": "string"}
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

func schcTree() map[uint64]*Node {
	return map[uint64]*Node{
		2500: {
			Kind: KindContainer,
			Children: map[uint64]*Node{
				2501: {
					Kind: KindList,
					Entries: []map[uint64]*Node{
						{2502: NewLeaf(uint64(7))},
					},
				},
			},
		},
	}
}

// knownAnswerHex is the hand-derived encoding of
// {"/ietf-schc:schc": {"rule": [{"rule-id": 7}]}}: map{2500:
// map{+1: [map{+1: 7}]}}.
const knownAnswerHex = "a11909c4a10181a10107"

// TestEncodeKnownAnswer checks the hand-derived hex byte for byte.
func TestEncodeKnownAnswer(t *testing.T) {
	idx := mustIndex(t)
	data, err := Encode(idx, schcTree())
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	wantBytes, err := hex.DecodeString(knownAnswerHex)
	if err != nil {
		t.Fatalf("bad test fixture hex: %v", err)
	}
	if diff := cmp.Diff(wantBytes, data); diff != "" {
		t.Errorf("Encode() hex mismatch (-want +got):\n want=%x\n got=%x", wantBytes, data)
	}
}

// TestDecodeKnownAnswer checks the same bytes decode back to the
// original tree.
func TestDecodeKnownAnswer(t *testing.T) {
	idx := mustIndex(t)
	data, err := hex.DecodeString(knownAnswerHex)
	if err != nil {
		t.Fatalf("bad test fixture hex: %v", err)
	}

	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(schcTree(), got); diff != "" {
		t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := mustIndex(t)
	tree := schcTree()

	data, err := Encode(idx, tree)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownSid(t *testing.T) {
	idx := mustIndex(t)
	// Map{9999: 1} -- 9999 is unassigned.
	data, _ := hex.DecodeString("a119270f01")
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "sid not in schema"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestDecodeRejectsDuplicateSidInMap(t *testing.T) {
	idx := mustIndex(t)
	// Hand-crafted map(2 entries): first key delta 2500 -> empty
	// container map, second key delta 0 (invalid, non-positive).
	data := []byte{0xa2, 0x19, 0x09, 0xc4, 0xa0, 0x00, 0x01}
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "non-positive delta"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestDecodeRejectsTypeMismatchListAsScalar(t *testing.T) {
	idx := mustIndex(t)
	// {2500: {2501: 7}} -- sid 2501 is a list, wire gives the scalar 7
	// instead of an array.
	data := []byte{0xa1, 0x19, 0x09, 0xc4, 0xa1, 0x01, 0x07}
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "non-array"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestDecodeRejectsMissingListKey(t *testing.T) {
	idx := mustIndex(t)
	// {2500: {2501: [{2503: "x"}]}} -- entry lacks required key 2502.
	data := []byte{
		0xa1, 0x19, 0x09, 0xc4, // {2500:
		0xa1, 0x01, // {2501:
		0x81,       // [
		0xa1, 0x02, // {2503 (delta 2 from 2501):
		0x61, 'x', // "x"
	}
	_, err := Decode(idx, data)
	if diff := errdiff.Substring(err, "missing key leaf"); diff != "" {
		t.Errorf("Decode() errdiff: %s", diff)
	}
}

func TestEncodeRejectsMissingListKey(t *testing.T) {
	idx := mustIndex(t)
	tree := map[uint64]*Node{
		2500: {
			Kind: KindContainer,
			Children: map[uint64]*Node{
				2501: {
					Kind:    KindList,
					Entries: []map[uint64]*Node{{2503: NewLeaf("x")}},
				},
			},
		},
	}
	_, err := Encode(idx, tree)
	if diff := errdiff.Substring(err, "missing key leaf"); diff != "" {
		t.Errorf("Encode() errdiff: %s", diff)
	}
}

func TestFetchStyleMapKeyedByArbitrarySid(t *testing.T) {
	idx := mustIndex(t)
	// The shape of a FETCH response body: {2501: [{2502: 7}]}.
	tree := map[uint64]*Node{
		2501: {
			Kind: KindList,
			Entries: []map[uint64]*Node{
				{2502: NewLeaf(uint64(7))},
			},
		},
	}
	data, err := Encode(idx, tree)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeLeafList(t *testing.T) {
	doc := `{
		"module-name": "m",
		"items": [
			{"identifier": "/m:top", "sid": 1, "type": "container"},
			{"identifier": "/m:top/tags", "sid": 2, "type": "leaf-list"}
		]
	}`
	idx, err := sidindex.Parse(strings.NewReader(doc), sidindex.Options{})
	if err != nil {
		t.Fatalf("sidindex.Parse() failed: %v", err)
	}
	tree := map[uint64]*Node{
		1: {
			Kind: KindContainer,
			Children: map[uint64]*Node{
				2: NewLeafList([]valuecodec.Value{uint64(1), uint64(2), uint64(3)}),
			},
		},
	}
	data, err := Encode(idx, tree)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	got, err := Decode(idx, data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

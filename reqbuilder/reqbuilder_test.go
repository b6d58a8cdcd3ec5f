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

package reqbuilder

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/openconfig/gnmi/errdiff"

	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
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

func TestBuildFetchSortsBeforeDeltaEncoding(t *testing.T) {
	// [2502, 2501] must canonicalize to sorted-then-delta [2501, +1].
	got := BuildFetch([]uint64{2502, 2501})
	want := []byte{0x82, 0x19, 0x09, 0xc5, 0x01}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFetch() mismatch:\n want=%x\n got=%x", want, got)
	}
}

func TestBuildFetchOrderIndependent(t *testing.T) {
	a := BuildFetch([]uint64{2501, 2502, 2503})
	b := BuildFetch([]uint64{2503, 2501, 2502})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("BuildFetch() is not canonical over input order (-a +b):\n%s", diff)
	}
}

func TestBuildFetchDeduplicates(t *testing.T) {
	a := BuildFetch([]uint64{2501, 2501, 2502})
	b := BuildFetch([]uint64{2501, 2502})
	if diff := cmp.Diff(b, a); diff != "" {
		t.Errorf("BuildFetch() kept a duplicate sid (-want +got):\n%s", diff)
	}
}

func TestBuildFetchEmpty(t *testing.T) {
	got := BuildFetch(nil)
	want := []byte{0x80}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildFetch(nil) = % x, want % x", got, want)
	}
}

func TestBuildIPatchRoundTripsThroughDecoder(t *testing.T) {
	idx := mustIndex(t)
	body, err := BuildIPatch(idx, []PatchOp{
		Set(2501, []interface{}{map[string]interface{}{"rule-id": json.Number("7")}}),
	})
	if err != nil {
		t.Fatalf("BuildIPatch() failed: %v", err)
	}

	entries, err := treecodec.DecodePatchAt(idx, 0, body)
	if err != nil {
		t.Fatalf("DecodePatchAt() failed: %v", err)
	}
	want := []treecodec.PatchEntry{
		{SID: 2501, Node: &treecodec.Node{
			Kind: treecodec.KindList,
			Entries: []map[uint64]*treecodec.Node{
				{2502: treecodec.NewLeaf(uint64(7))},
			},
		}},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("decoded patch mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIPatchSortsAndEncodesDeletion(t *testing.T) {
	idx := mustIndex(t)
	// Given out of order, with the deletion first on the wire after the
	// sort: {2502: null, 2503: "x"} baselined at the list sid.
	body, err := BuildIPatchAt(idx, 2501, []PatchOp{
		Set(2503, "x"),
		Delete(2502),
	})
	if err != nil {
		t.Fatalf("BuildIPatchAt() failed: %v", err)
	}
	want := []byte{
		0xa2,
		0x01, 0xf6, // +1 -> 2502: null
		0x01, 0x61, 'x', // +1 -> 2503: "x"
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("BuildIPatchAt() mismatch:\n want=%x\n got=%x", want, body)
	}
}

func TestBuildIPatchRejectsDuplicateSid(t *testing.T) {
	idx := mustIndex(t)
	_, err := BuildIPatch(idx, []PatchOp{Delete(2502), Set(2502, json.Number("9"))})
	if diff := errdiff.Substring(err, "duplicate sid"); diff != "" {
		t.Errorf("BuildIPatch() errdiff: %s", diff)
	}
}

func TestBuildIPatchRejectsUnknownSid(t *testing.T) {
	idx := mustIndex(t)
	_, err := BuildIPatch(idx, []PatchOp{Set(9999, json.Number("1"))})
	if diff := errdiff.Substring(err, "sid not in schema"); diff != "" {
		t.Errorf("BuildIPatch() errdiff: %s", diff)
	}
}

func TestNewRequestCarriesTargetAndContentFormat(t *testing.T) {
	req := NewRequest(coapmsg.MethodFETCH, "/ietf-schc:schc/rule", BuildFetch([]uint64{2502}))
	if got, want := req.TargetPath(), "/ietf-schc:schc/rule"; got != want {
		t.Errorf("TargetPath() = %q, want %q", got, want)
	}
	if req.ContentFormat != coapmsg.ContentFormatYANGDataCBOR {
		t.Errorf("ContentFormat = %d, want %d", req.ContentFormat, coapmsg.ContentFormatYANGDataCBOR)
	}
}

func TestNewRequestRootHasNoContentFormatWithoutBody(t *testing.T) {
	req := NewRequest(coapmsg.MethodGET, "", nil)
	if got := req.TargetPath(); got != "" {
		t.Errorf("TargetPath() = %q, want \"\"", got)
	}
	if req.ContentFormat != 0 {
		t.Errorf("ContentFormat = %d, want 0", req.ContentFormat)
	}
}

func TestBuildPostEncodesInputMap(t *testing.T) {
	doc := `{
		"module-name": "m",
		"items": [
			{"identifier": "/m:reset", "sid": 10, "type": "container"},
			{"identifier": "/m:reset/delay", "sid": 11, "type": "uint"}
		]
	}`
	idx, err := sidindex.Parse(strings.NewReader(doc), sidindex.Options{})
	if err != nil {
		t.Fatalf("sidindex.Parse() failed: %v", err)
	}
	body, err := BuildPost(idx, 10, map[uint64]interface{}{11: json.Number("5")})
	if err != nil {
		t.Fatalf("BuildPost() failed: %v", err)
	}
	// {+1: 5} baselined at the rpc sid 10.
	want := []byte{0xa1, 0x01, 0x05}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("BuildPost() mismatch:\n want=%x\n got=%x", want, body)
	}

	empty, err := BuildPost(idx, 10, nil)
	if err != nil {
		t.Fatalf("BuildPost(nil inputs) failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("BuildPost(nil inputs) = % x, want empty", empty)
	}
}

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

package reqhandler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/datastore"
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

const seedJSON = `{"/ietf-schc:schc": {"rule": [{"rule-id": 7}]}}`

func newHandler(t *testing.T) (*Handler, *datastore.Datastore, *sidindex.SidIndex) {
	t.Helper()
	idx, err := sidindex.Parse(strings.NewReader(schcDoc), sidindex.Options{})
	if err != nil {
		t.Fatalf("sidindex.Parse() failed: %v", err)
	}
	ds, err := datastore.New(idx, []byte(seedJSON))
	if err != nil {
		t.Fatalf("datastore.New() failed: %v", err)
	}
	return New(idx, ds), ds, idx
}

func cborRequest(method coapmsg.Method, target string, payload []byte) coapmsg.Request {
	req := coapmsg.Request{Method: method, UriPath: []string{"c"}, Payload: payload}
	for _, seg := range strings.Split(strings.TrimPrefix(target, "/"), "/") {
		if seg != "" {
			req.UriPath = append(req.UriPath, seg)
		}
	}
	if len(payload) > 0 {
		req.ContentFormat = coapmsg.ContentFormatYANGDataCBOR
	}
	return req
}

func mustSnapshot(t *testing.T, ds *datastore.Datastore) string {
	t.Helper()
	snap, err := ds.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	return string(snap)
}

func TestGetWholeDatastore(t *testing.T) {
	h, _, idx := newHandler(t)

	resp := h.Handle(cborRequest(coapmsg.MethodGET, "", nil))
	if resp.Code != coapmsg.CodeContent {
		t.Fatalf("Handle(GET) code = %v, want %v", resp.Code, coapmsg.CodeContent)
	}

	tree, err := treecodec.Decode(idx, resp.Payload)
	if err != nil {
		t.Fatalf("decoding GET body: %v", err)
	}
	want := map[uint64]*treecodec.Node{
		2500: {
			Kind: treecodec.KindContainer,
			Children: map[uint64]*treecodec.Node{
				2501: {
					Kind: treecodec.KindList,
					Entries: []map[uint64]*treecodec.Node{
						{2502: treecodec.NewLeaf(uint64(7))},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("GET body mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSubtree(t *testing.T) {
	h, _, idx := newHandler(t)

	resp := h.Handle(cborRequest(coapmsg.MethodGET, "/ietf-schc:schc", nil))
	if resp.Code != coapmsg.CodeContent {
		t.Fatalf("Handle(GET subtree) code = %v, want %v", resp.Code, coapmsg.CodeContent)
	}
	// Body is baselined at the container's own sid.
	tree, err := treecodec.DecodeAt(idx, 2500, resp.Payload)
	if err != nil {
		t.Fatalf("decoding GET body: %v", err)
	}
	if _, ok := tree[2501]; !ok {
		t.Errorf("GET subtree body lacks the rule list: %v", tree)
	}
}

func TestFetchProjectsRequestedSids(t *testing.T) {
	h, _, idx := newHandler(t)

	// Canonical FETCH body for {2502, 2501}: sorted, delta-encoded
	// [2501, +1].
	body := []byte{0x82, 0x19, 0x09, 0xc5, 0x01}
	resp := h.Handle(cborRequest(coapmsg.MethodFETCH, "", body))
	if resp.Code != coapmsg.CodeContent {
		t.Fatalf("Handle(FETCH) code = %v, want %v", resp.Code, coapmsg.CodeContent)
	}

	tree, err := treecodec.Decode(idx, resp.Payload)
	if err != nil {
		t.Fatalf("decoding FETCH body: %v", err)
	}
	// 2502 lies inside the fetched list, so the reply is keyed by 2501
	// alone, without its 2500 ancestor.
	want := map[uint64]*treecodec.Node{
		2501: {
			Kind: treecodec.KindList,
			Entries: []map[uint64]*treecodec.Node{
				{2502: treecodec.NewLeaf(uint64(7))},
			},
		},
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Errorf("FETCH body mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchUnknownSid(t *testing.T) {
	h, ds, _ := newHandler(t)
	before := mustSnapshot(t, ds)

	// [9999] -> delta 9999 from 0.
	body := []byte{0x81, 0x19, 0x27, 0x0f}
	resp := h.Handle(cborRequest(coapmsg.MethodFETCH, "", body))
	if resp.Code != coapmsg.CodeNotFound {
		t.Errorf("Handle(FETCH unknown) code = %v, want %v", resp.Code, coapmsg.CodeNotFound)
	}
	if after := mustSnapshot(t, ds); after != before {
		t.Errorf("datastore changed across a failed FETCH:\n before=%s\n after=%s", before, after)
	}
}

func TestIPatchSetLeafChanged(t *testing.T) {
	h, ds, _ := newHandler(t)

	// {2503: "compress"} targeting the rule entry; baseline is the
	// owning list's sid 2501, so the key delta is +2.
	body := append([]byte{0xa1, 0x02}, append([]byte{0x68}, "compress"...)...)
	resp := h.Handle(cborRequest(coapmsg.MethodIPATCH, "/ietf-schc:schc/rule[rule-id=7]", body))
	if resp.Code != coapmsg.CodeCreated {
		t.Fatalf("Handle(iPATCH) code = %v, want %v", resp.Code, coapmsg.CodeCreated)
	}
	if len(resp.Payload) != 0 {
		t.Errorf("successful iPATCH carried a payload: % x", resp.Payload)
	}

	snap := mustSnapshot(t, ds)
	if !strings.Contains(snap, `"target-value":"compress"`) {
		t.Errorf("Snapshot() = %s, want target-value set", snap)
	}

	// Idempotence: the same patch again changes nothing new, so the
	// code drops from Created to Changed.
	resp = h.Handle(cborRequest(coapmsg.MethodIPATCH, "/ietf-schc:schc/rule[rule-id=7]", body))
	if resp.Code != coapmsg.CodeChanged {
		t.Errorf("Handle(iPATCH repeat) code = %v, want %v", resp.Code, coapmsg.CodeChanged)
	}
	if again := mustSnapshot(t, ds); again != snap {
		t.Errorf("second identical iPATCH changed state:\n first=%s\n second=%s", snap, again)
	}
}

func TestIPatchDeleteListKeyRejected(t *testing.T) {
	h, ds, _ := newHandler(t)
	before := mustSnapshot(t, ds)

	// {2502: null} targeting the entry: deleting a list key.
	body := []byte{0xa1, 0x01, 0xf6}
	resp := h.Handle(cborRequest(coapmsg.MethodIPATCH, "/ietf-schc:schc/rule[rule-id=7]", body))
	if resp.Code != coapmsg.CodeRequestEntityIncomplete {
		t.Errorf("Handle(iPATCH key delete) code = %v, want %v", resp.Code, coapmsg.CodeRequestEntityIncomplete)
	}
	if after := mustSnapshot(t, ds); after != before {
		t.Errorf("datastore changed across a rejected iPATCH:\n before=%s\n after=%s", before, after)
	}
}

func TestIPatchUnknownSidRollsBack(t *testing.T) {
	h, ds, _ := newHandler(t)
	before := mustSnapshot(t, ds)

	// {2502: 9, 9999: 1} at the entry target (baseline 2501): the
	// second key does not resolve, so the first set must not survive.
	body := []byte{
		0xa2,
		0x01, 0x09, // +1 -> 2502: 9
		0x19, 0x1d, 0x49, 0x01, // +7497 -> 9999: 1
	}
	resp := h.Handle(cborRequest(coapmsg.MethodIPATCH, "/ietf-schc:schc/rule[rule-id=7]", body))
	if resp.Code != coapmsg.CodeNotFound {
		t.Errorf("Handle(iPATCH unknown sid) code = %v, want %v", resp.Code, coapmsg.CodeNotFound)
	}
	if !strings.Contains(string(resp.Payload), "9999") {
		t.Errorf("diagnostic payload %q does not name the failing sid", resp.Payload)
	}
	if after := mustSnapshot(t, ds); after != before {
		t.Errorf("datastore changed across a failed iPATCH:\n before=%s\n after=%s", before, after)
	}
}

func TestIPatchCreatesEntry(t *testing.T) {
	h, ds, _ := newHandler(t)

	// Root-targeted patch adding a second rule:
	// {2500: {+1: [{+1: 9}]}} delta-encoded from 0. The list entry is
	// new but top-level sid 2500 already existed, so the merge reports
	// Changed.
	body := []byte{
		0xa1, 0x19, 0x09, 0xc4, // {2500:
		0xa1, 0x01, // {+1 -> 2501:
		0x81,       // [
		0xa1, 0x01, // {+1 -> 2502:
		0x09, // 9
	}
	resp := h.Handle(cborRequest(coapmsg.MethodIPATCH, "", body))
	if resp.Code != coapmsg.CodeChanged {
		t.Fatalf("Handle(iPATCH create) code = %v, want %v", resp.Code, coapmsg.CodeChanged)
	}
	snap := mustSnapshot(t, ds)
	if !strings.Contains(snap, `"rule-id":9`) {
		t.Errorf("Snapshot() = %s, want a rule-id 9 entry", snap)
	}
	if !strings.Contains(snap, `"rule-id":7`) {
		t.Errorf("Snapshot() = %s, want the seeded rule-id 7 entry kept", snap)
	}
}

func TestPostInvokesRegisteredRPC(t *testing.T) {
	h, _, idx := newHandler(t)

	h.RegisterRPC(2500, func(inputs map[uint64]*treecodec.Node) (map[uint64]*treecodec.Node, error) {
		return map[uint64]*treecodec.Node{
			2501: {
				Kind: treecodec.KindList,
				Entries: []map[uint64]*treecodec.Node{
					{2502: treecodec.NewLeaf(uint64(42))},
				},
			},
		}, nil
	})

	resp := h.Handle(cborRequest(coapmsg.MethodPOST, "/ietf-schc:schc", nil))
	if resp.Code != coapmsg.CodeChanged {
		t.Fatalf("Handle(POST) code = %v, want %v", resp.Code, coapmsg.CodeChanged)
	}
	out, err := treecodec.DecodeAt(idx, 2500, resp.Payload)
	if err != nil {
		t.Fatalf("decoding POST body: %v", err)
	}
	if _, ok := out[2501]; !ok {
		t.Errorf("POST output lacks sid 2501: %v", out)
	}
}

func TestPostUnregisteredRPC(t *testing.T) {
	h, _, _ := newHandler(t)
	resp := h.Handle(cborRequest(coapmsg.MethodPOST, "/ietf-schc:schc", nil))
	if resp.Code != coapmsg.CodeNotFound {
		t.Errorf("Handle(POST unregistered) code = %v, want %v", resp.Code, coapmsg.CodeNotFound)
	}
}

func TestNonCBORContentFormatRejected(t *testing.T) {
	h, _, _ := newHandler(t)
	req := cborRequest(coapmsg.MethodIPATCH, "", []byte{0xa0})
	req.ContentFormat = 0 // text/plain
	resp := h.Handle(req)
	if resp.Code != coapmsg.CodeUnsupportedContentFormat {
		t.Errorf("Handle(non-CBOR body) code = %v, want %v", resp.Code, coapmsg.CodeUnsupportedContentFormat)
	}
}

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
	"bytes"

	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/internal/cborwire"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
)

// handleFetch reads the set of SIDs named in req.Payload and replies with
// a map keyed by those SIDs directly, each carrying its whole stored
// subtree. A requested SID whose schema ancestor is also requested is
// folded into the ancestor's subtree rather than repeated (fetching both
// a list and one of its leaves returns just the list, since the leaf is
// already inside it).
func (h *Handler) handleFetch(req coapmsg.Request) coapmsg.Response {
	addr, err := h.resolveAddr(req.TargetPath())
	if err != nil {
		return h.errorResponse(err)
	}
	sids, err := decodeSIDArray(req.Payload)
	if err != nil {
		return h.errorResponse(err)
	}

	// Every SID must resolve before anything is read; the response cites
	// the first one that does not.
	requested := map[uint64]bool{}
	for _, sid := range sids {
		if _, ok := h.reg.PathOf(sid); !ok {
			return h.errorResponse(coreerr.WithSID(coreerr.UnknownSid, sid, "reqhandler: fetch names an unknown sid"))
		}
		requested[sid] = true
	}

	tree, _, err := h.ds.Export(addr)
	if err != nil {
		return h.errorResponse(err)
	}

	out := map[uint64]*treecodec.Node{}
	for sid := range requested {
		if hasRequestedAncestor(h.reg, requested, sid) {
			continue
		}
		if node, ok := findNode(tree, sid); ok {
			out[sid] = node.Clone()
		}
	}

	body, err := treecodec.EncodeAt(h.reg, patchBaseline(addr), out)
	if err != nil {
		return h.errorResponse(err)
	}
	return coapmsg.NewResponse(coapmsg.CodeContent, body)
}

// hasRequestedAncestor reports whether some proper schema ancestor of sid
// is itself in requested.
func hasRequestedAncestor(reg Registry, requested map[uint64]bool, sid uint64) bool {
	item, ok := reg.PathOf(sid)
	if !ok {
		return false
	}
	for path := sidindex.ParentPath(item.Path); path != ""; path = sidindex.ParentPath(path) {
		ps, ok := reg.SIDOf(path)
		if !ok {
			return false
		}
		if requested[ps] {
			return true
		}
	}
	return false
}

// findNode locates the first instance of sid in nodes, descending through
// containers and list entries.
func findNode(nodes map[uint64]*treecodec.Node, sid uint64) (*treecodec.Node, bool) {
	if n, ok := nodes[sid]; ok {
		return n, true
	}
	for _, n := range nodes {
		switch n.Kind {
		case treecodec.KindContainer:
			if found, ok := findNode(n.Children, sid); ok {
				return found, ok
			}
		case treecodec.KindList:
			for _, entry := range n.Entries {
				if found, ok := findNode(entry, sid); ok {
					return found, ok
				}
			}
		}
	}
	return nil, false
}

// decodeSIDArray parses data as a CBOR array of signed SID deltas relative
// to 0, the shape reqbuilder.BuildFetch produces.
func decodeSIDArray(data []byte) ([]uint64, error) {
	head, n, err := readHeadAt(data, 0)
	if err != nil {
		return nil, err
	}
	offset := n
	if head.Major != cborwire.MajorArray {
		return nil, coreerr.New(coreerr.TypeMismatch, "reqhandler: fetch body must be a cbor array of sids")
	}

	var sids []uint64
	cur := int64(0)
	for i := uint64(0); i < head.Argument; i++ {
		h2, n2, err := readHeadAt(data, offset)
		if err != nil {
			return nil, err
		}
		offset += n2
		var delta int64
		switch h2.Major {
		case cborwire.MajorUnsigned:
			delta = int64(h2.Argument)
		case cborwire.MajorNegative:
			delta = -1 - int64(h2.Argument)
		default:
			return nil, coreerr.New(coreerr.MalformedCbor, "reqhandler: expected signed integer sid, got major type %d", h2.Major)
		}
		cur += delta
		if cur < 0 {
			return nil, coreerr.New(coreerr.MalformedCbor, "reqhandler: cumulative sid went negative")
		}
		sids = append(sids, uint64(cur))
	}
	return sids, nil
}

func readHeadAt(data []byte, offset int) (cborwire.Head, int, error) {
	r := bytes.NewReader(data[offset:])
	before := r.Len()
	head, err := cborwire.ReadHead(r)
	if err != nil {
		return cborwire.Head{}, 0, coreerr.New(coreerr.MalformedCbor, "reqhandler: %v", err)
	}
	return head, before - r.Len(), nil
}

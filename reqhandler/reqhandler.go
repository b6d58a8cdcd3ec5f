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

// Package reqhandler implements server-side CORECONF verb dispatch: it
// turns a coapmsg.Request into Datastore reads and writes and produces
// the matching coapmsg.Response, with no transport code of its own.
package reqhandler

import (
	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/datastore"
	"github.com/samsirohi11/coreconf/instancepath"
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
	"github.com/samsirohi11/coreconf/treecodec"
)

// Registry is the SidIndex lookup surface RequestHandler needs. It is
// exactly what Datastore already requires, since every body codec the
// handler drives (TreeCodec, the iPATCH patch codec) is itself driven
// through Datastore or through reg directly.
type Registry interface {
	datastore.Registry
}

var _ Registry = (*sidindex.SidIndex)(nil)

// RPCFunc implements one registered POST action/RPC. inputs is the
// request body decoded as a SID-keyed tree; the returned tree is encoded
// as the response body.
type RPCFunc func(inputs map[uint64]*treecodec.Node) (map[uint64]*treecodec.Node, error)

// Handler dispatches CORECONF verbs against a single Datastore.
type Handler struct {
	reg  Registry
	ds   *datastore.Datastore
	rpcs map[uint64]RPCFunc
}

// New builds a Handler serving ds, resolving SIDs and paths against reg.
func New(reg Registry, ds *datastore.Datastore) *Handler {
	return &Handler{reg: reg, ds: ds, rpcs: map[uint64]RPCFunc{}}
}

// RegisterRPC binds fn to the RPC/action identified by sid: a POST whose
// URI path resolves to sid invokes fn.
func (h *Handler) RegisterRPC(sid uint64, fn RPCFunc) {
	h.rpcs[sid] = fn
}

// Handle dispatches req per the verb its Method names and returns the
// resulting response.
func (h *Handler) Handle(req coapmsg.Request) coapmsg.Response {
	if len(req.Payload) > 0 && req.ContentFormat != coapmsg.ContentFormatYANGDataCBOR {
		return coapmsg.NewResponse(coapmsg.CodeUnsupportedContentFormat, nil)
	}
	switch req.Method {
	case coapmsg.MethodGET:
		return h.handleGet(req)
	case coapmsg.MethodFETCH:
		return h.handleFetch(req)
	case coapmsg.MethodIPATCH:
		return h.handleIPatch(req)
	case coapmsg.MethodPOST:
		return h.handlePost(req)
	default:
		return coapmsg.NewResponse(coapmsg.CodeUnsupportedContentFormat, nil)
	}
}

func (h *Handler) resolveAddr(path string) (datastore.Addr, error) {
	if path == "" {
		return datastore.RootAddr(), nil
	}
	return datastore.PathAddr(h.reg, path)
}

// errorResponse maps err to its response code and attaches the error's
// own rendering (kind, message, offending SID) as the diagnostic payload.
// Internal errors cross the wire as a bare 5.00: their messages describe
// implementation details a client has no use for.
func (h *Handler) errorResponse(err error) coapmsg.Response {
	kind := coreerr.KindOf(err)
	if kind == coreerr.Internal {
		return coapmsg.NewErrorResponse(coapmsg.CodeInternalServerError, "")
	}
	return coapmsg.NewErrorResponse(codeForKind(kind), err.Error())
}

// codeForKind maps a coreerr.Kind to the response code RequestHandler
// replies with. A rejected key deletion is 4.08 (the payload is only
// partially valid), while an unresolvable SID is 4.04.
func codeForKind(k coreerr.Kind) coapmsg.Code {
	switch k {
	case coreerr.NotFound, coreerr.UnknownSid:
		return coapmsg.CodeNotFound
	case coreerr.KeyImmutable, coreerr.KeyMissing, coreerr.TypeMismatch,
		coreerr.PathInvalid, coreerr.DuplicateSidInMap:
		return coapmsg.CodeRequestEntityIncomplete
	case coreerr.MalformedCbor, coreerr.Unsupported, coreerr.SidOutOfRange:
		return coapmsg.CodeUnsupportedContentFormat
	default:
		return coapmsg.CodeInternalServerError
	}
}

// handleGet snapshots the whole datastore or, for a non-root URI path,
// the subtree it names.
func (h *Handler) handleGet(req coapmsg.Request) coapmsg.Response {
	addr, err := h.resolveAddr(req.TargetPath())
	if err != nil {
		return h.errorResponse(err)
	}
	tree, baseline, err := h.ds.Export(addr)
	if err != nil {
		return h.errorResponse(err)
	}
	body, err := treecodec.EncodeAt(h.reg, baseline, tree)
	if err != nil {
		return h.errorResponse(err)
	}
	return coapmsg.NewResponse(coapmsg.CodeContent, body)
}

// patchBaseline returns the schema SID addr's map-shaped request/response
// body is delta-baselined against: the addressed container's own SID, the
// owning list's SID when addr ends on a key predicate (a list entry has
// no SID of its own, so its map is baselined at the list SID), or 0 at
// the root. This is computed purely from the schema walk, independent of
// whatever the Datastore currently holds, so it works for iPATCH targets
// that create new nodes.
func patchBaseline(addr datastore.Addr) uint64 {
	els := addr.Path.Elements
	if len(els) == 0 {
		return 0
	}
	last := els[len(els)-1]
	if !last.Key {
		return last.SID
	}
	i := len(els) - 1
	for i > 0 && els[i].Key {
		i--
	}
	return els[i].SID
}

// owningListSID returns the SID of the list addr addresses a specific
// entry of (addr ends on a key predicate), or 0 if addr does not name a
// list entry.
func owningListSID(addr datastore.Addr) uint64 {
	els := addr.Path.Elements
	if len(els) == 0 || !els[len(els)-1].Key {
		return 0
	}
	i := len(els) - 1
	for i > 0 && els[i].Key {
		i--
	}
	return els[i].SID
}

// appendChild extends addr with one more plain schema-SID step, the Addr
// a top-level iPATCH/FETCH entry under addr's target resolves to.
func appendChild(reg Registry, addr datastore.Addr, sid uint64) (datastore.Addr, error) {
	if _, ok := reg.PathOf(sid); !ok {
		return datastore.Addr{}, coreerr.WithSID(coreerr.UnknownSid, sid, "reqhandler: sid not in schema")
	}
	elements := append(append([]instancepath.PathElement(nil), addr.Path.Elements...), instancepath.Leaf(sid))
	return datastore.Addr{Path: instancepath.InstancePath{Elements: elements}}, nil
}

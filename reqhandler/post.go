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
	"github.com/samsirohi11/coreconf/coapmsg"
	"github.com/samsirohi11/coreconf/datastore"
	"github.com/samsirohi11/coreconf/treecodec"
)

// handlePost invokes the RPC/action registered for req's target SID,
// decoding the request body as the RPC's input map and encoding the
// returned map as the response body. The handler's own atomicity
// guarantee covers routing only; whether the invoked RPCFunc itself
// applies its effects atomically is up to its registrant.
func (h *Handler) handlePost(req coapmsg.Request) coapmsg.Response {
	addr, err := h.resolveAddr(req.TargetPath())
	if err != nil {
		return h.errorResponse(err)
	}
	sid, ok := rpcSIDOf(addr)
	if !ok {
		return coapmsg.NewResponse(coapmsg.CodeNotFound, nil)
	}
	fn, ok := h.rpcs[sid]
	if !ok {
		return coapmsg.NewResponse(coapmsg.CodeNotFound, nil)
	}

	baseline := patchBaseline(addr)
	inputs := map[uint64]*treecodec.Node{}
	if len(req.Payload) > 0 {
		inputs, err = treecodec.DecodeAt(h.reg, baseline, req.Payload)
		if err != nil {
			return h.errorResponse(err)
		}
	}

	outputs, err := fn(inputs)
	if err != nil {
		return h.errorResponse(err)
	}
	body, err := treecodec.EncodeAt(h.reg, baseline, outputs)
	if err != nil {
		return h.errorResponse(err)
	}
	return coapmsg.NewResponse(coapmsg.CodeChanged, body)
}

// rpcSIDOf returns the schema SID addr's URI path targets, for dispatching
// a POST to the RPC/action registered at that SID.
func rpcSIDOf(addr datastore.Addr) (uint64, bool) {
	els := addr.Path.Elements
	if len(els) == 0 {
		return 0, false
	}
	last := els[len(els)-1]
	if last.Key {
		return 0, false
	}
	return last.SID, true
}

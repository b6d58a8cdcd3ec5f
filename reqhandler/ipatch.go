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
	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/treecodec"
)

// handleIPatch applies a set-and-delete update to addr's subtree,
// atomically: every entry is applied in wire order, but the first
// failure rolls the whole Datastore back to its pre-request state before
// the handler replies. Snapshot/Restore captures the entire datastore,
// not just the entries this request touches, so the rollback is exact.
func (h *Handler) handleIPatch(req coapmsg.Request) coapmsg.Response {
	addr, err := h.resolveAddr(req.TargetPath())
	if err != nil {
		return h.errorResponse(err)
	}
	baseline := patchBaseline(addr)
	patch, err := treecodec.DecodePatchAt(h.reg, baseline, req.Payload)
	if err != nil {
		return h.errorResponse(err)
	}
	listSID := owningListSID(addr)

	snapshot, err := h.ds.Snapshot()
	if err != nil {
		return h.errorResponse(err)
	}

	created := false
	for _, p := range patch {
		if applyErr := h.applyPatchEntry(addr, listSID, p, &created); applyErr != nil {
			if restoreErr := h.ds.Restore(snapshot); restoreErr != nil {
				return coapmsg.NewResponse(coapmsg.CodeInternalServerError, nil)
			}
			return h.errorResponse(applyErr)
		}
	}

	code := coapmsg.CodeChanged
	if created {
		code = coapmsg.CodeCreated
	}
	return coapmsg.NewResponse(code, nil)
}

// applyPatchEntry resolves one decoded patch entry's target Addr under
// addr and applies it, reporting created via the created pointer so the
// caller can pick the response code once the whole batch has applied.
func (h *Handler) applyPatchEntry(addr datastore.Addr, listSID uint64, p treecodec.PatchEntry, created *bool) error {
	if p.Delete && listSID != 0 && h.reg.IsListKey(listSID, p.SID) {
		return coreerr.WithSID(coreerr.KeyImmutable, p.SID, "reqhandler: cannot delete a list key leaf")
	}
	childAddr, err := appendChild(h.reg, addr, p.SID)
	if err != nil {
		return err
	}
	if p.Delete {
		return h.ds.Delete(childAddr)
	}

	item, ok := h.reg.PathOf(p.SID)
	if !ok {
		return coreerr.WithSID(coreerr.UnknownSid, p.SID, "reqhandler: ipatch names an unknown sid")
	}
	before, err := h.ds.Get(childAddr)
	if err != nil {
		return err
	}
	if before == nil {
		*created = true
	}
	value, err := treecodec.NodeToJSON(h.reg, item, p.Node)
	if err != nil {
		return err
	}
	return h.ds.Set(childAddr, value)
}

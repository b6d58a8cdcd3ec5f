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

package sidindex

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	log "github.com/golang/glog"
	"github.com/openconfig/gnmi/errlist"

	"github.com/samsirohi11/coreconf/internal/coreerr"
)

// rawFile mirrors the top-level object of a .sid JSON document
// (draft-ietf-core-sid). Unknown fields pass through json.Unmarshal's
// default "ignore what you don't recognize" behavior.
type rawFile struct {
	ModuleName       string            `json:"module-name"`
	ModuleRevision   string            `json:"module-revision"`
	AssignmentRanges []AssignmentRange `json:"assignment-ranges"`
	Items            []rawItem         `json:"items"`
}

type rawItem struct {
	Namespace  string `json:"namespace"`
	Identifier string `json:"identifier"`
	SID        uint64 `json:"sid"`
	Type       string `json:"type"`
	// Key carries a list item's key leaf names, space-separated in
	// schema order (YANG's own "key" statement shape). Only meaningful
	// when Type == "list"; see Item.Keys.
	Key string `json:"key"`
}

// Options controls SidIndex construction.
type Options struct {
	// Strict promotes SidOutOfRange from a logged warning to a build
	// error.
	Strict bool
}

// Parse reads a .sid JSON document from r and builds an immutable
// SidIndex. It never mutates a previously returned SidIndex.
func Parse(r io.Reader, opts Options) (*SidIndex, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, coreerr.New(coreerr.BadSidFile, "reading .sid document: %v", err)
	}

	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, coreerr.New(coreerr.BadSidFile, "parsing .sid document: %v", err)
	}
	if raw.ModuleName == "" {
		return nil, coreerr.New(coreerr.BadSidFile, "missing required field module-name")
	}
	if len(raw.Items) == 0 {
		return nil, coreerr.New(coreerr.BadSidFile, "items array is empty")
	}

	var errs errlist.List

	items := make([]Item, 0, len(raw.Items))
	seenSID := make(map[uint64]bool, len(raw.Items))
	seenPath := make(map[string]bool, len(raw.Items))
	for _, ri := range raw.Items {
		if ri.Identifier == "" {
			errs.Add(coreerr.New(coreerr.BadSidFile, "item with sid %d has empty identifier", ri.SID))
			continue
		}
		if seenSID[ri.SID] {
			errs.Add(coreerr.WithSID(coreerr.DuplicateSid, ri.SID, "sid assigned to more than one item"))
			continue
		}
		if seenPath[ri.Identifier] {
			errs.Add(coreerr.New(coreerr.DuplicatePath, "path %q assigned to more than one item", ri.Identifier))
			continue
		}
		seenSID[ri.SID] = true
		seenPath[ri.Identifier] = true

		ns := Namespace(ri.Namespace)
		if ns == "" {
			ns = NamespaceData
		}
		var keys []string
		if normalizeHint(ri.Type) == HintList && ri.Key != "" {
			keys = strings.Fields(ri.Key)
		}
		items = append(items, Item{
			Namespace: ns,
			Path:      ri.Identifier,
			SID:       ri.SID,
			Hint:      normalizeHint(ri.Type),
			Keys:      keys,
		})
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	for i := range raw.AssignmentRanges {
		for j := i + 1; j < len(raw.AssignmentRanges); j++ {
			if rangesOverlap(raw.AssignmentRanges[i], raw.AssignmentRanges[j]) {
				return nil, coreerr.New(coreerr.BadSidFile,
					"assignment ranges %s and %s overlap", raw.AssignmentRanges[i], raw.AssignmentRanges[j])
			}
		}
	}

	for _, it := range items {
		if !inAnyRange(it.SID, raw.AssignmentRanges) {
			msg := fmt.Sprintf("sid %d (%s) lies outside every assignment range", it.SID, it.Path)
			if opts.Strict {
				return nil, coreerr.WithSID(coreerr.SidOutOfRange, it.SID, "%s", msg)
			}
			log.Warningf("sidindex: %s", msg)
		}
	}

	return build(raw.ModuleName, raw.ModuleRevision, raw.AssignmentRanges, items), nil
}

func rangesOverlap(a, b AssignmentRange) bool {
	aEnd := a.EntryPoint + a.Size
	bEnd := b.EntryPoint + b.Size
	return a.EntryPoint < bEnd && b.EntryPoint < aEnd
}

func inAnyRange(sid uint64, ranges []AssignmentRange) bool {
	for _, r := range ranges {
		if r.Contains(sid) {
			return true
		}
	}
	return false
}

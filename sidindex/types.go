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

// Package sidindex parses a .sid JSON document (draft-ietf-core-sid) into
// an immutable, O(log n)-lookup index mapping YANG schema paths to
// Schema Item Identifiers and back, with type metadata attached.
package sidindex

import "fmt"

// Hint is the type metadata attached to a data-node item. The zero value
// HintNone means no type hint was present in the .sid file.
type Hint string

// Recognized type hints. Container, List, and LeafList are structural
// markers rather than leaf scalar types; TreeCodec needs them to tell a
// nested map from a list array at decode time.
const (
	HintNone               Hint = ""
	HintUint               Hint = "uint"
	HintInt                Hint = "int"
	HintDecimal64          Hint = "decimal64"
	HintString             Hint = "string"
	HintBoolean            Hint = "boolean"
	HintBits               Hint = "bits"
	HintEnum               Hint = "enum"
	HintBinary             Hint = "binary"
	HintInstanceIdentifier Hint = "instance-identifier"
	HintIdentityref        Hint = "identityref"
	HintUnion              Hint = "union"
	HintEmpty              Hint = "empty"
	HintContainer          Hint = "container"
	HintList               Hint = "list"
	HintLeafList           Hint = "leaf-list"
)

// normalizeHint folds the bare "decimal" alias some .sid generators emit
// into HintDecimal64.
func normalizeHint(raw string) Hint {
	if raw == "decimal" {
		return HintDecimal64
	}
	return Hint(raw)
}

// IsStructural reports whether h denotes a container, list, or leaf-list
// node rather than a scalar leaf.
func (h Hint) IsStructural() bool {
	switch h {
	case HintContainer, HintList, HintLeafList:
		return true
	default:
		return false
	}
}

// Namespace selects the scope an item's identifier is drawn from.
type Namespace string

const (
	NamespaceModule   Namespace = "module"
	NamespaceData     Namespace = "data"
	NamespaceIdentity Namespace = "identity"
)

// AssignmentRange is one contiguous block of SIDs reserved for this
// module.
type AssignmentRange struct {
	EntryPoint uint64 `json:"entry-point"`
	Size       uint64 `json:"size"`
}

// Contains reports whether sid falls within r.
func (r AssignmentRange) Contains(sid uint64) bool {
	return sid >= r.EntryPoint && sid < r.EntryPoint+r.Size
}

func (r AssignmentRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.EntryPoint, r.EntryPoint+r.Size)
}

// Item is one {path, sid, type_hint?} entry from a .sid file's items
// array, after namespace/hint normalization.
type Item struct {
	Namespace Namespace
	Path      string
	SID       uint64
	Hint      Hint

	// Keys holds the leaf names forming a list's key, in schema-declared
	// order, when Hint == HintList. It mirrors YANG's own `key "a b"`
	// statement (RFC 7950 §7.8.2): a space-separated list of immediate
	// child leaf names. draft-ietf-core-sid documents do not carry key
	// information themselves (a list's key leaves are ordinary child
	// items), so this is sourced from an extension field the .sid
	// document may carry alongside "type": "list" (see parse.go). It is
	// nil for every non-list item.
	Keys []string
}

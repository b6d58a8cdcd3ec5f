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

// Package instancepath implements the RFC 9595 yang-instances+cbor-seq
// instance-identifier codec: a CBOR sequence of path elements, each a
// signed delta from the previous element's SID, with list key
// predicates carried as inline leaf values sharing the same delta
// discipline.
package instancepath

import "github.com/samsirohi11/coreconf/valuecodec"

// PathElement is one step of an InstancePath: either a plain schema SID
// (container/list/leaf step) or, when Key is true, a list's key
// predicate carrying an inline leaf Value.
type PathElement struct {
	SID   uint64
	Key   bool
	Value valuecodec.Value
}

// InstancePath is an ordered sequence of PathElement corresponding to a
// root-rooted walk in the schema. A nil/empty Elements slice addresses
// the datastore root.
type InstancePath struct {
	Elements []PathElement
}

// Leaf builds a plain (non-key) PathElement.
func Leaf(sid uint64) PathElement {
	return PathElement{SID: sid}
}

// KeyValue builds a key-predicate PathElement carrying v.
func KeyValue(sid uint64, v valuecodec.Value) PathElement {
	return PathElement{SID: sid, Key: true, Value: v}
}

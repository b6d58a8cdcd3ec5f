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

// Package coreerr defines the typed error kinds shared by every CORECONF
// package (sidindex, instancepath, valuecodec, treecodec, datastore,
// reqhandler, reqbuilder) so that reqhandler can map a failure to a CoAP
// response code without matching on error strings.
package coreerr

import (
	"errors"
	"fmt"
)

// Kind classifies a CORECONF error.
type Kind int

const (
	// Internal indicates a programmer bug; never propagated raw across
	// the wire.
	Internal Kind = iota
	// BadSidFile indicates a malformed or contradictory .sid document.
	BadSidFile
	// DuplicateSid indicates the same SID was assigned to two items.
	DuplicateSid
	// DuplicatePath indicates the same path was assigned to two items.
	DuplicatePath
	// SidOutOfRange indicates a SID lies outside every assignment range.
	SidOutOfRange
	// UnknownSid indicates a SID absent from the index.
	UnknownSid
	// MalformedCbor indicates the decoder could not parse the bytes.
	MalformedCbor
	// TypeMismatch indicates the wire shape disagrees with the schema.
	TypeMismatch
	// DuplicateSidInMap indicates a non-positive delta after the first
	// key of a map.
	DuplicateSidInMap
	// KeyMissing indicates a list entry lacks a required key leaf.
	KeyMissing
	// PathInvalid indicates a path does not resolve against the schema.
	PathInvalid
	// KeyImmutable indicates an attempt to modify or delete a list key.
	KeyImmutable
	// NotFound indicates the addressed target is absent.
	NotFound
	// Unsupported indicates an unhandled Content-Format or method.
	Unsupported
)

var kindNames = map[Kind]string{
	Internal:          "Internal",
	BadSidFile:        "BadSidFile",
	DuplicateSid:      "DuplicateSid",
	DuplicatePath:     "DuplicatePath",
	SidOutOfRange:     "SidOutOfRange",
	UnknownSid:        "UnknownSid",
	MalformedCbor:     "MalformedCbor",
	TypeMismatch:      "TypeMismatch",
	DuplicateSidInMap: "DuplicateSidInMap",
	KeyMissing:        "KeyMissing",
	PathInvalid:       "PathInvalid",
	KeyImmutable:      "KeyImmutable",
	NotFound:          "NotFound",
	Unsupported:       "Unsupported",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a single CORECONF failure. SID is set to the offending SID when
// one is known; it is left at its zero value (0, itself a reserved SID)
// otherwise, so callers must check HasSID before trusting it.
type Error struct {
	Kind    Kind
	Message string
	SID     uint64
	HasSID  bool
}

func (e *Error) Error() string {
	if e.HasSID {
		return fmt.Sprintf("%s: %s (sid=%d)", e.Kind, e.Message, e.SID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a plain Error of the given kind.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// WithSID builds an Error of the given kind carrying an offending SID.
func WithSID(k Kind, sid uint64, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...), SID: sid, HasSID: true}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Errors is a slice of error: an accumulator that renders as a single
// comma-joined message.
type Errors []error

// Error implements the error interface.
func (e Errors) Error() string {
	return ToString([]error(e))
}

// NewErrs returns a slice of error with a single element err, or nil if
// err is nil.
func NewErrs(err error) Errors {
	if err == nil {
		return nil
	}
	return []error{err}
}

// AppendErr appends err to errs if it is not nil.
func AppendErr(errs []error, err error) Errors {
	if err == nil {
		return errs
	}
	return append(errs, err)
}

// ToString renders a slice of errors as a comma-joined string, skipping
// nils.
func ToString(errs []error) string {
	var out string
	first := true
	for _, e := range errs {
		if e == nil {
			continue
		}
		if !first {
			out += ", "
		}
		out += e.Error()
		first = false
	}
	return out
}

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

// Package coapmsg defines the transport-agnostic Request/Response types
// shared between reqhandler and reqbuilder and whatever CoAP transport a
// caller plugs in. It is intentionally data-only: no sockets, no
// callbacks, no retransmission state. A transport adapter's entire job is
// translating actual CoAP datagrams into these structs and back.
package coapmsg

import "strings"

// Method is a CORECONF verb, carried as the CoAP method code.
type Method int

const (
	// MethodGET requests a snapshot of the whole datastore or a subtree.
	MethodGET Method = 1 // CoAP 0.01
	// MethodPOST invokes an RPC/action.
	MethodPOST Method = 2 // CoAP 0.02
	// MethodFETCH reads a selected set of SIDs.
	MethodFETCH Method = 5 // CoAP 0.05
	// MethodIPATCH applies a set-and-delete update.
	MethodIPATCH Method = 7 // CoAP 0.07
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPOST:
		return "POST"
	case MethodFETCH:
		return "FETCH"
	case MethodIPATCH:
		return "iPATCH"
	default:
		return "UNKNOWN"
	}
}

// Code is a CoAP response code in class.detail form, e.g. Changed is
// 2.04, encoded as the single byte (class<<5)|detail per RFC 7252 §3.
type Code uint8

func NewCode(class, detail uint8) Code {
	return Code(class<<5 | detail&0x1f)
}

// Class returns the response code's class (2 = success, 4 = client error,
// 5 = server error).
func (c Code) Class() uint8 { return uint8(c) >> 5 }

// Detail returns the response code's detail digit.
func (c Code) Detail() uint8 { return uint8(c) & 0x1f }

func (c Code) String() string {
	return string(rune('0'+c.Class())) + "." + twoDigit(c.Detail())
}

func twoDigit(d uint8) string {
	return string([]byte{'0' + d/10, '0' + d%10})
}

// Response codes used by RequestHandler.
var (
	CodeContent                  = NewCode(2, 5)  // 2.05 Content
	CodeChanged                  = NewCode(2, 4)  // 2.04 Changed
	CodeCreated                  = NewCode(2, 1)  // 2.01 Created
	CodeBadRequest               = NewCode(4, 0)  // 4.00 Bad Request
	CodeNotFound                 = NewCode(4, 4)  // 4.04 Not Found
	CodeRequestEntityIncomplete  = NewCode(4, 8)  // 4.08 Request Entity Incomplete
	CodeUnsupportedContentFormat = NewCode(4, 15) // 4.15 Unsupported Content-Format
	CodeInternalServerError      = NewCode(5, 0)  // 5.00 Internal Server Error
)

// ContentFormatYANGDataCBOR is the CoAP Content-Format option value for
// application/yang-data+cbor.
const ContentFormatYANGDataCBOR = 140

// Option is one Uri-Path/Content-Format/Accept/Observe pair, kept generic
// (number + opaque bytes) so the transport boundary stays data-only;
// Request/Response expose typed accessors for the options the core
// actually reads.
type Option struct {
	Number uint16
	Value  []byte
}

// CoAP option numbers used by the core (RFC 7252 §12.2).
const (
	OptionUriPath       uint16 = 11
	OptionContentFormat uint16 = 12
	OptionAccept        uint16 = 17
	OptionObserve       uint16 = 6
)

// Request is an abstract CORECONF request: everything the core needs to
// dispatch a verb and decode its body, with no transport-specific
// framing.
type Request struct {
	Method        Method
	UriPath       []string // path segments, "c" first for the CORECONF prefix
	Options       []Option
	Payload       []byte
	ContentFormat int
}

// TargetPath renders the request's URI path (after the leading "c"
// CORECONF prefix segment, if present) as the textual instance-identifier
// RequestHandler resolves against the Datastore. An empty result means
// "the datastore root".
func (r Request) TargetPath() string {
	segs := r.UriPath
	if len(segs) > 0 && segs[0] == "c" {
		segs = segs[1:]
	}
	if len(segs) == 0 {
		return ""
	}
	return "/" + strings.Join(segs, "/")
}

// Response is an abstract CORECONF response.
type Response struct {
	Code          Code
	Options       []Option
	Payload       []byte
	ContentFormat int
}

// NewResponse builds a Response carrying payload with the CORECONF
// Content-Format, unless payload is empty (a successful iPATCH has no
// body and so no Content-Format option).
func NewResponse(code Code, payload []byte) Response {
	resp := Response{Code: code, Payload: payload}
	if len(payload) > 0 {
		resp.ContentFormat = ContentFormatYANGDataCBOR
		resp.Options = append(resp.Options, Option{Number: OptionContentFormat, Value: encodeUint(ContentFormatYANGDataCBOR)})
	}
	return resp
}

// NewErrorResponse builds an error Response carrying diagnostic as a
// plain-text payload (RFC 7252 §5.5.2), so a failing request reports
// which SID and error kind rejected it without a structured body format.
func NewErrorResponse(code Code, diagnostic string) Response {
	resp := Response{Code: code}
	if diagnostic != "" {
		resp.Payload = []byte(diagnostic)
	}
	return resp
}

func encodeUint(v int) []byte {
	if v == 0 {
		return nil
	}
	var b []byte
	for v > 0 {
		b = append([]byte{byte(v & 0xff)}, b...)
		v >>= 8
	}
	return b
}

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

package coapmsg

import "testing"

func TestCodeString(t *testing.T) {
	cases := []struct {
		code Code
		want string
	}{
		{CodeContent, "2.05"},
		{CodeChanged, "2.04"},
		{CodeCreated, "2.01"},
		{CodeNotFound, "4.04"},
		{CodeRequestEntityIncomplete, "4.08"},
		{CodeUnsupportedContentFormat, "4.15"},
		{CodeInternalServerError, "5.00"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Errorf("Code(%d).String() = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestTargetPath(t *testing.T) {
	cases := []struct {
		segs []string
		want string
	}{
		{nil, ""},
		{[]string{"c"}, ""},
		{[]string{"c", "ietf-schc:schc"}, "/ietf-schc:schc"},
		{[]string{"c", "ietf-schc:schc", "rule"}, "/ietf-schc:schc/rule"},
	}
	for _, c := range cases {
		req := Request{UriPath: c.segs}
		if got := req.TargetPath(); got != c.want {
			t.Errorf("TargetPath(%v) = %q, want %q", c.segs, got, c.want)
		}
	}
}

func TestNewResponseOmitsContentFormatForEmptyBody(t *testing.T) {
	resp := NewResponse(CodeChanged, nil)
	if resp.ContentFormat != 0 {
		t.Errorf("empty-body response ContentFormat = %d, want 0", resp.ContentFormat)
	}
	if len(resp.Options) != 0 {
		t.Errorf("empty-body response Options = %v, want none", resp.Options)
	}

	resp = NewResponse(CodeContent, []byte{0xa0})
	if resp.ContentFormat != ContentFormatYANGDataCBOR {
		t.Errorf("ContentFormat = %d, want %d", resp.ContentFormat, ContentFormatYANGDataCBOR)
	}
}

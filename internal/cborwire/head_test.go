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

package cborwire

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeHeadRoundTrip(t *testing.T) {
	tests := []struct {
		major    byte
		argument uint64
	}{
		{MajorUnsigned, 0},
		{MajorUnsigned, 23},
		{MajorUnsigned, 24},
		{MajorUnsigned, 255},
		{MajorUnsigned, 256},
		{MajorUnsigned, 65535},
		{MajorUnsigned, 65536},
		{MajorMap, 2},
		{MajorArray, 0},
	}
	for _, tt := range tests {
		buf := EncodeHead(nil, tt.major, tt.argument)
		head, err := ReadHead(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("ReadHead(%v) failed: %v", buf, err)
		}
		if head.Major != tt.major || head.Argument != tt.argument {
			t.Errorf("ReadHead(EncodeHead(%d, %d)) = (%d, %d)", tt.major, tt.argument, head.Major, head.Argument)
		}
	}
}

func TestMapHeaderMatchesKnownEncoding(t *testing.T) {
	// A map of one pair: 0xa1 per the RFC 8949 examples.
	got := MapHeader(1)
	want := []byte{0xa1}
	if !bytes.Equal(got, want) {
		t.Errorf("MapHeader(1) = % x, want % x", got, want)
	}
}

func TestItemLengthScalar(t *testing.T) {
	buf := EncodeHead(nil, MajorUnsigned, 7)
	n, err := ItemLength(buf)
	if err != nil {
		t.Fatalf("ItemLength() failed: %v", err)
	}
	if n != len(buf) {
		t.Errorf("ItemLength() = %d, want %d", n, len(buf))
	}
}

func TestItemLengthNestedMap(t *testing.T) {
	// {1: {1: 7}} encoded by hand: a1 01 a1 01 07
	inner := append(EncodeHead(nil, MajorMap, 1), EncodeHead(nil, MajorUnsigned, 1)...)
	inner = append(inner, EncodeHead(nil, MajorUnsigned, 7)...)
	outer := append(EncodeHead(nil, MajorMap, 1), EncodeHead(nil, MajorUnsigned, 1)...)
	outer = append(outer, inner...)

	n, err := ItemLength(outer)
	if err != nil {
		t.Fatalf("ItemLength() failed: %v", err)
	}
	if n != len(outer) {
		t.Errorf("ItemLength() = %d, want %d", n, len(outer))
	}
}

func TestReadHeadRejectsReservedAdditionalInfo(t *testing.T) {
	_, err := ReadHead(bytes.NewReader([]byte{0x1c})) // major 0, info 28 (reserved)
	if err == nil {
		t.Fatal("ReadHead() of reserved additional info succeeded, want error")
	}
}

func TestItemLengthRejectsIndefinite(t *testing.T) {
	_, err := ItemLength([]byte{0x9f}) // indefinite-length array head
	if err == nil {
		t.Fatal("ItemLength() of indefinite-length item succeeded, want error")
	}
}

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

package instancepath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samsirohi11/coreconf/internal/coreerr"
	"github.com/samsirohi11/coreconf/sidindex"
)

// RenderPath renders p as a textual YANG instance identifier, e.g.
// "/ietf-schc:schc/rule[rule-id=7]/rule-id", the human-editable companion
// to the binary form Encode/Decode produce.
func RenderPath(reg Registry, p InstancePath) (string, error) {
	var b strings.Builder
	pendingKeys := 0
	prevPath := ""
	for _, el := range p.Elements {
		item, ok := reg.PathOf(el.SID)
		if !ok {
			return "", coreerr.WithSID(coreerr.UnknownSid, el.SID, "instancepath: rendering unknown sid")
		}
		if el.Key {
			if pendingKeys == 0 {
				return "", coreerr.New(coreerr.Internal, "instancepath: unexpected key element")
			}
			name := lastSegment(item.Path)
			fmt.Fprintf(&b, "[%s=%s]", name, renderValue(el.Value))
			pendingKeys--
			continue
		}
		b.WriteByte('/')
		b.WriteString(strings.TrimPrefix(item.Path, prevPath+"/"))
		prevPath = item.Path
		if item.Hint == sidindex.HintList {
			pendingKeys = len(reg.ListKeys(el.SID))
		}
	}
	return b.String(), nil
}

func renderValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "\\'") + "'"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func lastSegment(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// ParsePath parses the textual form RenderPath produces back into an
// InstancePath, resolving each schema segment and key leaf name against
// reg.
func ParsePath(reg interface {
	Registry
	SIDOf(path string) (uint64, bool)
}, s string) (InstancePath, error) {
	var out InstancePath
	if s == "" {
		return out, nil
	}

	segs := splitSegments(s)
	path := ""
	for _, seg := range segs {
		name, predicates, err := splitPredicates(seg)
		if err != nil {
			return InstancePath{}, err
		}
		path += "/" + name
		sid, ok := reg.SIDOf(path)
		if !ok {
			return InstancePath{}, coreerr.New(coreerr.PathInvalid, "instancepath: path %q does not resolve", path)
		}
		out.Elements = append(out.Elements, Leaf(sid))

		if len(predicates) == 0 {
			continue
		}
		for _, pred := range predicates {
			keyName, rawVal, err := splitKeyValue(pred)
			if err != nil {
				return InstancePath{}, err
			}
			keySID, ok := reg.SIDOf(path + "/" + keyName)
			if !ok {
				return InstancePath{}, coreerr.New(coreerr.PathInvalid, "instancepath: key leaf %q does not resolve under %q", keyName, path)
			}
			item, _ := reg.PathOf(keySID)
			v, err := parseValue(item.Hint, rawVal)
			if err != nil {
				return InstancePath{}, err
			}
			out.Elements = append(out.Elements, KeyValue(keySID, v))
		}
	}
	return out, nil
}

func splitSegments(s string) []string {
	var segs []string
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			continue
		}
		segs = append(segs, part)
	}
	return segs
}

// splitPredicates splits "rule[rule-id=7][other=1]" into ("rule",
// ["rule-id=7", "other=1"]).
func splitPredicates(seg string) (string, []string, error) {
	i := strings.IndexByte(seg, '[')
	if i < 0 {
		return seg, nil, nil
	}
	name := seg[:i]
	rest := seg[i:]
	var preds []string
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, coreerr.New(coreerr.PathInvalid, "instancepath: malformed predicate in %q", seg)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, coreerr.New(coreerr.PathInvalid, "instancepath: unterminated predicate in %q", seg)
		}
		preds = append(preds, rest[1:end])
		rest = rest[end+1:]
	}
	return name, preds, nil
}

func splitKeyValue(pred string) (key, value string, err error) {
	i := strings.IndexByte(pred, '=')
	if i < 0 {
		return "", "", coreerr.New(coreerr.PathInvalid, "instancepath: malformed key predicate %q", pred)
	}
	return pred[:i], strings.Trim(pred[i+1:], "'"), nil
}

func parseValue(hint sidindex.Hint, raw string) (interface{}, error) {
	switch hint {
	case sidindex.HintUint:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, coreerr.New(coreerr.TypeMismatch, "instancepath: %q is not a uint: %v", raw, err)
		}
		return u, nil
	case sidindex.HintInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, coreerr.New(coreerr.TypeMismatch, "instancepath: %q is not an int: %v", raw, err)
		}
		return i, nil
	case sidindex.HintBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, coreerr.New(coreerr.TypeMismatch, "instancepath: %q is not a boolean: %v", raw, err)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// Copyright 2015 Google Inc. All rights reserved
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

package brubuild

import (
	"os"
	"strings"
	"unicode"

	"github.com/golang/glog"
)

// Discoverer runs the preprocessor once per Object to learn its current
// header dependencies, implementing spec §4.3. It is invoked at most once
// per scheduled build of a given Object (the "at-most-once" invariant).
// Every call runs the preprocessor: results from a previous build are not
// reused from the cache, even when the source and effective options are
// unchanged.
type Discoverer struct {
	CCPath, CXXPath string
	SystemDirs      []string // excluded from edges per spec §4.3's system-header rule
}

// DiscoverArgv runs `<tool> -M -MF <tmp>` for t's compilable input, using
// argv (t's effective preprocessor + compiler flags) and populates
// t.HeaderDeps / t.DepIDs with every dependency that is not a system header.
// Generated sources are resolved to their current on-disk path before the
// preprocessor sees them; the generator itself is tracked separately via
// t.GeneratorScript (oracle.go rule 3), not as a header dependency.
func (d *Discoverer) DiscoverArgv(t *Target, argv []string) error {
	if t.Kind != KindObject {
		return nil
	}
	tool := d.toolFor(t.Lang)
	if tool == "" {
		return &DiscoveryError{Target: t.OutputPath, Msg: "no preprocessor configured for language"}
	}

	tmp, err := os.CreateTemp("", "brubuild-dep-*.d")
	if err != nil {
		return &DiscoveryError{Target: t.OutputPath, Msg: err.Error()}
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	args := append([]string{}, argv...)
	args = append(args, "-M", "-MF", tmpName, "-c", t.CompilableInput)
	cmd := Command{Path: tool, Args: args}
	res := cmd.Run()
	if !res.Success() {
		return &DiscoveryError{Target: t.OutputPath, Msg: string(res.Combined)}
	}

	buf, err := os.ReadFile(tmpName)
	if err != nil {
		return &DiscoveryError{Target: t.OutputPath, Msg: err.Error()}
	}
	deps, err := parseDepFile(string(buf))
	if err != nil {
		return &DiscoveryError{Target: t.OutputPath, Msg: err.Error()}
	}

	t.HeaderDeps = t.HeaderDeps[:0]
	added := make(map[string]bool, len(deps))
	for _, dep := range deps {
		if dep == t.CompilableInput {
			continue
		}
		if d.isSystemHeader(dep) {
			continue
		}
		if added[dep] {
			continue
		}
		added[dep] = true
		t.AddHeaderDep(dep)
	}
	glog.V(2).Infof("discovery: %s: %d header deps", t.OutputPath, len(t.HeaderDeps))
	return nil
}

func (d *Discoverer) toolFor(lang Language) string {
	switch lang {
	case LangC:
		return d.CCPath
	case LangCXX:
		return d.CXXPath
	case LangAsm:
		return d.CCPath
	default:
		return ""
	}
}

func (d *Discoverer) isSystemHeader(path string) bool {
	for _, dir := range d.SystemDirs {
		if strings.HasPrefix(path, dir) {
			return true
		}
	}
	return false
}

// parseDepFile parses GCC/Clang -M output: a Makefile rule of the form
//
//	target: dep1 dep2 \
//	  dep3 dep4
//
// Backslash-newline continuations are collapsed before splitting on
// whitespace; this is the same two-step shape (join continuations, then
// scan space-delimited tokens honoring one escape form) that a dependency
// file parser for any make-flavored -M output follows, adapted here for the
// plain, unquoted GCC/Clang dialect rather than NMake's quoted one.
func parseDepFile(s string) ([]string, error) {
	s = strings.ReplaceAll(s, "\\\n", " ")
	s = strings.ReplaceAll(s, "\\\r\n", " ")

	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return nil, nil
	}
	rest := s[idx+1:]

	var deps []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			deps = append(deps, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(rest); i++ {
		c := rune(rest[i])
		switch {
		case c == '\\' && i+1 < len(rest) && rest[i+1] == ' ':
			cur.WriteByte(' ')
			i++
		case unicode.IsSpace(c):
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return deps, nil
}

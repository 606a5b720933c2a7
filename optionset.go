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
	"fmt"

	"github.com/golang/glog"
)

// ProcessorKind is the set of distinct option vocabularies an OptionSet can
// be bound to. Linker sets come in four flavors because the cc/cxx driver
// and the lib/exe output shape each affect which flags are legal.
type ProcessorKind int

const (
	ProcCPP ProcessorKind = iota
	ProcCC
	ProcCXX
	ProcAS
	ProcLDCCLib
	ProcLDCXXLib
	ProcLDCCExec
	ProcLDCXXExec
)

func (p ProcessorKind) String() string {
	switch p {
	case ProcCPP:
		return "cpp"
	case ProcCC:
		return "cc"
	case ProcCXX:
		return "cxx"
	case ProcAS:
		return "as"
	case ProcLDCCLib:
		return "ld-cc-lib"
	case ProcLDCXXLib:
		return "ld-cxx-lib"
	case ProcLDCCExec:
		return "ld-cc-exec"
	case ProcLDCXXExec:
		return "ld-cxx-exec"
	default:
		return "unknown"
	}
}

func (p ProcessorKind) isLinker() bool {
	switch p {
	case ProcLDCCLib, ProcLDCXXLib, ProcLDCCExec, ProcLDCXXExec:
		return true
	}
	return false
}

// OptionSet is an ordered, validated, duplicate-free sequence of Options for
// one ProcessorKind. Linker sets split into pre- and post-object sequences
// because -L/-l/-Wl,... ordering relative to the object file list matters to
// the linker.
type OptionSet struct {
	Kind ProcessorKind
	pre  []Option
	post []Option
}

// NewOptionSet returns an empty set bound to kind.
func NewOptionSet(kind ProcessorKind) *OptionSet {
	return &OptionSet{Kind: kind}
}

func (s *OptionSet) all() []Option {
	if !s.Kind.isLinker() {
		return s.pre
	}
	all := make([]Option, 0, len(s.pre)+len(s.post))
	all = append(all, s.pre...)
	all = append(all, s.post...)
	return all
}

// isPostObject classifies a linker Option as belonging after the object
// file list: -l, -L, and any -Wl, pass-through.
func isPostObject(o Option) bool {
	switch o.Name {
	case "-l", "-L", "-Wl,", "-Wl,-rpath", "-Wl,-soname":
		return true
	}
	return false
}

// conflictKey identifies the class of Option that a second add() of the
// same class must resolve (evict-or-reject). Returns "" for options with
// no conflict class (they simply append).
func conflictKey(o Option) string {
	switch o.Name {
	case "-D", "-U":
		return "define:" + o.Key
	case "-O":
		return "optlevel"
	case "-install_name", "-compatibility_version", "-current_version":
		return "single:" + o.Name
	case "-m":
		return "single:-m"
	}
	if len(o.Name) >= 2 && o.Name[:2] == "-W" && o.Kind == KindCompiler {
		return "warning:" + o.Key
	}
	return ""
}

// Add inserts opt, applying the conflict-resolution rules for its class. If
// replace is false, any conflict is a configuration error; if true, the
// earlier entry is evicted and a message logged at V(1).
func (s *OptionSet) Add(opt Option, replace bool) error {
	if err := opt.validate(); err != nil {
		return err
	}
	target := &s.pre
	if s.Kind.isLinker() && isPostObject(opt) {
		target = &s.post
	}

	for _, existing := range *target {
		if existing.Equal(opt) {
			if !replace {
				return fmt.Errorf("configuration error: duplicate option %q", opt.Render())
			}
			glog.V(1).Infof("optionset: keeping existing %q over duplicate", opt.Render())
			return nil
		}
	}

	key := conflictKey(opt)
	if key != "" {
		for i, existing := range *target {
			if conflictKey(existing) != key {
				continue
			}
			if optionsDiffer(existing, opt) {
				if !replace {
					return fmt.Errorf("configuration error: %q conflicts with existing %q", opt.Render(), existing.Render())
				}
				glog.V(1).Infof("optionset: evicting %q for %q", existing.Render(), opt.Render())
				(*target)[i] = opt
				return nil
			}
			// identical-class, identical value: treat as duplicate append skip.
			return nil
		}
	}

	*target = append(*target, opt)
	return nil
}

// optionsDiffer reports whether two Options sharing a conflictKey actually
// disagree (e.g. -DFOO vs -UFOO, or -O2 vs -O3) as opposed to being the same
// value re-declared.
func optionsDiffer(a, b Option) bool {
	if a.Name == "-D" || a.Name == "-U" {
		// Same symbol, opposite or differing polarity/value is a conflict
		// unless they are the exact same define (caught by Equal earlier).
		return true
	}
	if a.Name == "-O" {
		return a.Param != b.Param
	}
	if len(a.Name) >= 2 && a.Name[:2] == "-W" {
		return a.Negation != b.Negation || a.Value != b.Value
	}
	return a.Param != b.Param || a.Negation != b.Negation
}

// Options returns the ordered contents (pre then post for linker sets).
func (s *OptionSet) Options() []Option {
	return s.all()
}

// Argv renders every Option in declared order into argv tokens. No shell
// interpolation occurs: these tokens are passed directly to exec.Cmd.Args.
// For linker sets this flattens pre ++ post; callers that must interleave
// the object file list between the two use PreArgv/PostArgv instead.
func (s *OptionSet) Argv() []string {
	var argv []string
	for _, o := range s.all() {
		argv = append(argv, o.Tokens()...)
	}
	return argv
}

// PreArgv renders the options that precede the object file list on a
// linker command line. For non-linker sets it is identical to Argv.
func (s *OptionSet) PreArgv() []string {
	var argv []string
	for _, o := range s.pre {
		argv = append(argv, o.Tokens()...)
	}
	return argv
}

// PostArgv renders the -L/-l/-Wl,... options that must follow the object
// file list on a linker command line. Empty for non-linker sets.
func (s *OptionSet) PostArgv() []string {
	var argv []string
	for _, o := range s.post {
		argv = append(argv, o.Tokens()...)
	}
	return argv
}

// Equal reports whether two OptionSets have the same Kind and the same
// ordered contents. Persistence relies on this for "options changed"
// detection.
func (s *OptionSet) Equal(other *OptionSet) bool {
	if s.Kind != other.Kind {
		return false
	}
	a, b := s.all(), other.all()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Hash folds Kind and every Option's Hash, in order, into a single value.
func (s *OptionSet) Hash() uint64 {
	h := uint64(1469598103934665603) ^ uint64(s.Kind)
	for _, o := range s.all() {
		h = (h ^ o.Hash()) * 1099511628211
	}
	return h
}

// Clone returns an independent copy, used to materialize per-target
// overrides lazily.
func (s *OptionSet) Clone() *OptionSet {
	c := &OptionSet{Kind: s.Kind}
	c.pre = append([]Option(nil), s.pre...)
	c.post = append([]Option(nil), s.post...)
	return c
}

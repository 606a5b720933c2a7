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

import "testing"

func addTok(t *testing.T, s *OptionSet, kind Kind, tok string, replace bool) error {
	t.Helper()
	opts, err := Parse(kind, []string{tok})
	if err != nil {
		t.Fatalf("Parse(%q): %v", tok, err)
	}
	return s.Add(opts[0], replace)
}

func TestOptionSetDuplicateRejectedWithoutReplace(t *testing.T) {
	s := NewOptionSet(ProcCC)
	if err := addTok(t, s, KindCompiler, "-fPIC", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindCompiler, "-fPIC", false); err == nil {
		t.Errorf("duplicate -fPIC accepted without replace")
	}
	if err := addTok(t, s, KindCompiler, "-fPIC", true); err != nil {
		t.Errorf("duplicate -fPIC rejected with replace=true: %v", err)
	}
}

func TestOptionSetDefineUndefineConflict(t *testing.T) {
	s := NewOptionSet(ProcCPP)
	if err := addTok(t, s, KindPreprocessor, "-DFOO", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindPreprocessor, "-UFOO", false); err == nil {
		t.Errorf("-UFOO accepted over existing -DFOO without replace")
	}
	if err := addTok(t, s, KindPreprocessor, "-UFOO", true); err != nil {
		t.Errorf("-UFOO rejected over existing -DFOO with replace=true: %v", err)
	}
	opts := s.Options()
	if len(opts) != 1 || opts[0].Name != "-U" {
		t.Errorf("expected -UFOO to evict -DFOO, got %v", opts)
	}
}

func TestOptionSetWarningConflict(t *testing.T) {
	s := NewOptionSet(ProcCC)
	if err := addTok(t, s, KindCompiler, "-Wshadow", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindCompiler, "-Wno-shadow", false); err == nil {
		t.Errorf("-Wno-shadow accepted over -Wshadow without replace")
	}
	if err := addTok(t, s, KindCompiler, "-Wno-shadow", true); err != nil {
		t.Errorf("-Wno-shadow rejected with replace=true: %v", err)
	}
}

// TestOptionSetDistinctWarningsBothAppend guards against collapsing every
// valueless warning onto one conflict key: -Wall and -Wextra name different
// warnings and must both survive, not evict one another.
func TestOptionSetDistinctWarningsBothAppend(t *testing.T) {
	s := NewOptionSet(ProcCC)
	if err := addTok(t, s, KindCompiler, "-Wall", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindCompiler, "-Wextra", false); err != nil {
		t.Fatal(err)
	}
	opts := s.Options()
	if len(opts) != 2 {
		t.Fatalf("got %d options, want 2 (-Wall and -Wextra both kept): %v", len(opts), opts)
	}
	argv := s.Argv()
	if len(argv) != 2 || argv[0] != "-Wall" || argv[1] != "-Wextra" {
		t.Errorf("Argv() = %v, want [-Wall -Wextra]", argv)
	}
}

func TestOptionSetSecondOptLevelConflict(t *testing.T) {
	s := NewOptionSet(ProcCC)
	if err := addTok(t, s, KindCompiler, "-O2", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindCompiler, "-O3", false); err == nil {
		t.Errorf("second -O accepted without replace")
	}
	if err := addTok(t, s, KindCompiler, "-O3", true); err != nil {
		t.Errorf("second -O rejected with replace=true: %v", err)
	}
	if got := s.Options()[0].Param; got != "3" {
		t.Errorf("-O level = %q, want 3", got)
	}
}

func TestOptionSetLinkerPrePostSplit(t *testing.T) {
	s := NewOptionSet(ProcLDCCExec)
	if err := addTok(t, s, KindLinker, "-shared", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindLinker, "-lfoo", false); err != nil {
		t.Fatal(err)
	}
	if err := addTok(t, s, KindLinker, "-Lbuild/lib", false); err != nil {
		t.Fatal(err)
	}
	argv := s.Argv()
	if len(argv) != 3 || argv[0] != "-shared" {
		t.Errorf("Argv() = %v, want [-shared ...] with pre-object flags first", argv)
	}
}

func TestOptionSetEqualHash(t *testing.T) {
	a := NewOptionSet(ProcCC)
	b := NewOptionSet(ProcCC)
	for _, tok := range []string{"-fPIC", "-O2"} {
		if err := addTok(t, a, KindCompiler, tok, false); err != nil {
			t.Fatal(err)
		}
		if err := addTok(t, b, KindCompiler, tok, false); err != nil {
			t.Fatal(err)
		}
	}
	if !a.Equal(b) {
		t.Errorf("identical OptionSets not Equal")
	}
	if a.Hash() != b.Hash() {
		t.Errorf("identical OptionSets have different hashes")
	}
	if err := addTok(t, b, KindCompiler, "-g", false); err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Errorf("OptionSets with different contents compared Equal")
	}
}

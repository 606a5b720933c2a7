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

func TestParseDepFileSingleLine(t *testing.T) {
	deps, err := parseDepFile("foo.o: foo.c foo.h bar.h\n")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"foo.c", "foo.h", "bar.h"}
	if !equalStrings(deps, want) {
		t.Errorf("parseDepFile = %v, want %v", deps, want)
	}
}

func TestParseDepFileContinuations(t *testing.T) {
	input := "foo.o: foo.c \\\n  foo.h \\\n  sub/bar.h\n"
	deps, err := parseDepFile(input)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"foo.c", "foo.h", "sub/bar.h"}
	if !equalStrings(deps, want) {
		t.Errorf("parseDepFile = %v, want %v", deps, want)
	}
}

func TestParseDepFileEscapedSpace(t *testing.T) {
	input := `foo.o: foo.c my\ dir/bar.h` + "\n"
	deps, err := parseDepFile(input)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"foo.c", "my dir/bar.h"}
	if !equalStrings(deps, want) {
		t.Errorf("parseDepFile = %v, want %v", deps, want)
	}
}

func TestParseDepFileNoColonIsEmpty(t *testing.T) {
	deps, err := parseDepFile("not a make rule\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 0 {
		t.Errorf("parseDepFile = %v, want empty", deps)
	}
}

func TestDiscovererToolForLanguage(t *testing.T) {
	d := &Discoverer{CCPath: "/usr/bin/cc", CXXPath: "/usr/bin/c++"}
	if got := d.toolFor(LangC); got != "/usr/bin/cc" {
		t.Errorf("toolFor(LangC) = %q", got)
	}
	if got := d.toolFor(LangCXX); got != "/usr/bin/c++" {
		t.Errorf("toolFor(LangCXX) = %q", got)
	}
	if got := d.toolFor(LangAsm); got != "/usr/bin/cc" {
		t.Errorf("toolFor(LangAsm) = %q, want the C driver to assemble", got)
	}
}

func TestDiscovererIsSystemHeader(t *testing.T) {
	d := &Discoverer{SystemDirs: []string{"/usr/include", "/usr/lib/gcc/x86_64-linux-gnu/12/include"}}
	if !d.isSystemHeader("/usr/include/stdio.h") {
		t.Errorf("stdio.h under /usr/include not classified as system header")
	}
	if d.isSystemHeader("/home/user/project/foo.h") {
		t.Errorf("project-local header misclassified as system header")
	}
}

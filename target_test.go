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

func TestNewObjectDepsOnCompilableInput(t *testing.T) {
	obj := NewObject("/out/foo_debug.o", "/src/foo.c", LangC)
	if len(obj.DepIDs) != 1 || obj.DepIDs[0] != "/src/foo.c" {
		t.Errorf("NewObject DepIDs = %v, want [/src/foo.c]", obj.DepIDs)
	}
	if obj.HasBuildCommand() == false {
		t.Errorf("Object.HasBuildCommand() = false, want true")
	}
}

func TestSourceHasNoBuildCommand(t *testing.T) {
	src := NewSource("/src/foo.c", 1234)
	if src.HasBuildCommand() {
		t.Errorf("Source.HasBuildCommand() = true, want false")
	}
}

func TestAddHeaderDepIsIdempotent(t *testing.T) {
	obj := NewObject("/out/foo_debug.o", "/src/foo.c", LangC)
	obj.AddHeaderDep("/src/foo.h")
	obj.AddHeaderDep("/src/bar.h")
	obj.AddHeaderDep("/src/foo.h")
	if len(obj.HeaderDeps) != 2 {
		t.Fatalf("HeaderDeps = %v, want 2 unique entries", obj.HeaderDeps)
	}
	if len(obj.DepIDs) != 3 { // compilable input + 2 headers
		t.Fatalf("DepIDs = %v, want 3 entries", obj.DepIDs)
	}
}

func TestLibraryAndExecutableDepOrdering(t *testing.T) {
	lib := NewStaticLibrary("/out/libfoo.a", []string{"/out/a.o", "/out/b.o"})
	if len(lib.DepIDs) != 2 || lib.DepIDs[0] != "/out/a.o" {
		t.Errorf("StaticLibrary DepIDs = %v", lib.DepIDs)
	}

	exe := NewExecutable("/out/prog", []string{"/out/main.o"}, []string{"/out/libfoo.a"}, []string{"foo"}, false)
	if len(exe.DepIDs) != 2 || exe.DepIDs[0] != "/out/main.o" || exe.DepIDs[1] != "/out/libfoo.a" {
		t.Errorf("Executable DepIDs = %v, want objects before libraries", exe.DepIDs)
	}
}

func TestOutputNaming(t *testing.T) {
	if got := ObjectOutputName("/out/foo", BuildOptimized); got != "/out/foo_optimized.o" {
		t.Errorf("ObjectOutputName = %q", got)
	}
	if got := LibraryOutputName("/out/libfoo", BuildRelease, LinkStatic, ""); got != "/out/libfoo_release_static" {
		t.Errorf("LibraryOutputName(static) = %q", got)
	}
	if got := LibraryOutputName("/out/libfoo", BuildRelease, LinkDynamic, "1.2.3"); got != "/out/libfoo_release_dynamic.1.2.3" {
		t.Errorf("LibraryOutputName(dynamic, versioned) = %q", got)
	}
	if got := ExecutableOutputName("/out/prog", BuildDebug); got != "/out/prog_debug" {
		t.Errorf("ExecutableOutputName = %q", got)
	}
}

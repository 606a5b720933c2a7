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

func TestCompileArgvCombinesPreprocessorAndLanguageSets(t *testing.T) {
	proj := NewProject(BuildOptimized)
	globals := NewOptionGroup(BuildOptimized)
	if err := globals.Add(ProcCPP, []string{"-DFOO", "-Iinclude"}, false, false); err != nil {
		t.Fatal(err)
	}
	if err := globals.Add(ProcCC, []string{"-fPIC"}, false, false); err != nil {
		t.Fatal(err)
	}
	if err := globals.Add(ProcCXX, []string{"-std=c++17"}, false, false); err != nil {
		t.Fatal(err)
	}
	proj.SetGlobals(globals)

	cObj := NewObject("/out/a_optimized.o", "/src/a.c", LangC)
	argv := compileArgv(proj, cObj)
	want := []string{"-DFOO", "-Iinclude", "-fPIC"}
	if !equalStrings(argv, want) {
		t.Errorf("compileArgv(C) = %v, want %v", argv, want)
	}

	cxxObj := NewObject("/out/b_optimized.o", "/src/b.cc", LangCXX)
	argv = compileArgv(proj, cxxObj)
	want = []string{"-DFOO", "-Iinclude", "-std=c++17"}
	if !equalStrings(argv, want) {
		t.Errorf("compileArgv(CXX) = %v, want %v", argv, want)
	}
}

func TestCompileArgvUsesLocalOverride(t *testing.T) {
	proj := NewProject(BuildOptimized)
	globals := NewOptionGroup(BuildOptimized)
	if err := globals.Add(ProcCPP, []string{"-DFOO"}, false, false); err != nil {
		t.Fatal(err)
	}
	proj.SetGlobals(globals)

	obj := NewObject("/out/a_optimized.o", "/src/a.c", LangC)
	local := globals.Clone()
	if err := local.Add(ProcCPP, []string{"-DBAR"}, false, false); err != nil {
		t.Fatal(err)
	}
	obj.Local = local

	argv := compileArgv(proj, obj)
	want := []string{"-DFOO", "-DBAR"}
	if !equalStrings(argv, want) {
		t.Errorf("compileArgv with local override = %v, want %v", argv, want)
	}
}

func TestLinkKindForDispatchesOnKindAndDriver(t *testing.T) {
	cases := []struct {
		t    *Target
		want ProcessorKind
	}{
		{&Target{Kind: KindSharedLibrary, LinkedByCXX: false}, ProcLDCCLib},
		{&Target{Kind: KindSharedLibrary, LinkedByCXX: true}, ProcLDCXXLib},
		{&Target{Kind: KindExecutable, LinkedByCXX: false}, ProcLDCCExec},
		{&Target{Kind: KindExecutable, LinkedByCXX: true}, ProcLDCXXExec},
	}
	for _, tc := range cases {
		if got := linkKindFor(tc.t); got != tc.want {
			t.Errorf("linkKindFor(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestCommandForObject(t *testing.T) {
	d := &Driver{}
	obj := NewObject("/out/a.o", "/src/a.c", LangC)
	cmd, err := d.commandFor(obj, "/usr/bin/cc", []string{"-fPIC"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Path != "/usr/bin/cc" {
		t.Errorf("Path = %q", cmd.Path)
	}
	want := []string{"-fPIC", "-c", "/src/a.c", "-o", "/out/a.o"}
	if !equalStrings(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestCommandForStaticLibrary(t *testing.T) {
	d := &Driver{}
	lib := NewStaticLibrary("/out/libfoo.a", []string{"/out/a.o", "/out/b.o"})
	cmd, err := d.commandFor(lib, "ar", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Path != "ar" {
		t.Errorf("Path = %q, want ar", cmd.Path)
	}
	want := []string{"rcs", "/out/libfoo.a", "/out/a.o", "/out/b.o"}
	if !equalStrings(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestCommandForExecutablePreservesLinkOrder(t *testing.T) {
	d := &Driver{}
	exe := NewExecutable("/out/prog", []string{"/out/main.o"}, []string{"/out/libfoo.a", "/out/libbar.a"}, []string{"foo", "bar"}, false)
	linkSet := NewOptionSet(ProcLDCCExec)
	if err := linkSet.Add(Option{Name: "-static", Kind: KindLinker, ParamKind: ParamNone}, false); err != nil {
		t.Fatal(err)
	}
	cmd, err := d.commandFor(exe, "/usr/bin/cc", nil, linkSet)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-static", "/out/main.o", "-lfoo", "-lbar", "-o", "/out/prog"}
	if !equalStrings(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

// TestCommandForExecutableSplitsPrePostObjectFlags ensures -L/-l/-Wl,...
// options land after the object and -l library list, never before it,
// matching the linker's left-to-right symbol resolution (spec §3).
func TestCommandForExecutableSplitsPrePostObjectFlags(t *testing.T) {
	d := &Driver{}
	exe := NewExecutable("/out/prog", []string{"/out/main.o"}, []string{"/out/libfoo.a"}, []string{"foo"}, false)
	linkSet := NewOptionSet(ProcLDCCExec)
	if err := linkSet.Add(Option{Name: "-static", Kind: KindLinker, ParamKind: ParamNone}, false); err != nil {
		t.Fatal(err)
	}
	if err := linkSet.Add(Option{Name: "-L", Kind: KindLinker, ParamKind: ParamRequired, Param: "/opt/lib"}, false); err != nil {
		t.Fatal(err)
	}
	if err := linkSet.Add(Option{Name: "-l", Kind: KindLinker, ParamKind: ParamRequired, Param: "pthread"}, false); err != nil {
		t.Fatal(err)
	}
	cmd, err := d.commandFor(exe, "/usr/bin/cc", nil, linkSet)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"-static", "/out/main.o", "-lfoo", "-L/opt/lib", "-lpthread", "-o", "/out/prog"}
	if !equalStrings(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestCommandForGeneratedSource(t *testing.T) {
	d := &Driver{}
	gen := NewGeneratedSource("/out/gen.c", "/tools/gen.sh", []string{"/src/spec.txt"})
	cmd, err := d.commandFor(gen, "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Path != "/tools/gen.sh" {
		t.Errorf("Path = %q, want the generator script", cmd.Path)
	}
	want := []string{"/src/spec.txt", "/out/gen.c"}
	if !equalStrings(cmd.Args, want) {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestCommandForSourceHasNoBuildCommand(t *testing.T) {
	d := &Driver{}
	src := NewSource("/src/a.c", 1)
	if _, err := d.commandFor(src, "", nil, nil); err == nil {
		t.Errorf("commandFor(Source) succeeded, want configuration error")
	}
}

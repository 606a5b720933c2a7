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

import "fmt"

// Language is the source language of an Object, decided by the compilable
// source's extension.
type Language int

const (
	LangC Language = iota
	LangCXX
	LangAsm
)

func (l Language) String() string {
	switch l {
	case LangC:
		return "c"
	case LangCXX:
		return "cxx"
	case LangAsm:
		return "asm"
	default:
		return "unknown"
	}
}

// TargetKind discriminates the Target variants. The core keeps a closed set
// of variants as a tagged struct rather than the teacher's single DepNode
// shape, because each kind has genuinely distinct fields.
type TargetKind int

const (
	KindSource TargetKind = iota
	KindGeneratedSource
	KindObject
	KindStaticLibrary
	KindSharedLibrary
	KindExecutable
)

func (k TargetKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindGeneratedSource:
		return "generated-source"
	case KindObject:
		return "object"
	case KindStaticLibrary:
		return "static-library"
	case KindSharedLibrary:
		return "shared-library"
	case KindExecutable:
		return "executable"
	default:
		return "unknown"
	}
}

// Target is one node in the build DAG. Every Target variant is constructed
// through the NewXxx functions below so invariants ("exactly one compilable
// input", "linked by exactly one driver") hold from the moment the node
// exists.
type Target struct {
	Kind       TargetKind
	OutputPath string   // absolute
	DepIDs     []string // dependency target ids (OutputPath of each dependency)
	Local      *OptionGroup
	Rebuilt    bool

	// Source
	SourcePath string
	ModTime    int64

	// GeneratedSource
	GeneratorScript string // the script/tool that produces this file
	GeneratorInputs []string

	// Object
	CompilableInput string // SourcePath or GeneratedSource OutputPath
	Lang            Language
	HeaderDeps      []string // transitive closure, discovered, excludes system headers

	// StaticLibrary / SharedLibrary / Executable
	LinkedByCXX  bool     // which driver performs the link: cc (false) or cxx (true)
	ObjectIDs    []string // ordered
	LibraryIDs   []string // ordered, for -l resolution order
	LibraryNames []string // declared library name per LibraryIDs entry
}

func (t *Target) String() string {
	return fmt.Sprintf("Target{kind=%s output=%s deps=%d}", t.Kind, t.OutputPath, len(t.DepIDs))
}

// NewSource constructs a terminal Source target for a file already on disk.
func NewSource(path string, modTime int64) *Target {
	return &Target{Kind: KindSource, OutputPath: path, SourcePath: path, ModTime: modTime}
}

// NewGeneratedSource constructs a Target produced by an auxiliary command.
func NewGeneratedSource(outputPath, script string, inputs []string) *Target {
	deps := append([]string{script}, inputs...)
	return &Target{
		Kind:            KindGeneratedSource,
		OutputPath:      outputPath,
		DepIDs:          deps,
		GeneratorScript: script,
		GeneratorInputs: inputs,
	}
}

// NewObject constructs an Object depending on exactly one compilable input.
// Header dependencies are filled in later by Discovery; they are appended
// to DepIDs as they're found.
func NewObject(outputPath, compilableInput string, lang Language) *Target {
	return &Target{
		Kind:            KindObject,
		OutputPath:      outputPath,
		DepIDs:          []string{compilableInput},
		CompilableInput: compilableInput,
		Lang:            lang,
	}
}

// AddHeaderDep records a discovered header edge, keeping DepIDs and
// HeaderDeps in sync. Idempotent.
func (t *Target) AddHeaderDep(header string) {
	for _, h := range t.HeaderDeps {
		if h == header {
			return
		}
	}
	t.HeaderDeps = append(t.HeaderDeps, header)
	t.DepIDs = append(t.DepIDs, header)
}

// NewStaticLibrary constructs a library archived from objects.
func NewStaticLibrary(outputPath string, objectIDs []string) *Target {
	return &Target{Kind: KindStaticLibrary, OutputPath: outputPath, DepIDs: append([]string(nil), objectIDs...), ObjectIDs: objectIDs}
}

// NewSharedLibrary constructs a library linked from objects and other
// libraries, by either cc or cxx.
func NewSharedLibrary(outputPath string, objectIDs, libraryIDs, libraryNames []string, linkedByCXX bool) *Target {
	deps := append([]string(nil), objectIDs...)
	deps = append(deps, libraryIDs...)
	return &Target{
		Kind: KindSharedLibrary, OutputPath: outputPath, DepIDs: deps,
		ObjectIDs: objectIDs, LibraryIDs: libraryIDs, LibraryNames: libraryNames,
		LinkedByCXX: linkedByCXX,
	}
}

// NewExecutable constructs an executable linked from objects and libraries.
func NewExecutable(outputPath string, objectIDs, libraryIDs, libraryNames []string, linkedByCXX bool) *Target {
	deps := append([]string(nil), objectIDs...)
	deps = append(deps, libraryIDs...)
	return &Target{
		Kind: KindExecutable, OutputPath: outputPath, DepIDs: deps,
		ObjectIDs: objectIDs, LibraryIDs: libraryIDs, LibraryNames: libraryNames,
		LinkedByCXX: linkedByCXX,
	}
}

// HasBuildCommand reports whether the Scheduler must run a command to
// produce t. Raw Source targets are terminal (discovered by filesystem
// scan, never built); every other kind has a compile, archive, link, or
// generator command.
func (t *Target) HasBuildCommand() bool {
	switch t.Kind {
	case KindSource:
		return false
	default:
		return true
	}
}

// suffixForBuildType implements the "_${build_type}" naming rule.
func suffixForBuildType(bt BuildType) string {
	return "_" + bt.String()
}

// ObjectOutputName derives the object file name for a compilable input
// under the given build type.
func ObjectOutputName(base string, bt BuildType) string {
	return base + suffixForBuildType(bt) + ".o"
}

// LibraryOutputName derives a library's output name: build type always,
// link type for libraries only, since libraries additionally encode the
// link type.
func LibraryOutputName(base string, bt BuildType, lt LinkType, version string) string {
	name := base + suffixForBuildType(bt) + "_" + lt.String()
	if lt == LinkDynamic && version != "" {
		name += "." + version
	}
	return name
}

// ExecutableOutputName derives an executable's output name: build type
// only (link type does not apply to the executable's own suffix, though it
// does govern which libraries it resolves against).
func ExecutableOutputName(base string, bt BuildType) string {
	return base + suffixForBuildType(bt)
}

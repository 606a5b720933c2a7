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
	"path/filepath"
	"strings"
)

// This file is the narrow project-description interface: six operations
// (set_globals, add_library, add_executable, add_target_options,
// delete_target_options, register_generated_source) a front end (a config
// file reader, a flag parser, whatever a given deployment wants) drives to
// describe a build. The core never parses a project file itself; it only
// consumes calls against this type, the same separation the teacher draws
// between its Makefile evaluator and depgraph.go's consumer of the
// evaluated result.

// LibrarySpec is one {name, files, libs, linker} bundle entry.
type LibrarySpec struct {
	Name     string
	Files    []string // paths relative to an include root
	Libs     []string // names of libraries linked in, in order
	LinkedByCXX bool
	LinkType LinkType
	Version  string // only meaningful when LinkType == LinkDynamic
}

// ExecutableSpec is one executable bundle entry.
type ExecutableSpec struct {
	Name        string
	Files       []string
	Libs        []string
	LinkedByCXX bool
}

// GeneratedSourceSpec registers a rule producing a source file from a
// script and its inputs.
type GeneratedSourceSpec struct {
	OutputPath string
	Script     string
	Inputs     []string
}

// targetOptionEdit is one add_target_options/delete_target_options call,
// applied in the order received against the named target's Local override.
type targetOptionEdit struct {
	targetName string
	add        *OptionGroup
	remove     *OptionGroup
}

// Project accumulates a project description across calls to its six
// operations, then Build materializes it into a Graph.
type Project struct {
	globals    *OptionGroup
	roots      rootSet
	libraries  []LibrarySpec
	executables []ExecutableSpec
	generated  map[string]GeneratedSourceSpec // keyed by OutputPath
	edits      []targetOptionEdit
	defaults   []string
}

// NewProject constructs an empty Project for the given build type. The
// build type used for output naming is the global OptionGroup's, so a later
// SetGlobals replaces it along with the group.
func NewProject(bt BuildType) *Project {
	return &Project{
		globals:   NewOptionGroup(bt),
		generated: make(map[string]GeneratedSourceSpec),
	}
}

// SetGlobals installs the project's global OptionSet initializers. Later
// calls replace the prior globals wholesale.
func (p *Project) SetGlobals(g *OptionGroup) {
	p.globals = g
}

// SetRoots installs the bundle's include/exclude lists.
func (p *Project) SetRoots(includes, excludes []string) {
	p.roots = rootSet{Includes: includes, Excludes: excludes}
}

// SetDefaultTargets records the bundle's default target name list.
func (p *Project) SetDefaultTargets(names []string) {
	p.defaults = names
}

// AddLibrary declares one library bundle entry.
func (p *Project) AddLibrary(spec LibrarySpec) {
	p.libraries = append(p.libraries, spec)
}

// AddExecutable declares one executable bundle entry.
func (p *Project) AddExecutable(spec ExecutableSpec) {
	p.executables = append(p.executables, spec)
}

// RegisterGeneratedSource records a producer rule for a source file that
// does not yet exist on disk.
func (p *Project) RegisterGeneratedSource(spec GeneratedSourceSpec) {
	p.generated[spec.OutputPath] = spec
}

// AddTargetOptions queues a per-target option addition, applied during
// Build via OptionGroup.ApplyOverride.
func (p *Project) AddTargetOptions(targetName string, add *OptionGroup) {
	p.edits = append(p.edits, targetOptionEdit{targetName: targetName, add: add})
}

// DeleteTargetOptions queues a per-target option removal, applied during
// Build via OptionGroup.Remove.
func (p *Project) DeleteTargetOptions(targetName string, remove *OptionGroup) {
	p.edits = append(p.edits, targetOptionEdit{targetName: targetName, remove: remove})
}

// Build materializes the accumulated description into a Graph rooted at the
// default targets (or every library/executable, if none were named).
// srcRoot/objRoot are absolute paths.
func (p *Project) Build(srcRoot, objRoot string) (*Graph, error) {
	g := NewGraph()
	byName := make(map[string]string) // library/executable name -> OutputPath

	for _, lib := range p.libraries {
		objIDs, err := p.addObjects(g, srcRoot, objRoot, lib.Name, lib.Files, lib.LinkedByCXX)
		if err != nil {
			return nil, err
		}
		outPath := objRootJoin(objRoot, LibraryOutputName(lib.Name, p.globals.BuildType, lib.LinkType, lib.Version))
		var t *Target
		if lib.LinkType == LinkStatic {
			t = NewStaticLibrary(outPath, objIDs)
		} else {
			libIDs, libNames, err := p.resolveLibRefs(lib.Libs, byName)
			if err != nil {
				return nil, err
			}
			t = NewSharedLibrary(outPath, objIDs, libIDs, libNames, lib.LinkedByCXX)
		}
		if err := p.applyEdits(t, lib.Name); err != nil {
			return nil, err
		}
		if err := g.Add(t); err != nil {
			return nil, err
		}
		byName[lib.Name] = outPath
	}

	for _, exe := range p.executables {
		objIDs, err := p.addObjects(g, srcRoot, objRoot, exe.Name, exe.Files, exe.LinkedByCXX)
		if err != nil {
			return nil, err
		}
		libIDs, libNames, err := p.resolveLibRefs(exe.Libs, byName)
		if err != nil {
			return nil, err
		}
		outPath := objRootJoin(objRoot, ExecutableOutputName(exe.Name, p.globals.BuildType))
		t := NewExecutable(outPath, objIDs, libIDs, libNames, exe.LinkedByCXX)
		if err := p.applyEdits(t, exe.Name); err != nil {
			return nil, err
		}
		if err := g.Add(t); err != nil {
			return nil, err
		}
		byName[exe.Name] = outPath
	}

	var roots []string
	if len(p.defaults) > 0 {
		for _, name := range p.defaults {
			id, ok := byName[name]
			if !ok {
				return nil, &ConfigError{Msg: "unknown default target: " + name}
			}
			roots = append(roots, id)
		}
	} else {
		for _, id := range byName {
			roots = append(roots, id)
		}
	}
	g.SetRoots(roots)
	return g, g.Validate()
}

func (p *Project) addObjects(g *Graph, srcRoot, objRoot, ownerName string, files []string, linkedByCXX bool) ([]string, error) {
	var ids []string
	for _, f := range files {
		var srcTarget *Target
		var compilable string
		if spec, ok := p.generated[f]; ok {
			srcTarget = NewGeneratedSource(objRootJoin(objRoot, spec.OutputPath), spec.Script, spec.Inputs)
			compilable = srcTarget.OutputPath
			if g.Get(compilable) == nil {
				if err := g.Add(srcTarget); err != nil {
					return nil, err
				}
			}
		} else {
			path, modTime, err := resolveSource(srcRoot, p.roots, f)
			if err != nil {
				return nil, err
			}
			srcTarget = NewSource(path, modTime)
			compilable = path
			if g.Get(path) == nil {
				if err := g.Add(srcTarget); err != nil {
					return nil, err
				}
			}
		}

		lang := languageForPath(compilable)
		objOut := objRootJoin(objRoot, ObjectOutputName(ownerName+"/"+baseNoExt(compilable), p.globals.BuildType))
		obj := NewObject(objOut, compilable, lang)
		if err := p.applyEdits(obj, ownerName); err != nil {
			return nil, err
		}
		if err := g.Add(obj); err != nil {
			return nil, err
		}
		ids = append(ids, objOut)
	}
	return ids, nil
}

func (p *Project) applyEdits(t *Target, ownerName string) error {
	base := p.globals.Clone()
	for _, e := range p.edits {
		if e.targetName != ownerName {
			continue
		}
		if e.add != nil {
			merged, err := base.ApplyOverride(e.add)
			if err != nil {
				return &ConfigError{Msg: err.Error()}
			}
			base = merged
		}
		if e.remove != nil {
			base.Remove(e.remove)
		}
	}
	t.Local = base
	return nil
}

// objRootJoin places a derived output name under objRoot, preserving any
// owner-name subdirectory segment ObjectOutputName embedded in it.
func objRootJoin(objRoot, name string) string {
	return filepath.Join(objRoot, name)
}

// baseNoExt strips the directory and extension from a source path, used to
// derive an object's base output name.
func baseNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveLibRefs maps each declared library name to its built OutputPath, in
// order. Every name must already have a target registered (libraries and
// executables are processed in declaration order, so a forward reference is
// always an error).
func (p *Project) resolveLibRefs(names []string, byName map[string]string) (ids, resolved []string, err error) {
	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, nil, &ConfigError{Msg: "unknown library reference: " + n}
		}
		ids = append(ids, id)
		resolved = append(resolved, n)
	}
	return ids, resolved, nil
}

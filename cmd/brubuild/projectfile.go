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

package main

import (
	"encoding/json"
	"os"

	"github.com/amberarrow/brubuild"
)

// projectFile is one concrete shape for the project-description DSL spec
// §1 calls out as an external collaborator (the core never parses this
// itself). JSON is a deliberately simple front end: swapping in a richer
// DSL later only means writing a different loader that drives the same
// brubuild.Project operations.
type projectFile struct {
	Globals struct {
		CPP   []string `json:"cpp"`
		CC    []string `json:"cc"`
		CXX   []string `json:"cxx"`
		AS    []string `json:"as"`
		LDLib []string `json:"ld_lib"`
		LDExe []string `json:"ld_exe"`
	} `json:"globals"`
	Includes []string `json:"includes"`
	Excludes []string `json:"excludes"`
	Default  []string `json:"default_targets"`

	Libraries []struct {
		Name        string   `json:"name"`
		Files       []string `json:"files"`
		Libs        []string `json:"libs"`
		LinkedByCXX bool     `json:"cxx_link"`
		Shared      bool     `json:"shared"`
		Version     string   `json:"version"`
	} `json:"libraries"`

	Executables []struct {
		Name        string   `json:"name"`
		Files       []string `json:"files"`
		Libs        []string `json:"libs"`
		LinkedByCXX bool     `json:"cxx_link"`
	} `json:"executables"`

	GeneratedSources []struct {
		OutputPath string   `json:"output_path"`
		Script     string   `json:"script"`
		Inputs     []string `json:"inputs"`
	} `json:"generated_sources"`
}

// loadProject reads path and builds a brubuild.Project from it.
func loadProject(path string, bt brubuild.BuildType, defaultLinkType brubuild.LinkType) (*brubuild.Project, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf projectFile
	if err := json.Unmarshal(buf, &pf); err != nil {
		return nil, err
	}

	proj := brubuild.NewProject(bt)
	globals := brubuild.NewOptionGroup(bt)
	addAll := func(kind brubuild.ProcessorKind, tokens []string) error {
		return globals.Add(kind, tokens, false, false)
	}
	if err := addAll(brubuild.ProcCPP, pf.Globals.CPP); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcCC, pf.Globals.CC); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcCXX, pf.Globals.CXX); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcAS, pf.Globals.AS); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcLDCCLib, pf.Globals.LDLib); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcLDCXXLib, pf.Globals.LDLib); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcLDCCExec, pf.Globals.LDExe); err != nil {
		return nil, err
	}
	if err := addAll(brubuild.ProcLDCXXExec, pf.Globals.LDExe); err != nil {
		return nil, err
	}
	proj.SetGlobals(globals)
	proj.SetRoots(pf.Includes, pf.Excludes)
	proj.SetDefaultTargets(pf.Default)

	for _, spec := range pf.GeneratedSources {
		proj.RegisterGeneratedSource(brubuild.GeneratedSourceSpec{
			OutputPath: spec.OutputPath, Script: spec.Script, Inputs: spec.Inputs,
		})
	}

	for _, lib := range pf.Libraries {
		lt := brubuild.LinkStatic
		if lib.Shared {
			lt = brubuild.LinkDynamic
		}
		proj.AddLibrary(brubuild.LibrarySpec{
			Name: lib.Name, Files: lib.Files, Libs: lib.Libs,
			LinkedByCXX: lib.LinkedByCXX, LinkType: lt, Version: lib.Version,
		})
	}
	for _, exe := range pf.Executables {
		proj.AddExecutable(brubuild.ExecutableSpec{
			Name: exe.Name, Files: exe.Files, Libs: exe.Libs, LinkedByCXX: exe.LinkedByCXX,
		})
	}

	return proj, nil
}

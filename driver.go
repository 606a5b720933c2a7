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

// Config bundles the Driver's settings for one build invocation:
// source/output roots, worker count, link and build type, a version string,
// and the no-cache switch. The cc/c++ tool paths are not part of Config;
// the Driver's HostProbe resolves them. Driver.Run does not read Version:
// a library's version comes from its LibrarySpec.
type Config struct {
	SrcRoot    string
	ObjRoot    string
	NumWorkers int
	LinkType   LinkType
	BuildType  BuildType
	Version    string
	NoCache    bool
}

// Driver orchestrates one end-to-end build: probe, evaluate the project,
// open and validate the cache, discover headers, decide staleness, run the
// minimal set of commands in parallel, and persist the cache. It is the
// single-threaded conductor the teacher's NinjaGenerator/Executor pairing
// plays in cmd/kati, generalized from "emit a ninja file" to "build
// directly".
type Driver struct {
	Config Config
	Probe  HostProbe
}

// NewDriver constructs a Driver with a default GCCHostProbe.
func NewDriver(cfg Config) *Driver {
	return &Driver{Config: cfg, Probe: GCCHostProbe{Cores: cfg.NumWorkers}}
}

// Run evaluates proj, builds every target reachable from proj's default
// roots, and returns the first error encountered, failing fast. A nil
// return means every scheduled target either was already up-to-date or
// built successfully.
func (d *Driver) Run(proj *Project) error {
	host, err := d.Probe.Probe()
	if err != nil {
		return err
	}

	g, err := proj.Build(d.Config.SrcRoot, d.Config.ObjRoot)
	if err != nil {
		return err
	}

	cachePath := cacheFileName(d.Config.ObjRoot, d.Config.LinkType, d.Config.BuildType)
	store, err := OpenStore(cachePath)
	if err != nil {
		return &PersistenceError{Msg: err.Error()}
	}
	if d.Config.NoCache {
		store = &Store{path: cachePath, records: make(map[string]CacheRecord)}
	}
	header := &GlobalHeader{
		Version: storeFormatVersion,
		SrcRoot: d.Config.SrcRoot, ObjRoot: d.Config.ObjRoot,
		CCPath: host.CCPath, CXXPath: host.CXXPath,
		Options: EncodeOptionGroup(proj.globals),
	}
	store.ValidateGlobals(header)

	disc := &Discoverer{CCPath: host.CCPath, CXXPath: host.CXXPath, SystemDirs: host.SystemIncludeDirs}
	for _, t := range g.Targets() {
		if t.Kind != KindObject {
			continue
		}
		if err := disc.DiscoverArgv(t, compileArgv(proj, t)); err != nil {
			return err
		}
	}

	if err := g.Validate(); err != nil {
		return err
	}
	if cycles := g.LibraryCycles(); len(cycles) > 0 {
		glog.Infof("driver: %d library cycle(s) recorded, relying on linker multi-pass resolution", len(cycles))
	}

	build := d.buildFunc(proj, g, store, host)
	sched := NewScheduler(d.Config.NumWorkers, build)
	runErr := sched.Run(g, g.Roots())

	if closeErr := store.Close(); closeErr != nil && runErr == nil {
		runErr = &PersistenceError{Msg: closeErr.Error()}
	}
	return runErr
}

// preprocessorKindFor maps an Object's source language to the ProcessorKind
// whose OptionSet governs its compile (and, transitively, discovery)
// invocation.
func preprocessorKindFor(lang Language) ProcessorKind {
	switch lang {
	case LangCXX:
		return ProcCXX
	case LangAsm:
		return ProcAS
	default:
		return ProcCC
	}
}

func effectiveOptionGroup(proj *Project, t *Target) *OptionGroup {
	if t.Local != nil {
		return t.Local
	}
	return proj.globals
}

// compileArgv is the full argv for compiling (and, identically, for running
// Discovery against) an Object: its preprocessor set (-D/-U/-I) followed by
// its language-specific compiler set.
func compileArgv(proj *Project, t *Target) []string {
	group := effectiveOptionGroup(proj, t)
	argv := append([]string{}, group.Set(ProcCPP).Argv()...)
	argv = append(argv, group.Set(preprocessorKindFor(t.Lang)).Argv()...)
	return argv
}

// buildFunc returns the BuildFunc the Scheduler drives: staleness check,
// then (if stale) the concrete compile/archive/link/generate command for
// t's kind, then a CacheRecord write on success.
func (d *Driver) buildFunc(proj *Project, g *Graph, store *Store, host HostInfo) BuildFunc {
	return func(t *Target) error {
		toolPath, opts, linkSet, orderSensitive := d.commandInputs(proj, t, host)
		effective := effectiveOptionGroup(proj, t)
		reason := Staleness(t, store, OSStat, effective, toolPath, g)
		if reason == ReasonNotStale {
			return errNothingDone
		}
		glog.V(1).Infof("stale: %s: %s", t.OutputPath, reason)

		cmd, err := d.commandFor(t, toolPath, opts, linkSet)
		if err != nil {
			return err
		}
		res := cmd.Run()
		if !res.Success() {
			return &BuildError{Target: t.OutputPath, Tool: toolPath, ExitCode: res.ExitCode, Stderr: string(res.Combined)}
		}
		t.Rebuilt = true

		store.Put(t.OutputPath, CacheRecord{
			OutputPath:     t.OutputPath,
			Deps:           currentDepFingerprints(t, OSStat),
			OptionGroup:    EncodeOptionGroup(effective),
			ToolPath:       toolPath,
			OrderSensitive: orderSensitive,
		})
		return nil
	}
}

// commandInputs resolves the tool path and effective OptionSet argv driving
// t's command, per its Kind. Linker kinds also return their OptionSet
// directly (rather than flattened argv) so commandFor can interleave the
// object file list between the set's pre- and post-object options.
func (d *Driver) commandInputs(proj *Project, t *Target, host HostInfo) (toolPath string, argv []string, linkSet *OptionSet, orderSensitive bool) {
	group := effectiveOptionGroup(proj, t)
	switch t.Kind {
	case KindObject:
		kind := preprocessorKindFor(t.Lang)
		tool := host.CCPath
		if kind == ProcCXX {
			tool = host.CXXPath
		}
		return tool, compileArgv(proj, t), nil, false
	case KindStaticLibrary:
		return "ar", nil, nil, false
	case KindSharedLibrary, KindExecutable:
		kind := linkKindFor(t)
		tool := host.CCPath
		if t.LinkedByCXX {
			tool = host.CXXPath
		}
		return tool, nil, group.Set(kind), true
	case KindGeneratedSource:
		return t.GeneratorScript, nil, nil, false
	default:
		return "", nil, nil, false
	}
}

func linkKindFor(t *Target) ProcessorKind {
	switch {
	case t.Kind == KindSharedLibrary && t.LinkedByCXX:
		return ProcLDCXXLib
	case t.Kind == KindSharedLibrary:
		return ProcLDCCLib
	case t.LinkedByCXX:
		return ProcLDCXXExec
	default:
		return ProcLDCCExec
	}
}

// commandFor builds the concrete Command for t given its resolved tool path
// and option argv, assembling the object/library argument lists the
// OptionSet itself does not carry (spec §3's "link order is preserved").
// For a link target, linkSet's pre-object options come first, then the
// object files and -l libraries, then its post-object options (-L/-l/
// -Wl,...) so they land after the objects as the linker requires.
func (d *Driver) commandFor(t *Target, toolPath string, argv []string, linkSet *OptionSet) (Command, error) {
	switch t.Kind {
	case KindObject:
		args := append([]string{}, argv...)
		args = append(args, "-c", t.CompilableInput, "-o", t.OutputPath)
		return Command{Path: toolPath, Args: args}, nil
	case KindStaticLibrary:
		args := append([]string{"rcs", t.OutputPath}, t.ObjectIDs...)
		return Command{Path: "ar", Args: args}, nil
	case KindSharedLibrary, KindExecutable:
		var args []string
		if linkSet != nil {
			args = append(args, linkSet.PreArgv()...)
		}
		args = append(args, t.ObjectIDs...)
		for _, name := range t.LibraryNames {
			args = append(args, "-l"+name)
		}
		if linkSet != nil {
			args = append(args, linkSet.PostArgv()...)
		}
		args = append(args, "-o", t.OutputPath)
		return Command{Path: toolPath, Args: args}, nil
	case KindGeneratedSource:
		args := append([]string{}, t.GeneratorInputs...)
		args = append(args, t.OutputPath)
		return Command{Path: t.GeneratorScript, Args: args}, nil
	default:
		return Command{}, fmt.Errorf("configuration error: %q has no build command", t.OutputPath)
	}
}

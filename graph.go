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
	"sort"
)

// Graph is the owning collection of Targets built once by project
// evaluation (spec §4.2's "Lifecycle"). It is the brubuild analogue of the
// teacher's DepGraph (depgraph.go), generalized from Makefile rules to
// compiler/linker artifacts.
type Graph struct {
	targets map[string]*Target // keyed by OutputPath
	order   []string           // insertion order, for deterministic iteration (I2)
	roots   []string           // default/named targets to build
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{targets: make(map[string]*Target)}
}

// Add registers t, keyed by its OutputPath. It is a configuration error
// (spec §3 "output paths... never collide") to add two Targets with the
// same OutputPath.
func (g *Graph) Add(t *Target) error {
	if _, exists := g.targets[t.OutputPath]; exists {
		return fmt.Errorf("configuration error: duplicate output path %q", t.OutputPath)
	}
	g.targets[t.OutputPath] = t
	g.order = append(g.order, t.OutputPath)
	return nil
}

// Get returns the Target for id, or nil.
func (g *Graph) Get(id string) *Target {
	return g.targets[id]
}

// Targets returns every Target in insertion order.
func (g *Graph) Targets() []*Target {
	ts := make([]*Target, len(g.order))
	for i, id := range g.order {
		ts[i] = g.targets[id]
	}
	return ts
}

// SetRoots records the targets the driver should build by default (spec
// §6's "targets to build (default set from project)").
func (g *Graph) SetRoots(roots []string) {
	g.roots = roots
}

// Roots returns the recorded build roots.
func (g *Graph) Roots() []string {
	return g.roots
}

// Validate performs the pre-build invariant check of spec §4.7(vi): the
// target list is non-empty, every root resolves, there are no dangling
// dependency ids, and executables are never depended upon (spec §4.2: "a
// library cannot depend on an executable; executables cannot be depended on
// by anything"). Cycles among libraries are recorded, not rejected (spec
// §4.2, §9's open question).
func (g *Graph) Validate() error {
	if len(g.targets) == 0 {
		return fmt.Errorf("configuration error: target graph is empty")
	}
	for _, r := range g.roots {
		if _, ok := g.targets[r]; !ok {
			return fmt.Errorf("configuration error: root target %q does not resolve", r)
		}
	}
	for _, t := range g.targets {
		headers := make(map[string]bool, len(t.HeaderDeps))
		for _, h := range t.HeaderDeps {
			headers[h] = true
		}
		for _, dep := range t.DepIDs {
			d, ok := g.targets[dep]
			if !ok {
				// Header edges discovered by Discovery (C3) name real files
				// on disk, not DAG nodes; they are exempt from this check.
				if headers[dep] {
					continue
				}
				return fmt.Errorf("configuration error: target %q depends on unknown %q", t.OutputPath, dep)
			}
			if d.Kind == KindExecutable {
				return fmt.Errorf("configuration error: %q depends on executable %q, which is never a dependency", t.OutputPath, dep)
			}
		}
	}
	return nil
}

// LibraryCycles returns the set of static/shared library output paths that
// participate in a dependency cycle. The cycles are recorded, not rejected
// (spec §4.2, §9). The scheduler does not order them: it starts a job only
// when all of its dependencies are done, so the members of such a cycle
// never become ready. Project.Build cannot produce such a cycle, since a
// library reference must name an earlier declaration.
func (g *Graph) LibraryCycles() [][]string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.targets))
	var cycles [][]string

	var visit func(id string, stack []string)
	visit = func(id string, stack []string) {
		t := g.targets[id]
		if t == nil || (t.Kind != KindStaticLibrary && t.Kind != KindSharedLibrary) {
			color[id] = black
			return
		}
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range t.DepIDs {
			dt := g.targets[dep]
			if dt == nil || (dt.Kind != KindStaticLibrary && dt.Kind != KindSharedLibrary) {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep, stack)
			case gray:
				for i, s := range stack {
					if s == dep {
						cyc := append([]string(nil), stack[i:]...)
						sort.Strings(cyc)
						cycles = append(cycles, cyc)
						break
					}
				}
			}
		}
		color[id] = black
	}

	for _, id := range g.order {
		if color[id] == white {
			visit(id, nil)
		}
	}
	return cycles
}

// TransitiveConsumers returns every Target that depends, directly or
// transitively, on id: the set of targets that staleness monotonicity (I4)
// makes stale along with id.
func (g *Graph) TransitiveConsumers(id string) []string {
	consumers := make(map[string][]string)
	for _, t := range g.targets {
		for _, dep := range t.DepIDs {
			consumers[dep] = append(consumers[dep], t.OutputPath)
		}
	}
	seen := make(map[string]bool)
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, c := range consumers[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

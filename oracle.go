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
	"os"
	"sort"
)

// StaleReason is the single primary reason the Oracle attributes to a stale
// Target, for logging (spec §4.5).
type StaleReason int

const (
	ReasonNotStale StaleReason = iota
	ReasonOutputMissing
	ReasonNoCacheRecord
	ReasonDepMissingOrNewer
	ReasonOptionsChanged
	ReasonDepSetChanged
	ReasonToolChanged
	ReasonGeneratorNewer
	ReasonConsumerOfStale
)

func (r StaleReason) String() string {
	switch r {
	case ReasonNotStale:
		return "up-to-date"
	case ReasonOutputMissing:
		return "output missing"
	case ReasonNoCacheRecord:
		return "no cache record"
	case ReasonDepMissingOrNewer:
		return "dependency missing or newer"
	case ReasonOptionsChanged:
		return "options changed"
	case ReasonDepSetChanged:
		return "dependency set changed"
	case ReasonToolChanged:
		return "tool path changed"
	case ReasonGeneratorNewer:
		return "generator newer than output"
	case ReasonConsumerOfStale:
		return "consumer of a stale dependency"
	default:
		return "unknown"
	}
}

// StatFunc abstracts os.Stat so the Oracle stays a pure function of its
// inputs in tests (spec §8 calls the Oracle "a pure decision").
type StatFunc func(path string) (mtime int64, exists bool)

// OSStat is the production StatFunc.
func OSStat(path string) (int64, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return fi.ModTime().Unix(), true
}

// Staleness decides whether t must be rebuilt, per the seven rules of spec
// §4.5. effective is t's OptionGroup after local overrides are applied;
// toolPath is the compiler/linker path that would be used to build t.
func Staleness(t *Target, store *Store, stat StatFunc, effective *OptionGroup, toolPath string, g *Graph) StaleReason {
	outTime, outExists := stat(t.OutputPath)
	if !outExists {
		return ReasonOutputMissing
	}

	rec, ok := store.Get(t.OutputPath)
	if !ok {
		return ReasonNoCacheRecord
	}

	if t.Kind == KindGeneratedSource {
		if scriptTime, exists := stat(t.GeneratorScript); exists && scriptTime > outTime {
			return ReasonGeneratorNewer
		}
	}

	currentDeps := currentDepFingerprints(t, stat)
	if depSetChanged(rec.Deps, currentDeps, rec.OrderSensitive) {
		return ReasonDepSetChanged
	}
	for _, d := range currentDeps {
		dTime, exists := stat(d.Path)
		if !exists {
			return ReasonDepMissingOrNewer
		}
		if dTime > outTime {
			return ReasonDepMissingOrNewer
		}
	}

	if effective != nil {
		encoded := EncodeOptionGroup(effective)
		if !rec.OptionGroup.Equal(encoded) {
			return ReasonOptionsChanged
		}
	}

	if rec.ToolPath != toolPath {
		return ReasonToolChanged
	}

	if g != nil {
		for _, dep := range t.DepIDs {
			if d := g.Get(dep); d != nil && d.Rebuilt {
				return ReasonConsumerOfStale
			}
		}
	}

	return ReasonNotStale
}

// IsStale is a convenience wrapper over Staleness.
func IsStale(t *Target, store *Store, stat StatFunc, effective *OptionGroup, toolPath string, g *Graph) bool {
	return Staleness(t, store, stat, effective, toolPath, g) != ReasonNotStale
}

func currentDepFingerprints(t *Target, stat StatFunc) []DepFingerprint {
	fps := make([]DepFingerprint, 0, len(t.DepIDs))
	for _, d := range t.DepIDs {
		mtime, _ := stat(d)
		fps = append(fps, DepFingerprint{Path: d, MTime: mtime})
	}
	return fps
}

// depSetChanged implements spec §4.5 rule 5: order-insensitive comparison
// for object lists, order-sensitive for linker input lists.
func depSetChanged(cached, current []DepFingerprint, orderSensitive bool) bool {
	if len(cached) != len(current) {
		return true
	}
	if orderSensitive {
		for i := range cached {
			if cached[i].Path != current[i].Path {
				return true
			}
		}
		return false
	}
	a := pathsOf(cached)
	b := pathsOf(current)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return true
		}
	}
	return false
}

func pathsOf(fps []DepFingerprint) []string {
	out := make([]string, len(fps))
	for i, f := range fps {
		out[i] = f.Path
	}
	return out
}

// MarkTransitiveStale implements I4 (staleness monotonicity): it returns
// the set made of staleIDs plus every Target that depends on one of them,
// directly or transitively. It only reads the graph; no Target's Rebuilt
// flag is changed. During a build, Staleness reaches the same result per
// consumer through ReasonConsumerOfStale once a dependency has rebuilt and
// its Rebuilt flag is set.
func MarkTransitiveStale(g *Graph, staleIDs []string) map[string]bool {
	stale := make(map[string]bool, len(staleIDs))
	for _, id := range staleIDs {
		stale[id] = true
	}
	changed := true
	for changed {
		changed = false
		for _, t := range g.Targets() {
			if stale[t.OutputPath] {
				continue
			}
			for _, dep := range t.DepIDs {
				if stale[dep] {
					stale[t.OutputPath] = true
					changed = true
					break
				}
			}
		}
	}
	return stale
}

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

// allProcessorKinds enumerates the eight canonical processor kinds that the
// global cache header (spec §3, §4.4) tracks.
var allProcessorKinds = [...]ProcessorKind{
	ProcCPP, ProcCC, ProcCXX, ProcAS,
	ProcLDCCLib, ProcLDCXXLib, ProcLDCCExec, ProcLDCXXExec,
}

// OptionGroup is a complete mapping from processor kind to OptionSet plus
// the pinned BuildType. The project's global group and every Target's local
// override are both OptionGroups.
type OptionGroup struct {
	BuildType BuildType
	sets      map[ProcessorKind]*OptionSet
}

// NewOptionGroup returns a group with all eight canonical sets present
// (empty), pinned to bt.
func NewOptionGroup(bt BuildType) *OptionGroup {
	g := &OptionGroup{BuildType: bt, sets: make(map[ProcessorKind]*OptionSet, len(allProcessorKinds))}
	for _, k := range allProcessorKinds {
		g.sets[k] = NewOptionSet(k)
	}
	return g
}

// Set returns the OptionSet for kind, creating it if this group was
// constructed some other way (defensive; NewOptionGroup always populates
// all eight).
func (g *OptionGroup) Set(kind ProcessorKind) *OptionSet {
	s, ok := g.sets[kind]
	if !ok {
		s = NewOptionSet(kind)
		g.sets[kind] = s
	}
	return s
}

// Add parses tokens for kind and adds each resulting Option to the group,
// applying build-type constraints (spec §4.1) before the OptionSet's own
// conflict resolution.
func (g *OptionGroup) Add(kind ProcessorKind, tokens []string, replace bool, allowDebugOptOverride bool) error {
	procKindFor := func(pk ProcessorKind) Kind {
		switch pk {
		case ProcCPP:
			return KindPreprocessor
		case ProcAS:
			return KindAssembler
		case ProcLDCCLib, ProcLDCXXLib, ProcLDCCExec, ProcLDCXXExec:
			return KindLinker
		default:
			return KindCompiler
		}
	}
	opts, err := Parse(procKindFor(kind), tokens)
	if err != nil {
		return err
	}
	set := g.Set(kind)
	for _, o := range opts {
		if err := checkBuildTypeConstraints(g.BuildType, o, allowDebugOptOverride); err != nil {
			return err
		}
		if err := set.Add(o, replace); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies every OptionSet, used to materialize per-target
// overrides lazily on top of the global group (spec §4.2).
func (g *OptionGroup) Clone() *OptionGroup {
	c := &OptionGroup{BuildType: g.BuildType, sets: make(map[ProcessorKind]*OptionSet, len(g.sets))}
	for k, s := range g.sets {
		c.sets[k] = s.Clone()
	}
	return c
}

// Equal reports whether two groups have the same BuildType and identical
// contents for every canonical set — the contract the global cache header
// and per-target staleness both rely on (spec §4.4, §4.5 rule 4).
func (g *OptionGroup) Equal(other *OptionGroup) bool {
	if g.BuildType != other.BuildType {
		return false
	}
	for _, k := range allProcessorKinds {
		a, b := g.Set(k), other.Set(k)
		if !a.Equal(b) {
			return false
		}
	}
	return true
}

// Hash folds BuildType and every canonical set's Hash in fixed kind order.
func (g *OptionGroup) Hash() uint64 {
	h := uint64(1469598103934665603) ^ uint64(g.BuildType)
	for _, k := range allProcessorKinds {
		h = (h ^ g.Set(k).Hash()) * 1099511628211
	}
	return h
}

// ApplyOverride returns a new OptionGroup equal to base with add applied on
// top: every Option in add is Add()ed with replace=true. This implements
// "local options (an OptionGroup diff applied on top of the global group)"
// from spec §3.
func (g *OptionGroup) ApplyOverride(add *OptionGroup) (*OptionGroup, error) {
	merged := g.Clone()
	for _, k := range allProcessorKinds {
		for _, o := range add.Set(k).Options() {
			if err := merged.Set(k).Add(o, true); err != nil {
				return nil, err
			}
		}
	}
	return merged, nil
}

// Remove deletes every Option in del from the corresponding set in g,
// implementing delete_target_options (spec §4.2, §6).
func (g *OptionGroup) Remove(del *OptionGroup) {
	for _, k := range allProcessorKinds {
		toRemove := del.Set(k).Options()
		if len(toRemove) == 0 {
			continue
		}
		set := g.Set(k)
		kept := make([]Option, 0, len(set.pre))
		for _, o := range set.pre {
			if !containsOption(toRemove, o) {
				kept = append(kept, o)
			}
		}
		set.pre = kept
		keptPost := make([]Option, 0, len(set.post))
		for _, o := range set.post {
			if !containsOption(toRemove, o) {
				keptPost = append(keptPost, o)
			}
		}
		set.post = keptPost
	}
}

func containsOption(list []Option, o Option) bool {
	for _, e := range list {
		if e.Equal(o) {
			return true
		}
	}
	return false
}

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

// Kind is the processor a flag belongs to.
type Kind int

const (
	KindPreprocessor Kind = iota
	KindAssembler
	KindCompiler
	KindLinker
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindPreprocessor:
		return "preprocessor"
	case KindAssembler:
		return "assembler"
	case KindCompiler:
		return "compiler"
	case KindLinker:
		return "linker"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParamKind says whether a flag's parameter is mandatory, forbidden or
// optional.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamRequired
	ParamOptional
)

// Separator is how a flag joins to its parameter in rendered form.
type Separator int

const (
	SepNone Separator = iota
	SepEquals
	SepSpace
)

func (s Separator) render() string {
	switch s {
	case SepEquals:
		return "="
	case SepSpace:
		return " "
	default:
		return ""
	}
}

// Option is a single typed compiler/assembler/linker flag. Two Options with
// the same field tuple are the same Option: equality and Hash are defined
// over every field, never over the rendered string, so that semantically
// identical flags constructed two different ways still collide in an
// OptionSet.
type Option struct {
	Name      string // includes leading hyphens, e.g. "-D", "-Wshadow", "-O"
	Kind      Kind
	ParamKind ParamKind
	Param     string // empty when ParamKind == ParamNone
	Negation  bool   // "-Wno-shadow", "-fno-strict-aliasing"
	Sep       Separator
	Key       string // for "k=v" style params, e.g. -D, --param
	Value     string // the "v" half of "k=v"; empty if not key/value shaped
}

// ParseError reports a token that could not be parsed into an Option for
// the given processor kind.
type ParseError struct {
	Kind  Kind
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid %s option %q: %s", e.Kind, e.Kind, e.Token, e.Msg)
}

// Equal reports whether o and other represent the identical flag.
func (o Option) Equal(other Option) bool {
	return o.Name == other.Name &&
		o.Kind == other.Kind &&
		o.ParamKind == other.ParamKind &&
		o.Param == other.Param &&
		o.Negation == other.Negation &&
		o.Sep == other.Sep &&
		o.Key == other.Key &&
		o.Value == other.Value
}

// Hash is a stable fold over every field, used as the OptionSet hash
// contract that persistence relies on for "options changed" detection.
func (o Option) Hash() uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= prime
		}
		h ^= 0xff
		h *= prime
	}
	mix(o.Name)
	mix(o.Kind.String())
	mix(fmt.Sprint(int(o.ParamKind)))
	mix(o.Param)
	mix(fmt.Sprint(o.Negation))
	mix(fmt.Sprint(int(o.Sep)))
	mix(o.Key)
	mix(o.Value)
	return h
}

// Tokens is the authoritative argv form of o: one element for most options,
// two for --param and the -Wl,-rpath / -Wl,-soname pass-through pairs (spec
// §4.1's "two-token sequences"). OptionSet.Argv concatenates Tokens of every
// Option in order; no shell interpolation ever happens on these strings.
func (o Option) Tokens() []string {
	switch o.Name {
	case "--param":
		return []string{"--param", o.Param}
	case "-Wl,-rpath":
		return []string{"-Wl,-rpath", "-Wl," + o.Param}
	case "-Wl,-soname":
		return []string{"-Wl,-soname", "-Wl," + o.Param}
	case "-install_name", "-compatibility_version", "-current_version", "-framework":
		return []string{o.Name, o.Param}
	}
	if o.ParamKind == ParamNone || o.Param == "" {
		return []string{o.Name}
	}
	return []string{o.Name + o.Sep.render() + o.Param}
}

// Render produces the deterministic string form of o: its Tokens joined by
// a space. For every Option but the two-token pairs above this is a single
// argv token with no embedded space.
func (o Option) Render() string {
	tokens := o.Tokens()
	s := tokens[0]
	for _, t := range tokens[1:] {
		s += " " + t
	}
	return s
}

func (o Option) String() string {
	return o.Render()
}

// validate enforces the per-Option invariants from spec §3: required params
// must be present, absent params must stay absent, and at most one '='
// appears in the rendered form.
func (o Option) validate() error {
	switch o.ParamKind {
	case ParamRequired:
		if o.Param == "" {
			return &ParseError{Kind: o.Kind, Token: o.Name, Msg: "requires a parameter"}
		}
	case ParamNone:
		if o.Param != "" {
			return &ParseError{Kind: o.Kind, Token: o.Name, Msg: "takes no parameter"}
		}
	}
	rendered := o.Render()
	eqs := 0
	for i := 0; i < len(rendered); i++ {
		if rendered[i] == '=' {
			eqs++
		}
	}
	if eqs > 1 {
		return &ParseError{Kind: o.Kind, Token: o.Name, Msg: "more than one '=' in rendered option"}
	}
	return nil
}

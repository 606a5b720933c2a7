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
	"strconv"
	"strings"
)

// BuildType is one of debug, optimized, release. It is pinned for the
// entire invocation.
type BuildType int

const (
	BuildDebug BuildType = iota
	BuildOptimized
	BuildRelease
)

func (b BuildType) String() string {
	switch b {
	case BuildDebug:
		return "debug"
	case BuildOptimized:
		return "optimized"
	case BuildRelease:
		return "release"
	default:
		return "unknown"
	}
}

// ParseBuildType maps a command-line spelling to a BuildType, for front
// ends (spec §6's "build type" flag).
func ParseBuildType(s string) (BuildType, error) {
	switch s {
	case "debug":
		return BuildDebug, nil
	case "optimized":
		return BuildOptimized, nil
	case "release":
		return BuildRelease, nil
	default:
		return 0, &ConfigError{Msg: "unknown build type: " + s}
	}
}

// ParseLinkType maps a command-line spelling to a LinkType.
func ParseLinkType(s string) (LinkType, error) {
	switch s {
	case "static":
		return LinkStatic, nil
	case "dynamic":
		return LinkDynamic, nil
	default:
		return 0, &ConfigError{Msg: "unknown link type: " + s}
	}
}

// warningNames is the enumerated -W allow-list (a subset representative of
// GCC/Clang's diagnostic set; unknown names are a parse error per spec §4.1).
var warningNames = map[string]bool{
	"all": true, "extra": true, "error": true, "shadow": true,
	"unused": true, "unused-variable": true, "unused-parameter": true,
	"format": true, "format-security": true, "strict-overflow": true,
	"sign-compare": true, "cast-align": true, "pedantic": true,
	"conversion": true, "missing-declarations": true, "uninitialized": true,
}

// fFlagNames is the enumerated -f allow-list.
var fFlagNames = map[string]bool{
	"PIC": true, "pic": true, "lto": true, "signed-char": true,
	"unsigned-char": true, "no-common": true, "inline-functions": true,
	"strict-aliasing": true, "diagnostics-show-option": true,
	"omit-frame-pointer": true, "exceptions": true, "rtti": true,
	"visibility-inlines-hidden": true,
}

// fFlagOptimizationClass holds the -f flags forbidden in a debug build per
// spec §4.1 ("Debug build forbids optimization-class -f flags").
var fFlagOptimizationClass = map[string]bool{
	"lto": true, "inline-functions": true, "strict-aliasing": true,
	"omit-frame-pointer": true,
}

// mParamNames is the enumerated -m allow-list.
var mParamNames = map[string]bool{
	"32": true, "64": true, "arch=native": true, "tune=native": true,
	"avx": true, "avx2": true, "sse2": true, "sse4.2": true,
	"thumb": true, "soft-float": true,
}

// stdDialects is the enumerated -std allow-list.
var stdDialects = map[string]bool{
	"c89": true, "c99": true, "c11": true, "c17": true, "gnu11": true,
	"c++98": true, "c++11": true, "c++14": true, "c++17": true, "c++20": true,
	"gnu++11": true, "gnu++14": true, "gnu++17": true,
}

// paramTuningKeys is the enumerated --param key allow-list.
var paramTuningKeys = map[string]bool{
	"max-inline-insns-single": true, "large-function-growth": true,
	"inline-unit-growth": true, "max-unrolled-insns": true,
}

// Parse maps a sequence of command-line tokens to typed Options for the
// given processor kind, per the rules in spec §4.1. The first error aborts
// parsing; this mirrors the "configuration error, detected pre-build"
// policy in spec §7.
func Parse(kind Kind, tokens []string) ([]Option, error) {
	var opts []Option
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		opt, consumed, err := parseOne(kind, tokens, i)
		if err != nil {
			return nil, err
		}
		if err := opt.validate(); err != nil {
			return nil, err
		}
		_ = tok
		opts = append(opts, opt)
		i += consumed
	}
	return opts, nil
}

func parseOne(kind Kind, tokens []string, i int) (Option, int, error) {
	tok := tokens[i]
	switch {
	case strings.HasPrefix(tok, "-D"):
		return parseDefine(kind, tok)
	case strings.HasPrefix(tok, "-U"):
		return parseUndefine(kind, tok)
	case strings.HasPrefix(tok, "-I"):
		return parseInclude(kind, tok)
	case strings.HasPrefix(tok, "-Wl,"):
		return parseLinkerPassthrough(kind, tokens, i)
	case strings.HasPrefix(tok, "-Wa,"):
		return parseAssemblerPassthrough(kind, tok)
	case strings.HasPrefix(tok, "-W"):
		return parseWarning(kind, tok)
	case strings.HasPrefix(tok, "-f") && tok != "-framework":
		return parseFFlag(kind, tok)
	case strings.HasPrefix(tok, "-m"):
		return parseMFlag(kind, tok)
	case strings.HasPrefix(tok, "-std="):
		return parseStd(kind, tok)
	case strings.HasPrefix(tok, "-O"):
		return parseOptLevel(kind, tok)
	case tok == "-g":
		return Option{Name: "-g", Kind: KindCompiler, ParamKind: ParamNone}, 1, nil
	case tok == "-s":
		return Option{Name: "-s", Kind: KindLinker, ParamKind: ParamNone}, 1, nil
	case tok == "--param":
		return parseParam(tokens, i)
	case tok == "-shared", tok == "-static", tok == "-nostdlib", tok == "-dynamiclib":
		return Option{Name: tok, Kind: KindLinker, ParamKind: ParamNone}, 1, nil
	case tok == "-install_name", tok == "-compatibility_version", tok == "-current_version", tok == "-framework":
		return parseLinkerValueFlag(tok, tokens, i)
	case strings.HasPrefix(tok, "-l"):
		return Option{Name: "-l", Kind: KindLinker, ParamKind: ParamRequired, Param: tok[2:], Sep: SepNone}, 1, nil
	case strings.HasPrefix(tok, "-L"):
		return Option{Name: "-L", Kind: KindLinker, ParamKind: ParamRequired, Param: tok[2:], Sep: SepNone}, 1, nil
	default:
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unrecognized option"}
	}
}

func splitKV(rest string) (key, value string, hasValue bool) {
	idx := strings.IndexByte(rest, '=')
	if idx < 0 {
		return rest, "", false
	}
	return rest[:idx], rest[idx+1:], true
}

func parseDefine(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:]
	if rest == "" {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-D requires a symbol"}
	}
	key, value, hasValue := splitKV(rest)
	o := Option{Name: "-D", Kind: KindPreprocessor, ParamKind: ParamRequired, Key: key}
	if hasValue {
		o.Value = value
		o.Param = key + "=" + value
	} else {
		o.Param = key
	}
	return o, 1, nil
}

func parseUndefine(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:]
	if rest == "" {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-U requires a symbol"}
	}
	return Option{Name: "-U", Kind: KindPreprocessor, ParamKind: ParamRequired, Param: rest, Key: rest}, 1, nil
}

func parseInclude(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:]
	if rest == "" {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-I requires a path"}
	}
	return Option{Name: "-I", Kind: KindPreprocessor, ParamKind: ParamRequired, Param: rest}, 1, nil
}

func parseWarning(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:] // after "-W"
	negation := false
	if strings.HasPrefix(rest, "no-") {
		negation = true
		rest = rest[len("no-"):]
	}
	name, value, hasValue := splitKV(rest)
	if !warningNames[name] {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unknown warning name"}
	}
	switch name {
	case "strict-overflow":
		if hasValue {
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > 5 {
				return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-Wstrict-overflow=N requires N in 1..5"}
			}
		}
	case "format":
		if hasValue && value != "2" {
			return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-Wformat=N only supports N=2"}
		}
	}
	o := Option{Name: "-W" + name, Kind: KindCompiler, Negation: negation, Key: name}
	if hasValue {
		o.ParamKind = ParamRequired
		o.Param = value
		o.Sep = SepEquals
		o.Value = value
	} else {
		o.ParamKind = ParamNone
	}
	if negation {
		o.Name = "-Wno-" + name
	}
	return o, 1, nil
}

// linkerPassthroughState names the states of -Wl,-rpath / -Wl,-soname pair
// recognition: idle -> seen-rpath/seen-soname -> emit-pair -> idle. These
// constants are not referenced: parseLinkerPassthrough recognizes a pair by
// looking one token ahead rather than by stepping through these states.
type linkerPassthroughState int

const (
	ppIdle linkerPassthroughState = iota
	ppSeenRpath
	ppSeenSoname
)

func parseLinkerPassthrough(kind Kind, tokens []string, i int) (Option, int, error) {
	tok := tokens[i]
	arg := tok[len("-Wl,"):]
	switch arg {
	case "-rpath":
		if i+1 >= len(tokens) || !strings.HasPrefix(tokens[i+1], "-Wl,") {
			return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-Wl,-rpath must be followed by -Wl,<path>"}
		}
		path := tokens[i+1][len("-Wl,"):]
		return Option{Name: "-Wl,-rpath", Kind: KindLinker, ParamKind: ParamRequired, Param: path, Sep: SepSpace}, 2, nil
	case "-soname":
		if i+1 >= len(tokens) || !strings.HasPrefix(tokens[i+1], "-Wl,") {
			return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-Wl,-soname must be followed by -Wl,<name>"}
		}
		name := tokens[i+1][len("-Wl,"):]
		return Option{Name: "-Wl,-soname", Kind: KindLinker, ParamKind: ParamRequired, Param: name, Sep: SepSpace}, 2, nil
	default:
		return Option{Name: "-Wl,", Kind: KindLinker, ParamKind: ParamRequired, Param: arg, Sep: SepNone}, 1, nil
	}
}

func parseAssemblerPassthrough(kind Kind, tok string) (Option, int, error) {
	arg := tok[len("-Wa,"):]
	if arg == "" {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "-Wa, requires an argument"}
	}
	return Option{Name: "-Wa,", Kind: KindAssembler, ParamKind: ParamRequired, Param: arg, Sep: SepNone}, 1, nil
}

func parseFFlag(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:]
	negation := false
	if strings.HasPrefix(rest, "no-") {
		negation = true
		rest = rest[len("no-"):]
	}
	if !fFlagNames[rest] && !(negation && fFlagNames["no-"+rest]) {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unknown -f flag"}
	}
	name := "-f" + rest
	if negation {
		name = "-fno-" + rest
	}
	return Option{Name: name, Kind: KindCompiler, ParamKind: ParamNone, Negation: negation, Key: rest}, 1, nil
}

func parseMFlag(kind Kind, tok string) (Option, int, error) {
	rest := tok[2:]
	if !mParamNames[rest] {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unknown -m parameter"}
	}
	return Option{Name: "-m", Kind: KindCompiler, ParamKind: ParamRequired, Param: rest, Sep: SepNone}, 1, nil
}

func parseStd(kind Kind, tok string) (Option, int, error) {
	dialect := tok[len("-std="):]
	if !stdDialects[dialect] {
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unknown -std dialect"}
	}
	return Option{Name: "-std", Kind: KindCompiler, ParamKind: ParamRequired, Param: dialect, Sep: SepEquals}, 1, nil
}

func parseOptLevel(kind Kind, tok string) (Option, int, error) {
	level := tok[2:]
	switch level {
	case "0", "1", "2", "3", "s", "fast":
	default:
		return Option{}, 0, &ParseError{Kind: kind, Token: tok, Msg: "unknown -O level"}
	}
	return Option{Name: "-O", Kind: KindCompiler, ParamKind: ParamRequired, Param: level, Sep: SepNone}, 1, nil
}

func parseParam(tokens []string, i int) (Option, int, error) {
	if i+1 >= len(tokens) {
		return Option{}, 0, &ParseError{Kind: KindCompiler, Token: "--param", Msg: "requires key=val"}
	}
	kv := tokens[i+1]
	key, value, hasValue := splitKV(kv)
	if !hasValue || !paramTuningKeys[key] {
		return Option{}, 0, &ParseError{Kind: KindCompiler, Token: "--param " + kv, Msg: "unknown tuning key or missing value"}
	}
	return Option{Name: "--param", Kind: KindCompiler, ParamKind: ParamRequired, Param: kv, Sep: SepSpace, Key: key, Value: value}, 2, nil
}

func parseLinkerValueFlag(name string, tokens []string, i int) (Option, int, error) {
	if i+1 >= len(tokens) {
		return Option{}, 0, &ParseError{Kind: KindLinker, Token: name, Msg: "requires a value"}
	}
	return Option{Name: name, Kind: KindLinker, ParamKind: ParamRequired, Param: tokens[i+1], Sep: SepSpace}, 2, nil
}

// checkBuildTypeConstraints enforces the build-type-sensitive rejections
// from spec §4.1: -O0 in release, -O>0 in debug unless
// allowDebugOptOverride is set, -g in release, -s outside release,
// optimization-class -f flags in debug.
func checkBuildTypeConstraints(bt BuildType, opt Option, allowDebugOptOverride bool) error {
	switch opt.Name {
	case "-O":
		if bt == BuildRelease && opt.Param == "0" {
			return fmt.Errorf("option conflict: -O0 is rejected for release build")
		}
		if bt == BuildDebug && opt.Param != "0" && !allowDebugOptOverride {
			return fmt.Errorf("option conflict: -O>0 is rejected for debug build without override")
		}
	case "-g":
		if bt == BuildRelease {
			return fmt.Errorf("option conflict: -g is rejected for release build")
		}
	case "-s":
		if bt != BuildRelease {
			return fmt.Errorf("option conflict: -s is only valid for release build")
		}
	default:
		if bt == BuildDebug && strings.HasPrefix(opt.Name, "-f") && !opt.Negation && fFlagOptimizationClass[opt.Key] {
			return fmt.Errorf("option conflict: optimization-class -f%s is rejected for debug build", opt.Key)
		}
	}
	return nil
}

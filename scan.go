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
	"path/filepath"
	"strings"
)

// rootSet is the include/exclude pair a bundle declares for resolving a
// listed file name to an on-disk source path (spec §4.2: "the source path of
// an object is resolved by searching a configured include list under the
// source root subject to an exclude list").
type rootSet struct {
	Includes []string // relative to srcRoot, searched in order
	Excludes []string // relative to srcRoot; a match anywhere under an exclude root disqualifies a candidate
}

// resolveSource finds name (a path relative to an include root) under
// srcRoot, returning the first include root that contains it and is not
// shadowed by an exclude root.
func resolveSource(srcRoot string, roots rootSet, name string) (string, int64, error) {
	for _, inc := range roots.Includes {
		candidate := filepath.Join(srcRoot, inc, name)
		if excludedUnder(srcRoot, roots.Excludes, candidate) {
			continue
		}
		fi, err := os.Stat(candidate)
		if err == nil && !fi.IsDir() {
			return candidate, fi.ModTime().Unix(), nil
		}
	}
	return "", 0, &ConfigError{Msg: "source not found under any include root: " + name}
}

func excludedUnder(srcRoot string, excludes []string, candidate string) bool {
	for _, ex := range excludes {
		exPath := filepath.Join(srcRoot, ex)
		rel, err := filepath.Rel(exPath, candidate)
		if err != nil {
			continue
		}
		if rel == "." || !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}

// languageForPath classifies a compilable input by file extension, per
// spec §4.2's implicit "source language" concept used to choose cc vs. cxx.
func languageForPath(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return LangC
	case ".cc", ".cpp", ".cxx", ".c++":
		return LangCXX
	case ".s", ".asm":
		return LangAsm
	default:
		return LangC
	}
}

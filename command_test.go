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
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// assertGoldenText compares got against want and, on mismatch, renders a
// human-readable diff the same way run_test.go reports a build's observed
// output against its golden value.
func assertGoldenText(t *testing.T, what, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	t.Errorf("%s mismatch (red: want, green: got):\n%s", what, dmp.DiffPrettyText(diffs))
}

func TestBuildErrorMessageFormat(t *testing.T) {
	err := &BuildError{Target: "/out/a.o", Tool: "/usr/bin/cc", ExitCode: 1, Stderr: "a.c:3:1: error: expected ';'\n"}
	want := "*** [/out/a.o] Error 1 (/usr/bin/cc)\na.c:3:1: error: expected ';'\n"
	assertGoldenText(t, "BuildError.Error()", want, err.Error())
}

func TestConfigErrorMessageFormat(t *testing.T) {
	err := &ConfigError{Msg: "unknown build type: fastest"}
	want := "configuration error: unknown build type: fastest"
	assertGoldenText(t, "ConfigError.Error()", want, err.Error())
}

func TestOptionRenderGoldenText(t *testing.T) {
	opts, err := Parse(KindLinker, []string{"-Wl,-rpath", "-Wl,/opt/lib"})
	if err != nil {
		t.Fatal(err)
	}
	assertGoldenText(t, "rendered -Wl,-rpath pair", "-Wl,-rpath -Wl,/opt/lib", opts[0].Render())
}

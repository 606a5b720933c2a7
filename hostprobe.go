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
	"os/exec"
	"runtime"
	"strings"
	"unsafe"
)

// HostInfo is what the driver learns from probing the host before
// evaluating any project declaration (spec §4.7(i)). Probing the host in
// detail is explicitly out of scope (spec §1): this is the narrow contract
// the core consumes, analogous to how the teacher treats the project DSL
// and the logging facility as external collaborators it only calls through
// an interface.
type HostInfo struct {
	CCPath             string
	CXXPath            string
	SystemIncludeDirs  []string
	NumCores           int
	LittleEndian       bool
}

// HostProbe is the external collaborator that performs host discovery.
// Production front ends supply their own; GCCHostProbe below is a minimal,
// real implementation sufficient for the common case of a GCC-compatible
// driver on a POSIX host (spec's non-goal list excludes non-GCC-like
// drivers and non-POSIX hosts, so this default need not handle them).
type HostProbe interface {
	Probe() (HostInfo, error)
}

// GCCHostProbe locates cc/c++ on PATH and asks them for their default
// system include search path via `-E -Wp,-v -xc /dev/null`, the same
// invocation GCC and Clang both honor to print their built-in include
// chain. This mirrors the "one-time probe of the driver" spec §4.3 requires
// for system-header exclusion.
type GCCHostProbe struct {
	CC, CXX string
	Cores   int
}

// Probe implements HostProbe.
func (p GCCHostProbe) Probe() (HostInfo, error) {
	cc := p.CC
	if cc == "" {
		cc = "cc"
	}
	cxx := p.CXX
	if cxx == "" {
		cxx = "c++"
	}
	ccPath, err := exec.LookPath(cc)
	if err != nil {
		return HostInfo{}, &HostProbeError{Tool: cc, Msg: "not found on PATH"}
	}
	cxxPath, err := exec.LookPath(cxx)
	if err != nil {
		return HostInfo{}, &HostProbeError{Tool: cxx, Msg: "not found on PATH"}
	}
	dirs, err := systemIncludeDirs(ccPath)
	if err != nil {
		return HostInfo{}, &HostProbeError{Tool: ccPath, Msg: err.Error()}
	}
	cores := p.Cores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	return HostInfo{
		CCPath: ccPath, CXXPath: cxxPath,
		SystemIncludeDirs: dirs,
		NumCores:          cores,
		LittleEndian:      isLittleEndian(),
	}, nil
}

func systemIncludeDirs(ccPath string) ([]string, error) {
	cmd := exec.Command(ccPath, "-E", "-Wp,-v", "-xc", "/dev/null")
	out, _ := cmd.CombinedOutput()
	var dirs []string
	inList := false
	for _, line := range strings.Split(string(out), "\n") {
		switch {
		case strings.Contains(line, "#include <...> search starts here"):
			inList = true
		case strings.Contains(line, "End of search list"):
			inList = false
		case inList:
			dir := strings.TrimSpace(line)
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs, nil
}

func isLittleEndian() bool {
	var i uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&i))
	return b[0] == 1
}

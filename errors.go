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

// The error taxonomy of spec §7 as typed errors, so the driver can tell
// them apart by type rather than by parsing a message. Not every error the
// driver sees is one of these: option parsing returns *ParseError, and
// Graph, OptionSet, build-type checks and Driver.commandFor return plain
// errors whose message starts with "configuration error:" or
// "option conflict:".
type (
	// ConfigError is an invalid project declaration, unknown option, or
	// unresolved option conflict. Detected pre-build; aborts before any
	// subprocess.
	ConfigError struct{ Msg string }

	// DiscoveryError is a failed or unparseable preprocessor dependency
	// listing for one Object. Driver.Run returns the first one it gets, so
	// it stops the whole build, not only that Object and its consumers.
	DiscoveryError struct {
		Target string
		Msg    string
	}

	// BuildError is a subprocess that exited non-zero. Fatal: triggers
	// fail-fast shutdown.
	BuildError struct {
		Target   string
		Tool     string
		ExitCode int
		Stderr   string
	}

	// PersistenceError is a store open/write failure. Fatal.
	PersistenceError struct{ Msg string }

	// HostProbeError is a compiler-not-found or unparseable include path.
	// Fatal, reported with the offending tool path.
	HostProbeError struct {
		Tool string
		Msg  string
	}
)

func (e *ConfigError) Error() string { return "configuration error: " + e.Msg }

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery error: %s: %s", e.Target, e.Msg)
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("*** [%s] Error %d (%s)\n%s", e.Target, e.ExitCode, e.Tool, e.Stderr)
}

func (e *PersistenceError) Error() string { return "persistence error: " + e.Msg }

func (e *HostProbeError) Error() string {
	return fmt.Sprintf("host probe error: %s: %s", e.Tool, e.Msg)
}

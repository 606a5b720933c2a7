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

package main

import "fmt"

// LogAlways prints a user-facing status line, unconditionally, to stdout.
// The engine itself logs through glog (V-leveled, to stderr); this is the
// front end's own "what is happening" channel, separated the same way the
// teacher splits its LogAlways (log.go) from glog's -v machinery.
func LogAlways(f string, a ...interface{}) {
	fmt.Printf("brubuild: "+f+"\n", a...)
}

// Errorf prints a user-facing error line to stdout, mirroring the teacher's
// ErrorNoLocation shape without its os.Exit side effect (main decides exit
// codes itself).
func Errorf(f string, a ...interface{}) {
	fmt.Printf("brubuild: error: "+f+"\n", a...)
}

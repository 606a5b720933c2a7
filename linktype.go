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

// LinkType is static or dynamic, pinned for the entire invocation alongside
// BuildType (spec §3).
type LinkType int

const (
	LinkStatic LinkType = iota
	LinkDynamic
)

func (l LinkType) String() string {
	if l == LinkStatic {
		return "static"
	}
	return "dynamic"
}

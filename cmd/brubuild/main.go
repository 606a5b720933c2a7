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

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"

	"github.com/golang/glog"

	"github.com/amberarrow/brubuild"
)

var (
	projectFlag   string
	srcRootFlag   string
	objRootFlag   string
	jobsFlag      int
	buildTypeFlag string
	linkTypeFlag  string
	versionFlag   string
	noCacheFlag   bool
)

func init() {
	flag.StringVar(&projectFlag, "project", "", "path to the project description file")
	flag.StringVar(&srcRootFlag, "srcroot", ".", "source root")
	flag.StringVar(&objRootFlag, "objroot", "out", "output root")
	flag.IntVar(&jobsFlag, "j", runtime.NumCPU(), "allow N jobs at once")
	flag.StringVar(&buildTypeFlag, "build_type", "debug", "debug, optimized, or release")
	flag.StringVar(&linkTypeFlag, "link_type", "static", "static or dynamic")
	flag.StringVar(&versionFlag, "version", "", "shared library version (X.Y[.Z])")
	flag.BoolVar(&noCacheFlag, "no_cache", false, "ignore the persistent cache")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if projectFlag == "" {
		Errorf("-project is required")
		os.Exit(2)
	}

	bt, err := brubuild.ParseBuildType(buildTypeFlag)
	if err != nil {
		Errorf("%v", err)
		os.Exit(2)
	}
	lt, err := brubuild.ParseLinkType(linkTypeFlag)
	if err != nil {
		Errorf("%v", err)
		os.Exit(2)
	}

	srcRoot, err := filepath.Abs(srcRootFlag)
	if err != nil {
		Errorf("%v", err)
		os.Exit(2)
	}
	objRoot, err := filepath.Abs(objRootFlag)
	if err != nil {
		Errorf("%v", err)
		os.Exit(2)
	}

	proj, err := loadProject(projectFlag, bt, lt)
	if err != nil {
		Errorf("loading %s: %v", projectFlag, err)
		os.Exit(2)
	}

	LogAlways("building %s (%s, %s) with %d worker(s)", objRoot, bt, lt, jobsFlag)

	drv := brubuild.NewDriver(brubuild.Config{
		SrcRoot: srcRoot, ObjRoot: objRoot,
		NumWorkers: jobsFlag, LinkType: lt, BuildType: bt,
		Version: versionFlag, NoCache: noCacheFlag,
	})

	if err := drv.Run(proj); err != nil {
		Errorf("%v", err)
		os.Exit(1)
	}
	LogAlways("done")
}

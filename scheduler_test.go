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
	"errors"
	"sync"
	"testing"
	"time"
)

// orderRecorder is a BuildFunc that records the sequence targets were built
// in, safe for concurrent workers.
type orderRecorder struct {
	mu    sync.Mutex
	order []string
	fail  map[string]error
}

func (r *orderRecorder) build(t *Target) error {
	r.mu.Lock()
	r.order = append(r.order, t.OutputPath)
	err := r.fail[t.OutputPath]
	r.mu.Unlock()
	return err
}

func (r *orderRecorder) indexOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, o := range r.order {
		if o == id {
			return i
		}
	}
	return -1
}

func buildChainGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	obj := NewObject("/out/a.o", "/src/a.c", LangC)
	lib := NewStaticLibrary("/out/libfoo.a", []string{"/out/a.o"})
	exe := NewExecutable("/out/prog", nil, []string{"/out/libfoo.a"}, []string{"foo"}, false)
	for _, tg := range []*Target{obj, lib, exe} {
		if err := g.Add(tg); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestSchedulerBuildsInDependencyOrder(t *testing.T) {
	g := buildChainGraph(t)
	rec := &orderRecorder{}
	s := NewScheduler(2, rec.build)
	if err := s.Run(g, []string{"/out/prog"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.order) != 3 {
		t.Fatalf("built %v, want 3 targets", rec.order)
	}
	if rec.indexOf("/out/a.o") > rec.indexOf("/out/libfoo.a") {
		t.Errorf("object built after the library that depends on it")
	}
	if rec.indexOf("/out/libfoo.a") > rec.indexOf("/out/prog") {
		t.Errorf("library built after the executable that depends on it")
	}
}

func TestSchedulerFailFastStopsNewWork(t *testing.T) {
	g := NewGraph()
	objA := NewObject("/out/a.o", "/src/a.c", LangC)
	objB := NewObject("/out/b.o", "/src/b.c", LangC)
	lib := NewStaticLibrary("/out/libfoo.a", []string{"/out/a.o", "/out/b.o"})
	exe := NewExecutable("/out/prog", nil, []string{"/out/libfoo.a"}, []string{"foo"}, false)
	for _, tg := range []*Target{objA, objB, lib, exe} {
		if err := g.Add(tg); err != nil {
			t.Fatal(err)
		}
	}

	wantErr := errors.New("compile failed")
	rec := &orderRecorder{fail: map[string]error{"/out/a.o": wantErr}}
	s := NewScheduler(1, rec.build)
	err := s.Run(g, []string{"/out/prog"})
	if err != wantErr {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	for _, built := range rec.order {
		if built == "/out/libfoo.a" || built == "/out/prog" {
			t.Errorf("%q built after a dependency failed", built)
		}
	}
}

// TestSchedulerFailFastWithConcurrentSurvivor exercises spec scenario 6: a
// pool of size >= 2 building two independent objects, one of which fails.
// The worker that built the other (successful) object must still be able
// to return to idle and the whole Run() call must return promptly instead
// of deadlocking on the drain of in-flight results.
func TestSchedulerFailFastWithConcurrentSurvivor(t *testing.T) {
	g := NewGraph()
	objA := NewObject("/out/a.o", "/src/a.c", LangC)
	objB := NewObject("/out/b.o", "/src/b.c", LangC)
	if err := g.Add(objA); err != nil {
		t.Fatal(err)
	}
	if err := g.Add(objB); err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("syntax error")
	var started sync.WaitGroup
	started.Add(2)
	rec := &orderRecorder{fail: map[string]error{"/out/a.o": wantErr}}
	blocking := func(tg *Target) error {
		started.Done()
		started.Wait() // let both jobs reach their build call before either returns
		return rec.build(tg)
	}
	s := NewScheduler(2, blocking)
	done := make(chan error, 1)
	go func() { done <- s.Run(g, []string{"/out/a.o", "/out/b.o"}) }()

	select {
	case err := <-done:
		if err != wantErr {
			t.Fatalf("Run() error = %v, want %v", err, wantErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() deadlocked instead of draining in-flight results after fail-fast")
	}
}

func TestSchedulerSkipsRawSourceDeps(t *testing.T) {
	g := NewGraph()
	src := NewSource("/src/a.c", 1)
	obj := NewObject("/out/a.o", "/src/a.c", LangC)
	if err := g.Add(src); err != nil {
		t.Fatal(err)
	}
	if err := g.Add(obj); err != nil {
		t.Fatal(err)
	}
	rec := &orderRecorder{}
	s := NewScheduler(2, rec.build)
	if err := s.Run(g, []string{"/out/a.o"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.order) != 1 || rec.order[0] != "/out/a.o" {
		t.Errorf("build order = %v, want only the object (Source has no build command)", rec.order)
	}
}

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
	"container/heap"
	"errors"

	"github.com/golang/glog"
)

// errNothingDone marks a job that needed no command (up to date), mirroring
// the teacher's worker.go sentinel of the same name and purpose.
var errNothingDone = errors.New("nothing done")

// BuildFunc performs the actual work for one Target: staleness check plus,
// if stale, running the compile/link/archive command and persisting the
// resulting CacheRecord. It returns errNothingDone when t was already
// up-to-date. The Scheduler only orchestrates DAG ordering and concurrency;
// BuildFunc (supplied by the Driver, C7) owns every domain decision.
type BuildFunc func(t *Target) error

// job is one Target's position in the in-flight build, the brubuild
// analogue of the teacher's job/DepNode pair (worker.go), generalized from
// a dynamically-discovered Makefile dependency tree to a graph that is
// already fully known before scheduling begins.
type job struct {
	t       *Target
	parents []*job
	numDeps int
	id      int
}

type jobResult struct {
	j   *job
	w   *schedWorker
	err error
}

type jobQueue []*job

func (jq jobQueue) Len() int      { return len(jq) }
func (jq jobQueue) Swap(i, j int) { jq[i], jq[j] = jq[j], jq[i] }
func (jq jobQueue) Less(i, j int) bool {
	return jq[i].id < jq[j].id
}
func (jq *jobQueue) Push(x interface{}) { *jq = append(*jq, x.(*job)) }
func (jq *jobQueue) Pop() interface{} {
	old := *jq
	n := len(old)
	item := old[n-1]
	*jq = old[:n-1]
	return item
}

// schedWorker runs one job at a time on its own goroutine, same shape as
// the teacher's worker type.
type schedWorker struct {
	wm       *Scheduler
	jobChan  chan *job
	waitChan chan bool
	doneChan chan bool
}

func newSchedWorker(wm *Scheduler) *schedWorker {
	return &schedWorker{wm: wm, jobChan: make(chan *job), waitChan: make(chan bool), doneChan: make(chan bool)}
}

func (w *schedWorker) Run() {
	done := false
	for !done {
		select {
		case j := <-w.jobChan:
			err := w.wm.runJob(j)
			w.wm.reportResult(w, j, err)
		case done = <-w.waitChan:
		}
	}
	w.doneChan <- true
}

func (w *schedWorker) postJob(j *job) { w.jobChan <- j }
func (w *schedWorker) wait() {
	w.waitChan <- true
	<-w.doneChan
}

// Scheduler executes the targets reachable from a Graph's roots in
// dependency order using a fixed-size worker pool, enforcing the fail-fast
// semantics of spec §5 (I5, I6): once any job fails, no new job is started,
// in-flight jobs finish, and the first error is returned. This is a direct
// generalization of the teacher's workerManager (worker.go), with the
// Makefile-specific dynamic dependency discovery (newDepChan) removed since
// brubuild's Graph is fully known before scheduling starts.
type Scheduler struct {
	build       BuildFunc
	jobs        []*job
	readyQueue  jobQueue
	resultChan  chan jobResult
	stopChan    chan struct{}
	stopped     bool
	freeWorkers []*schedWorker
	busyWorkers map[*schedWorker]bool

	finishCnt int
	skipCnt   int
	firstErr  error
}

// NewScheduler creates a Scheduler with numWorkers goroutines, each capable
// of running one command at a time (spec §5's "fixed-size worker pool").
func NewScheduler(numWorkers int, build BuildFunc) *Scheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}
	s := &Scheduler{
		build:       build,
		resultChan:  make(chan jobResult),
		stopChan:    make(chan struct{}),
		busyWorkers: make(map[*schedWorker]bool),
	}
	for i := 0; i < numWorkers; i++ {
		w := newSchedWorker(s)
		s.freeWorkers = append(s.freeWorkers, w)
		go w.Run()
	}
	heap.Init(&s.readyQueue)
	return s
}

// runJob invokes the configured BuildFunc for j unless the Scheduler has
// already latched a fail-fast stop (spec §5: "in-flight work completes, no
// new work is enqueued").
func (s *Scheduler) runJob(j *job) error {
	select {
	case <-s.stopChan:
		return errNothingDone
	default:
	}
	return s.build(j.t)
}

// Run schedules every Target reachable from roots (following DepIDs) and
// blocks until the build completes or fails fast. It returns the first
// error encountered, or nil if every job succeeded (I6).
func (s *Scheduler) Run(g *Graph, roots []string) error {
	jobsByID := make(map[string]*job)
	var order []string
	var visit func(id string) *job
	visit = func(id string) *job {
		if j, ok := jobsByID[id]; ok {
			return j
		}
		t := g.Get(id)
		if t == nil {
			return nil
		}
		j := &job{t: t}
		jobsByID[id] = j
		order = append(order, id)
		for _, dep := range t.DepIDs {
			dt := g.Get(dep)
			if dt == nil || !dt.HasBuildCommand() {
				continue // not a schedulable node (raw Source, or a header file path)
			}
			dj := visit(dep)
			if dj == nil {
				continue
			}
			dj.parents = append(dj.parents, j)
			j.numDeps++
		}
		return j
	}
	for _, r := range roots {
		visit(r)
	}

	for i, id := range order {
		j := jobsByID[id]
		j.id = i + 1
		s.jobs = append(s.jobs, j)
	}
	for _, j := range s.jobs {
		s.maybePushToReadyQueue(j)
	}
	s.dispatch()

	for s.finishCnt < len(s.jobs) {
		jr := <-s.resultChan
		s.onResult(jr)
		if s.firstErr != nil {
			break
		}
		s.dispatch()
	}

	// Fail-fast stops new dispatch but in-flight jobs still run to
	// completion (spec §5); drain their results so every worker returns to
	// its select loop before wait() tries to stop it, or wait() would block
	// forever on a worker still blocked sending into resultChan.
	for len(s.busyWorkers) > 0 {
		jr := <-s.resultChan
		s.onResult(jr)
	}

	for _, w := range s.freeWorkers {
		w.wait()
	}
	glog.V(1).Infof("scheduler: %d built, %d up-to-date", s.finishCnt-s.skipCnt, s.skipCnt)
	return s.firstErr
}

func (s *Scheduler) dispatch() {
	if s.stopped {
		return
	}
	for len(s.freeWorkers) > 0 && s.readyQueue.Len() > 0 {
		j := heap.Pop(&s.readyQueue).(*job)
		w := s.freeWorkers[0]
		s.freeWorkers = s.freeWorkers[1:]
		s.busyWorkers[w] = true
		w.postJob(j)
	}
}

func (s *Scheduler) maybePushToReadyQueue(j *job) {
	if j.numDeps != 0 {
		return
	}
	heap.Push(&s.readyQueue, j)
}

func (s *Scheduler) onResult(jr jobResult) {
	delete(s.busyWorkers, jr.w)
	s.freeWorkers = append(s.freeWorkers, jr.w)
	for _, p := range jr.j.parents {
		p.numDeps--
		s.maybePushToReadyQueue(p)
	}
	s.finishCnt++
	if jr.err == errNothingDone {
		s.skipCnt++
		return
	}
	if jr.err != nil && s.firstErr == nil {
		s.firstErr = jr.err
		s.stopped = true
		close(s.stopChan)
	}
}

func (s *Scheduler) reportResult(w *schedWorker, j *job, err error) {
	s.resultChan <- jobResult{w: w, j: j, err: err}
}

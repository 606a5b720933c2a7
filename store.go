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
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// storeFormatVersion is bumped whenever the gob-encoded record shapes
// change incompatibly; a mismatch is treated the same as a missing store,
// the same way the teacher's serialize.go keys its cache on "what it
// understands" so a stale binary never tries to interpret a record it
// can't decode.
const storeFormatVersion = 1

// DepFingerprint pins a single dependency's identity at the time a Target
// was last built: its path plus either an mtime or a content hash.
type DepFingerprint struct {
	Path    string
	MTime   int64
	Content string // sha1 hex; nothing in this package sets it, staleness uses MTime
}

// CacheRecord is the per-target persistent fingerprint.
type CacheRecord struct {
	OutputPath     string
	Deps           []DepFingerprint // order-sensitive for linker input lists
	OptionGroup    *EncodedOptionGroup
	ToolPath       string
	NoHeaderDeps   bool
	OrderSensitive bool // false for object sets (order-insensitive), true for link steps
}

// EncodedOptionGroup is the gob-friendly projection of an OptionGroup: gob
// cannot encode the unexported map directly, so CacheRecord carries this
// instead (mirrors the teacher's serializableVar/serializableDepNode split
// in serialize.go, which exists for exactly this reason).
type EncodedOptionGroup struct {
	BuildType int
	Kinds     []int
	Options   [][]Option
}

// EncodeOptionGroup projects g into its gob-friendly form.
func EncodeOptionGroup(g *OptionGroup) *EncodedOptionGroup {
	e := &EncodedOptionGroup{BuildType: int(g.BuildType)}
	for _, k := range allProcessorKinds {
		e.Kinds = append(e.Kinds, int(k))
		e.Options = append(e.Options, g.Set(k).Options())
	}
	return e
}

// Decode reconstructs an OptionGroup from its encoded form.
func (e *EncodedOptionGroup) Decode() *OptionGroup {
	g := NewOptionGroup(BuildType(e.BuildType))
	for i, k := range e.Kinds {
		set := g.Set(ProcessorKind(k))
		for _, o := range e.Options[i] {
			set.Add(o, true)
		}
	}
	return g
}

// Equal compares two encoded groups by decoding both and comparing the
// results with OptionGroup.Equal.
func (e *EncodedOptionGroup) Equal(other *EncodedOptionGroup) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Decode().Equal(other.Decode())
}

// globalHeaderKey is the fixed key under which the GlobalHeader is stored.
const globalHeaderKey = "__globals__"

// GlobalHeader is the single cache entry encoding roots, tool paths, and the
// eight canonical OptionSets. Any mismatch invalidates the entire cache.
type GlobalHeader struct {
	Version  int
	SrcRoot  string
	ObjRoot  string
	CCPath   string
	CXXPath  string
	Options  *EncodedOptionGroup
}

// Equal reports whether two headers describe the same build configuration.
func (h *GlobalHeader) Equal(other *GlobalHeader) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.Version == other.Version &&
		h.SrcRoot == other.SrcRoot &&
		h.ObjRoot == other.ObjRoot &&
		h.CCPath == other.CCPath &&
		h.CXXPath == other.CXXPath &&
		h.Options.Equal(other.Options)
}

// Store is the persistent key/value cache. Keys are byte strings (in
// practice: the fixed global-header key, or a Target's OutputPath); values
// are gob-encoded CacheRecords or the GlobalHeader. The store is opened by
// the main thread; writes happen only after the scheduler drains, so no
// locking is needed here.
type Store struct {
	path    string
	records map[string]CacheRecord
	header  *GlobalHeader
	dirty   bool
}

// cacheFileName derives the store's path from the output root and the
// build's link/build type.
func cacheFileName(outputRoot string, lt LinkType, bt BuildType) string {
	return filepath.Join(outputRoot, fmt.Sprintf("%s_%s.bcache", lt, bt))
}

// OpenStore opens (or creates) the store at path. On first open the store
// is empty; on reopen, the caller must call ValidateGlobals to decide
// whether to clear it.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]CacheRecord)}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		glog.V(1).Infof("store: %s does not exist, starting empty", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persistence error: opening store: %w", err)
	}
	defer f.Close()

	var payload struct {
		Header  *GlobalHeader
		Records map[string]CacheRecord
	}
	if err := gob.NewDecoder(f).Decode(&payload); err != nil {
		glog.Warningf("store: %s is corrupt, starting empty: %v", path, err)
		return s, nil
	}
	s.header = payload.Header
	if payload.Records != nil {
		s.records = payload.Records
	}
	return s, nil
}

// ValidateGlobals conservatively invalidates the cache: if any global key
// differs from the current build's values, the entire store is cleared.
func (s *Store) ValidateGlobals(current *GlobalHeader) {
	if s.header == nil {
		s.header = current
		s.dirty = true
		return
	}
	if !s.header.Equal(current) {
		glog.Infof("store: global header changed, clearing cache")
		s.records = make(map[string]CacheRecord)
		s.header = current
		s.dirty = true
	}
}

// Get returns the CacheRecord for key, if present.
func (s *Store) Get(key string) (CacheRecord, bool) {
	r, ok := s.records[key]
	return r, ok
}

// Put records r for key. The caller issues this only after the
// corresponding build step succeeds.
func (s *Store) Put(key string, r CacheRecord) {
	s.records[key] = r
	s.dirty = true
}

// Iterate calls fn for every (key, record) pair currently in the store.
func (s *Store) Iterate(fn func(key string, r CacheRecord)) {
	for k, r := range s.records {
		fn(k, r)
	}
}

// Close persists the store to disk if anything changed since OpenStore (or
// since the last Close). The in-memory records are kept. Writes are atomic
// (write-to-temp, rename) so a crash mid-write never corrupts the prior
// cache.
func (s *Store) Close() error {
	if !s.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("persistence error: creating store directory: %w", err)
	}
	var buf bytes.Buffer
	payload := struct {
		Header  *GlobalHeader
		Records map[string]CacheRecord
	}{Header: s.header, Records: s.records}
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("persistence error: encoding store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persistence error: writing store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("persistence error: renaming store: %w", err)
	}
	s.dirty = false
	return nil
}

// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"log/slog"
	"math"

	"cogentcore.org/render/base/errors"
	lru "github.com/hashicorp/golang-lru"
)

// programKey is the exact source pair, compared byte for byte.
type programKey struct {
	vertex, fragment string
}

// CacheStats are counters of [ProgramCache] activity.
type CacheStats struct {
	Hits      int
	Misses    int
	Compiles  int
	Failures  int
	Evictions int
}

// ProgramCache returns one [Program] per distinct (vertex, fragment)
// source pair, compiling each pair once. Failed builds are not cached,
// so a later request compiles again. With a capacity, the least recently
// used programs are evicted; eviction drops the cache's reference, and
// programs still held elsewhere stay alive until released.
type ProgramCache struct {
	ctx     *Context
	cache   *lru.Cache
	stats   CacheStats
	purging bool
}

// NewProgramCache returns a new cache for the context holding up to
// capacity programs; 0 is unbounded.
func NewProgramCache(ctx *Context, capacity int) *ProgramCache {
	pc := &ProgramCache{ctx: ctx}
	if capacity <= 0 {
		capacity = math.MaxInt32
	}
	pc.cache = errors.Log1(lru.NewWithEvict(capacity, pc.evicted))
	return pc
}

func (pc *ProgramCache) evicted(key, value any) {
	if !pc.purging {
		pc.stats.Evictions++
		if Debug {
			slog.Info("gpu: program evicted from cache")
		}
	}
	value.(*Program).Release()
}

// GetOrBuild returns the program for the exact source pair, building it
// on the first request. Repeated requests return the identical *Program
// without compiling. A build failure returns a [*ShaderError] and nothing
// is cached. The returned program is owned by the cache: callers keeping
// it beyond the next GetOrBuild must [Program.Acquire] it.
func (pc *ProgramCache) GetOrBuild(vertexSource, fragmentSource string) (*Program, error) {
	key := programKey{vertexSource, fragmentSource}
	if v, ok := pc.cache.Get(key); ok {
		pc.stats.Hits++
		return v.(*Program), nil
	}
	pc.stats.Misses++
	pc.stats.Compiles++
	p, err := NewProgram(pc.ctx, vertexSource, fragmentSource)
	if err != nil {
		pc.stats.Failures++
		var ce *CompileError
		if errors.As(err, &ce) {
			return nil, &ShaderError{Stage: ce.Stage, Log: ce.Log, Err: err}
		}
		return nil, err
	}
	pc.cache.Add(key, p)
	return p, nil
}

// Len returns the number of cached programs.
func (pc *ProgramCache) Len() int { return pc.cache.Len() }

// Stats returns the cache counters.
func (pc *ProgramCache) Stats() CacheStats { return pc.stats }

// Release drops all cached programs.
func (pc *ProgramCache) Release() {
	pc.purging = true
	pc.cache.Purge()
	pc.purging = false
}

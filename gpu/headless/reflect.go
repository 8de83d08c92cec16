// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package headless

import (
	"regexp"
	"slices"
	"strings"

	"cogentcore.org/render/gpu"
)

var (
	inRegexp      = regexp.MustCompile(`^(?:layout\s*\([^)]*\)\s*)?(?:flat\s+)?in\s+\w+\s+(\w+)\s*;`)
	uniformRegexp = regexp.MustCompile(`^uniform\s+(?:(?:lowp|mediump|highp)\s+)?\w+\s+(\w+)\s*;`)
)

// preprocess returns the lines of the source that are active after
// #define, #ifdef, #ifndef, #else and #endif, trimmed of space.
// Directives are kept in the output only when active, except for
// the conditionals themselves which are removed.
func preprocess(src string) []string {
	defined := map[string]bool{}
	var stack []bool // whether each enclosing block is active
	active := func() bool {
		return !slices.Contains(stack, false)
	}
	var out []string
	for _, ln := range strings.Split(src, "\n") {
		ln = strings.TrimSpace(ln)
		fields := strings.Fields(ln)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "#ifdef", "#ifndef":
			on := len(fields) > 1 && defined[fields[1]]
			if fields[0] == "#ifndef" {
				on = !on
			}
			stack = append(stack, on)
			continue
		case "#else":
			if n := len(stack); n > 0 {
				stack[n-1] = !stack[n-1]
			}
			continue
		case "#endif":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			continue
		}
		if !active() {
			continue
		}
		if fields[0] == "#define" && len(fields) > 1 {
			defined[fields[1]] = true
		}
		out = append(out, ln)
	}
	return out
}

// reflect returns the vertex attributes and uniforms declared
// in the active code of the sources.
func reflect(vertex, fragment string) gpu.ProgramInfo {
	info := gpu.ProgramInfo{}
	for _, ln := range preprocess(vertex) {
		if m := inRegexp.FindStringSubmatch(ln); m != nil {
			info.Attributes = append(info.Attributes, m[1])
		}
	}
	for _, src := range []string{vertex, fragment} {
		for _, ln := range preprocess(src) {
			if m := uniformRegexp.FindStringSubmatch(ln); m != nil && !slices.Contains(info.Uniforms, m[1]) {
				info.Uniforms = append(info.Uniforms, m[1])
			}
		}
	}
	return info
}

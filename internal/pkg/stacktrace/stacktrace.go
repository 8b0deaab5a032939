// Package stacktrace trims raw goroutine dumps down to this module's frames.
package stacktrace

import "strings"

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that points into this module, outermost call last.
func InternalPaths(stack []byte) []string {
	var paths []string

	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)

		// file lines look like "/abs/path/file.go:42 +0x1d"
		loc, _, _ := strings.Cut(line, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}

		idx := strings.Index(loc, marker)
		if idx == -1 {
			continue
		}
		paths = append(paths, loc[idx+1:])
	}

	return paths
}

// Summary returns the internal frames of stack, or the whole dump when none
// of them belong to this module.
func Summary(stack []byte) any {
	if paths := InternalPaths(stack); len(paths) > 0 {
		return paths
	}
	return string(stack)
}

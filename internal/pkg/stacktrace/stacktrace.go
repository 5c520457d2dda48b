// Package stacktrace trims goroutine dumps to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// the raw debug.Stack output that lies under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		// file lines are tab indented: "\t/abs/path/file.go:42 +0x1a"
		if !strings.HasPrefix(line, "\t") {
			continue
		}
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		_, rel, ok := strings.Cut(loc, "/internal/")
		if !ok || !strings.Contains(rel, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+rel)
	}
	return paths
}

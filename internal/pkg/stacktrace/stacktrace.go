// Package stacktrace renders short stack traces limited to this module's
// internal packages, for panic logs.
package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

const maxDepth = 64

// Internal returns the calling stack as "internal/<pkg>/<file>.go:<line>"
// entries, skipping the given number of frames above its caller. Frames
// outside an internal/ directory are dropped.
func Internal(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	paths := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if short, ok := internalPath(frame.File); ok {
			paths = append(paths, fmt.Sprintf("%s:%d", short, frame.Line))
		}
		if !more {
			break
		}
	}

	return paths
}

func internalPath(file string) (string, bool) {
	idx := strings.LastIndex(file, "/internal/")
	if idx == -1 || strings.Contains(file, "/internal/pkg/stacktrace/") {
		return "", false
	}

	return file[idx+1:], true
}

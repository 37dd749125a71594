// Package stacktrace condenses panic stacks for logging.
package stacktrace

import "strings"

// InternalPaths extracts the module-local "internal/...go:line" frames
// from a raw debug.Stack dump, dropping runtime and dependency frames.
// An empty result means the panic never touched module code.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")

	var paths []string
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		at := strings.Index(line, ".go:")
		if at == -1 || !strings.Contains(line, "/internal/") {
			continue
		}

		end := len(line)
		if sp := strings.Index(line[at:], " "); sp != -1 {
			end = at + sp
		}

		frame := line[:end]
		if cut := strings.Index(frame, "/internal/"); cut != -1 {
			paths = append(paths, frame[cut+1:])
		}
	}
	return paths
}

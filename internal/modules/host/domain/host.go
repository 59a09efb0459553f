package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const DefaultLogTailLines = 200

// Runtime describes the daemon process as seen from outside it.
type Runtime struct {
	PID     int
	Running bool
}

// Tail returns the last n lines read from r.
func Tail(r io.Reader, n int) (string, error) {
	if n <= 0 {
		n = DefaultLogTailLines
	}
	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < n {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

package train

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadTargets reads a target bitstring file: one fixed-width binary
// string per line, blank lines and '#' comments ignored. Every line
// must match the given width exactly.
func LoadTargets(path string, width int) ([]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	var targets []uint64

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		state, err := ParseBasisState(line, width)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		targets = append(targets, state)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	if len(targets) == 0 {
		return nil, &InvalidInputError{Reason: "targets file contains no bitstrings"}
	}

	return targets, nil
}

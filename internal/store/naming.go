package store

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Scheme selects how NextAvailableName derives the next candidate.
type Scheme int

const (
	// SchemeIncrement recognizes an already numbered name, stem(N).ext, and
	// bumps N; any other name gets (1) inserted before the extension.
	SchemeIncrement Scheme = iota
	// SchemeSequential always derives stem(1).ext, stem(2).ext, ... from the
	// original name, without looking at what the name already ends with.
	SchemeSequential
)

var numberedName = regexp.MustCompile(`^(.*)\((\d+)\)(\.[^.()/\\]*)?$`)

// NextAvailableName returns path if nothing exists there, otherwise the first
// numbered variant for which exists reports false.
func NextAvailableName(path string, exists func(string) bool, scheme Scheme) string {
	if !exists(path) {
		return path
	}

	switch scheme {
	case SchemeSequential:
		stem, ext := splitExt(path)
		for i := 1; ; i++ {
			candidate := stem + "(" + strconv.Itoa(i) + ")" + ext
			if !exists(candidate) {
				return candidate
			}
		}
	default:
		candidate := path
		for exists(candidate) {
			candidate = bumpName(candidate)
		}
		return candidate
	}
}

func bumpName(path string) string {
	if m := numberedName.FindStringSubmatch(path); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return m[1] + "(" + strconv.Itoa(n+1) + ")" + m[3]
		}
	}
	stem, ext := splitExt(path)
	return stem + "(1)" + ext
}

func splitExt(path string) (string, string) {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}

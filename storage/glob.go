package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/alekLukanen/errs"
)

// MatchGlob reports whether the slash separated key matches the pattern.
// Wildcards never cross a slash so the pattern and the key must have the
// same number of segments.
func MatchGlob(pattern, key string) (bool, error) {
	matched, err := path.Match(pattern, key)
	if err != nil {
		return false, errs.Wrap(errs.NewStackError(fmt.Errorf("pattern %s", pattern)), ErrInvalidGlob, err)
	}
	return matched, nil
}

// GlobPrefix is the directory part of the pattern before the first
// wildcard. Listing with it narrows the keys that need matching.
func GlobPrefix(pattern string) string {
	idx := strings.IndexAny(pattern, `*?[\`)
	if idx < 0 {
		return pattern
	}
	slashIdx := strings.LastIndex(pattern[:idx], "/")
	if slashIdx < 0 {
		return ""
	}
	return pattern[:slashIdx+1]
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrInvalidTagName = errors.New("invalid tag name")

// TagKey is the case-folded form tag uniqueness is enforced on.
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTagName trims name and checks it is non-empty, within
// TagNameMaxLength characters and free of '/', which would not survive as
// a path segment of /tags/{name}.
func NormalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTagName)
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q contains '/'", ErrInvalidTagName, name)
	}
	if utf8.RuneCountInString(name) > TagNameMaxLength {
		return "", fmt.Errorf("%w: %q longer than %d characters", ErrInvalidTagName, name, TagNameMaxLength)
	}
	return name, nil
}

// NormalizeTagNames normalizes every name and drops case-insensitive
// duplicates, keeping the first spelling.
func NormalizeTagNames(names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		name, err := NormalizeTagName(n)
		if err != nil {
			return nil, err
		}
		key := TagKey(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out, nil
}

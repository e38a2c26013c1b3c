package update

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionRegex accepts exactly three dot-separated decimal components
// with an optional leading "v". Anything else is a parse failure, never a
// best-effort match.
var versionRegex = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// Version is a strict (major, minor, patch) triple ordered
// lexicographically.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a strict three-component version string.
func ParseVersion(s string) (Version, error) {
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return Version{}, fmt.Errorf("invalid version format: %q", s)
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch, _ := strconv.Atoi(matches[3])

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering by (major, minor, patch).
func (v Version) Compare(other Version) int {
	if cmp := compareInt(v.Major, other.Major); cmp != 0 {
		return cmp
	}
	if cmp := compareInt(v.Minor, other.Minor); cmp != 0 {
		return cmp
	}
	return compareInt(v.Patch, other.Patch)
}

func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

func compareInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

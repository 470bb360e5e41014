package utils

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// VersionInfo represents parsed asset version components
type VersionInfo struct {
	Major int
	Minor int
	Patch int
}

// ParseVersionInfo parses an asset version string (e.g., "2.15.0") into components
func ParseVersionInfo(version string) (*VersionInfo, error) {
	if version == "" {
		return nil, fmt.Errorf("version string cannot be empty")
	}

	parts := strings.Split(version, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid version format: %s (expected major.minor[.patch])", version)
	}

	info := &VersionInfo{}
	fields := []*int{&info.Major, &info.Minor, &info.Patch}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version component %q in %s", part, version)
		}
		*fields[i] = n
	}

	return info, nil
}

// CompareVersions compares two version strings
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func CompareVersions(v1, v2 string) (int, error) {
	info1, err := ParseVersionInfo(v1)
	if err != nil {
		return 0, fmt.Errorf("error parsing version %s: %w", v1, err)
	}

	info2, err := ParseVersionInfo(v2)
	if err != nil {
		return 0, fmt.Errorf("error parsing version %s: %w", v2, err)
	}

	if c := cmp.Compare(info1.Major, info2.Major); c != 0 {
		return c, nil
	}
	if c := cmp.Compare(info1.Minor, info2.Minor); c != 0 {
		return c, nil
	}
	return cmp.Compare(info1.Patch, info2.Patch), nil
}

package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Matches reports whether version satisfies pattern. Pattern syntax,
// from spec.md §4.5:
//
//	"X.Y.Z"  exact match
//	"X.Y"    matches X.Y.*
//	"X.x"    matches X.*.*
//	"X-Y"    inclusive numeric range on major
//	"X+"     >= X (major)
func Matches(pattern, ver string) bool {
	major, minor, patch, ok := parseVersion(ver)
	if !ok {
		return false
	}

	switch {
	case strings.HasSuffix(pattern, "+"):
		pMajor, err := strconv.Atoi(strings.TrimSuffix(pattern, "+"))
		return err == nil && major >= pMajor

	case strings.Contains(pattern, "-") && !strings.Contains(pattern, "."):
		parts := strings.SplitN(pattern, "-", 2)
		if len(parts) != 2 {
			return false
		}
		lo, errLo := strconv.Atoi(parts[0])
		hi, errHi := strconv.Atoi(parts[1])
		return errLo == nil && errHi == nil && major >= lo && major <= hi

	case strings.HasSuffix(pattern, ".x"):
		pMajor, err := strconv.Atoi(strings.TrimSuffix(pattern, ".x"))
		return err == nil && major == pMajor

	default:
		fields := strings.Split(pattern, ".")
		switch len(fields) {
		case 3: // exact
			return semver.Compare(toSemver(pattern), toSemver(fmt.Sprintf("%d.%d.%d", major, minor, patch))) == 0
		case 2: // X.Y matches X.Y.*
			pMajor, errA := strconv.Atoi(fields[0])
			pMinor, errB := strconv.Atoi(fields[1])
			return errA == nil && errB == nil && major == pMajor && minor == pMinor
		default:
			return false
		}
	}
}

// precedence ranks pattern kinds for adapter selection: exact > X.Y >
// X.x > range > X+. Higher is more specific.
func precedence(pattern string) int {
	switch {
	case strings.HasSuffix(pattern, "+"):
		return 0
	case strings.Contains(pattern, "-") && !strings.Contains(pattern, "."):
		return 1
	case strings.HasSuffix(pattern, ".x"):
		return 2
	case len(strings.Split(pattern, ".")) == 2:
		return 3
	case len(strings.Split(pattern, ".")) == 3:
		return 4
	default:
		return -1
	}
}

// SelectAdapter picks the most-specific pattern in adapters that matches
// ver. Ties within the same precedence band pick the highest matching
// pattern (by semver comparison of its normalized floor). Returns the
// chosen parser id and true, or ("", false) if nothing matches.
func SelectAdapter(ver string, adapters map[string]string) (string, bool) {
	bestPattern := ""
	bestParser := ""
	bestPrec := -1
	found := false

	for pattern, parserID := range adapters {
		if !Matches(pattern, ver) {
			continue
		}
		prec := precedence(pattern)
		if prec > bestPrec {
			bestPrec, bestPattern, bestParser, found = prec, pattern, parserID, true
			continue
		}
		if prec == bestPrec && found {
			if comparePatternFloor(pattern, bestPattern) > 0 {
				bestPattern, bestParser = pattern, parserID
			}
		}
	}

	return bestParser, found
}

// comparePatternFloor orders two patterns of identical precedence by
// their normalized "floor" version, highest first.
func comparePatternFloor(a, b string) int {
	return semver.Compare(toSemver(patternFloor(a)), toSemver(patternFloor(b)))
}

func patternFloor(pattern string) string {
	p := strings.TrimSuffix(strings.TrimSuffix(pattern, "+"), ".x")
	if idx := strings.Index(p, "-"); idx > 0 && !strings.Contains(p, ".") {
		p = p[:idx]
	}
	fields := strings.Split(p, ".")
	for len(fields) < 3 {
		fields = append(fields, "0")
	}
	return strings.Join(fields[:3], ".")
}

func toSemver(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// parseVersion splits "X.Y.Z" / "X.Y" / "X" into integer components,
// defaulting missing trailing components to 0.
func parseVersion(ver string) (major, minor, patch int, ok bool) {
	fields := strings.SplitN(ver, ".", 3)
	var err error
	if len(fields) > 0 {
		major, err = strconv.Atoi(fields[0])
		if err != nil {
			return 0, 0, 0, false
		}
	}
	if len(fields) > 1 {
		minor, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, 0, false
		}
	}
	if len(fields) > 2 {
		patch, err = strconv.Atoi(fields[2])
		if err != nil {
			return 0, 0, 0, false
		}
	}
	return major, minor, patch, true
}

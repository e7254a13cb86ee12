// Package version orders the loosely structured version strings used by
// Chocolatey packages.
//
// The ordering deliberately mirrors what choco itself reports rather than
// strict semantic versioning: a longer version wins over its own prefix,
// a released part wins over a prerelease part with the same number, and two
// prerelease parts compare as plain strings ("beta2" is newer than "beta14").
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// prereleasePattern matches numeric parts followed by a "-" suffix
var prereleasePattern = regexp.MustCompile(`^(\d+\.?)+-.+`)

// IsNewer reports whether version a is ordered strictly after version b.
func IsNewer(a, b string) bool {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i, pa := range aParts {
		if i >= len(bParts) {
			return true
		}
		pb := bParts[i]

		na, aNumeric := parsePart(pa)
		nb, bNumeric := parsePart(pb)

		switch {
		case aNumeric && !bNumeric:
			return na >= leadingNumber(pb)
		case !aNumeric && bNumeric:
			return leadingNumber(pa) > nb
		case aNumeric && bNumeric:
			if na != nb {
				return na > nb
			}
		default:
			// two prerelease parts decide the order right here, even when equal
			return pa > pb
		}
	}
	return false
}

// parsePart parses a whole version part as a 32-bit integer.
func parsePart(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingNumber returns the numeric value of the part before its first "-",
// or 0 when that prefix is not a number.
func leadingNumber(s string) int64 {
	head, _, _ := strings.Cut(s, "-")
	n, _ := parsePart(head)
	return n
}

// IsPrerelease reports whether the version carries a prerelease suffix
// after its numeric parts (for example "1.2.0-beta1").
func IsPrerelease(v string) bool {
	return prereleasePattern.MatchString(v)
}

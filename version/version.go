// Package version implements semantic version parsing, precedence and
// range matching for source negotiation.
//
// Version format: MAJOR[.MINOR[.PATCH]][-PRERELEASE][+BUILD]
//   - MAJOR, MINOR, PATCH: decimal numbers, missing trailing parts default to 0
//   - PRERELEASE: dot-separated identifiers
//   - BUILD: dot-separated identifiers, informational only
//
// Parsing is deliberately lenient. A string that is not valid semver still
// yields a Version; core components that are not numbers become "not a
// number" and simply fail every numeric comparison.
//
// Reference: https://semver.org/spec/v2.0.0.html
package version

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// component is one of the major/minor/patch numbers.
// A component that failed to parse has valid == false and compares like NaN:
// never greater, less or equal to anything, and never zero.
type component struct {
	n     uint64
	valid bool
}

func num(n uint64) component { return component{n: n, valid: true} }

// parseComponent skips leading whitespace and reads the longest run of
// leading digits. Anything else, or a value overflowing uint64, is NaN.
func parseComponent(s string) component {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return component{}
	}
	n, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return component{}
	}
	return num(n)
}

func (c component) gt(o component) bool { return c.valid && o.valid && c.n > o.n }
func (c component) lt(o component) bool { return c.valid && o.valid && c.n < o.n }
func (c component) eq(o component) bool { return c.valid && o.valid && c.n == o.n }
func (c component) zero() bool          { return c.valid && c.n == 0 }

func (c component) String() string {
	if !c.valid {
		return "NaN"
	}
	return strconv.FormatUint(c.n, 10)
}

// Version is a parsed semantic version. It is an immutable value and safe to
// copy and share.
type Version struct {
	major, minor, patch component

	// nil means absent, which is distinct from an empty list.
	prerelease []string
	build      []string
}

// New builds a Version from its components. A nil prerelease or build means
// the version has none.
func New(major, minor, patch uint64, prerelease, build []string) Version {
	return Version{
		major:      num(major),
		minor:      num(minor),
		patch:      num(patch),
		prerelease: clone(prerelease),
		build:      clone(build),
	}
}

// Parse parses a version string. It never fails; see the package
// documentation for how malformed input is handled.
func Parse(s string) Version {
	rest, build, hasBuild := strings.Cut(s, "+")
	core, pre, hasPre := strings.Cut(rest, "-")

	parts := strings.Split(core, ".")
	v := Version{
		major: parseComponent(parts[0]),
		minor: num(0),
		patch: num(0),
	}
	if len(parts) > 1 {
		v.minor = parseComponent(parts[1])
	}
	if len(parts) > 2 {
		v.patch = parseComponent(parts[2])
	}
	if hasPre {
		v.prerelease = strings.Split(pre, ".")
	}
	if hasBuild {
		v.build = strings.Split(build, ".")
	}
	return v
}

// Major returns the major component, or 0 if it did not parse.
func (v Version) Major() uint64 { return v.major.n }

// Minor returns the minor component, or 0 if it did not parse.
func (v Version) Minor() uint64 { return v.minor.n }

// Patch returns the patch component, or 0 if it did not parse.
func (v Version) Patch() uint64 { return v.patch.n }

// Valid reports whether all three core components parsed as numbers.
func (v Version) Valid() bool {
	return v.major.valid && v.minor.valid && v.patch.valid
}

// Prerelease returns the prerelease identifiers, or nil if there are none.
func (v Version) Prerelease() []string { return clone(v.prerelease) }

// Build returns the build identifiers, or nil if there are none.
func (v Version) Build() []string { return clone(v.build) }

// HasPrerelease reports whether the version carries a prerelease tag.
func (v Version) HasPrerelease() bool { return v.prerelease != nil }

// String renders the version in canonical form. Components that did not
// parse render as "NaN".
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(v.major.String())
	b.WriteByte('.')
	b.WriteString(v.minor.String())
	b.WriteByte('.')
	b.WriteString(v.patch.String())
	if v.prerelease != nil {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.prerelease, "."))
	}
	if v.build != nil {
		b.WriteByte('+')
		b.WriteString(strings.Join(v.build, "."))
	}
	return b.String()
}

// IsEqual reports whether major, minor and patch are identical.
// Prerelease and build tags are ignored, so 1.2.3 equals 1.2.3-rc.1.
func (v Version) IsEqual(other Version) bool {
	return v.major.eq(other.major) && v.minor.eq(other.minor) && v.patch.eq(other.patch)
}

// IsCompatibleWith reports whether other is in the same breaking-change
// generation as v: same nonzero major, or both majors zero with the same
// nonzero minor, or both majors and minors zero with the same nonzero patch.
//
// This is the ^ operator of npm's semver without the prerelease exclusion
// rule, which is applied separately by IsStableOrCompatiblePrerelease.
func (v Version) IsCompatibleWith(other Version) bool {
	if !v.major.zero() && v.major.eq(other.major) {
		return true
	}
	if !v.major.zero() || !other.major.zero() {
		return false
	}
	if !v.minor.zero() && v.minor.eq(other.minor) {
		return true
	}
	if !v.minor.zero() || !other.minor.zero() {
		return false
	}
	return !v.patch.zero() && v.patch.eq(other.patch)
}

// HasPrecedenceOver reports whether v is strictly newer than other under
// Semantic Versioning 2.0.0 precedence. Build metadata is ignored, so two
// versions that differ only in build have no precedence either way.
func (v Version) HasPrecedenceOver(other Version) bool {
	for _, p := range [...][2]component{
		{v.major, other.major},
		{v.minor, other.minor},
		{v.patch, other.patch},
	} {
		if p[0].gt(p[1]) {
			return true
		}
		if p[0].lt(p[1]) {
			return false
		}
	}

	switch {
	case v.prerelease == nil && other.prerelease != nil:
		return true
	case v.prerelease == nil || other.prerelease == nil:
		return false
	}
	return compareIdentifierLists(v.prerelease, other.prerelease) > 0
}

// IsStableOrCompatiblePrerelease applies the prerelease exclusion rule with
// v as a range term and other as the candidate: a stable candidate always
// passes, a prerelease candidate only passes within v's exact
// major.minor.patch series.
func (v Version) IsStableOrCompatiblePrerelease(other Version) bool {
	if other.prerelease == nil {
		return true
	}
	return v.IsEqual(other)
}

// CompareIdentifiers compares two prerelease identifiers.
// Returns -1 if a < b, 0 if they are not ordered, 1 if a > b.
//
//   - Digits-only identifiers compare numerically
//   - Digits-only identifiers sort BEFORE alphanumeric ones
//   - Alphanumeric identifiers compare lexically
//
// The empty identifier counts as digits-only but has no numeric value, so it
// is unordered against every other digits-only identifier.
func CompareIdentifiers(a, b string) int {
	aNum, bNum := isNumeric(a), isNumeric(b)
	switch {
	case !aNum && bNum:
		return 1
	case aNum && !bNum:
		return -1
	case !aNum && !bNum:
		return strings.Compare(a, b)
	}
	if a == "" || b == "" {
		return 0
	}
	return compareDigits(a, b)
}

// compareDigits compares two decimal strings by value without converting
// them, so arbitrarily long identifiers never overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareIdentifierLists compares positionally; when every shared position
// is unordered, the longer list wins.
func compareIdentifierLists(a, b []string) int {
	for i := range min(len(a), len(b)) {
		if c := CompareIdentifiers(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// Compare orders two versions by precedence.
// Returns -1 if b has precedence over a, 1 if a has precedence over b, and 0
// when neither does.
func Compare(a, b Version) int {
	switch {
	case a.HasPrecedenceOver(b):
		return 1
	case b.HasPrecedenceOver(a):
		return -1
	}
	return 0
}

// Sort sorts versions in ascending precedence. The sort is stable, so
// versions without precedence over each other keep their input order.
func Sort(versions []Version) {
	slices.SortStableFunc(versions, Compare)
}

// Max returns the version with higher precedence, preferring a on ties.
func Max(a, b Version) Version {
	if b.HasPrecedenceOver(a) {
		return b
	}
	return a
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

package version

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRequirementTerm is matched by errors.Is for any requirement
// term that does not contain a version number.
var ErrMalformedRequirementTerm = errors.New("malformed requirement term")

// MalformedTermError reports a requirement term with no digit in it, which
// leaves nowhere to split comparator from version.
type MalformedTermError struct {
	Requirement string
	Term        string
}

func (e *MalformedTermError) Error() string {
	return fmt.Sprintf("bad requirement %q: term %q has no version number", e.Requirement, e.Term)
}

func (e *MalformedTermError) Unwrap() error {
	return ErrMalformedRequirementTerm
}

// Comparator is the operator prefix of a requirement term.
type Comparator string

// Recognized comparators. Any other prefix is kept as written and places no
// constraint on the candidate.
const (
	Unspecified    Comparator = ""
	Exact          Comparator = "="
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
	Compatible     Comparator = "^"
)

// Known reports whether c is one of the recognized comparators.
func (c Comparator) Known() bool {
	switch c {
	case Unspecified, Exact, Greater, GreaterOrEqual, Less, LessOrEqual, Compatible:
		return true
	}
	return false
}

// Term is a single (comparator, version) requirement.
type Term struct {
	Comparator Comparator
	Version    Version
}

// SatisfiedBy reports whether candidate passes the prerelease exclusion rule
// and the comparator's relation.
func (t Term) SatisfiedBy(candidate Version) bool {
	if !t.Version.IsStableOrCompatiblePrerelease(candidate) {
		return false
	}

	switch t.Comparator {
	case Unspecified, Exact:
		return candidate.IsEqual(t.Version)
	case Greater:
		return candidate.HasPrecedenceOver(t.Version)
	case GreaterOrEqual:
		return candidate.HasPrecedenceOver(t.Version) || candidate.IsEqual(t.Version)
	case Less:
		return t.Version.HasPrecedenceOver(candidate)
	case LessOrEqual:
		return t.Version.HasPrecedenceOver(candidate) || candidate.IsEqual(t.Version)
	case Compatible:
		return t.Version.IsCompatibleWith(candidate)
	}
	// TODO: unknown comparators such as "~" are accepted without constraint;
	// decide whether to reject them once embedders stop relying on it.
	return true
}

func (t Term) String() string {
	return string(t.Comparator) + t.Version.String()
}

// Range is a disjunction of requirement sets, each of which is a
// conjunction of terms.
//
// "^1.2.0 || >=2.0.0 <2.5.0" has two sets: [^1.2.0] and [>=2.0.0, <2.5.0].
type Range struct {
	sets [][]Term
}

// ParseRequirement parses a whitespace-separated requirement string.
//
// The token "||" closes the current set. Every other token is split at its
// first digit into comparator and version. Empty sets are dropped, so
// "|| 1.2.4 ||" has a single set. A token with no digit fails the whole
// parse with a *MalformedTermError.
func ParseRequirement(s string) (Range, error) {
	var (
		sets    [][]Term
		current []Term
	)
	closeSet := func() {
		if len(current) > 0 {
			sets = append(sets, current)
		}
		current = nil
	}

	for _, tok := range strings.Fields(s) {
		if tok == "||" {
			closeSet()
			continue
		}
		i := strings.IndexFunc(tok, func(r rune) bool { return r >= '0' && r <= '9' })
		if i < 0 {
			return Range{}, &MalformedTermError{Requirement: s, Term: tok}
		}
		current = append(current, Term{
			Comparator: Comparator(tok[:i]),
			Version:    Parse(tok[i:]),
		})
	}
	closeSet()

	return Range{sets: sets}, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
func MustParseRequirement(s string) Range {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// SatisfiedBy reports whether any set has all of its terms satisfied by
// candidate. A range with no sets is satisfied by nothing.
func (r Range) SatisfiedBy(candidate Version) bool {
	for _, set := range r.sets {
		if setSatisfiedBy(set, candidate) {
			return true
		}
	}
	return false
}

func setSatisfiedBy(set []Term, candidate Version) bool {
	if len(set) == 0 {
		return false
	}
	for _, t := range set {
		if !t.SatisfiedBy(candidate) {
			return false
		}
	}
	return true
}

// Sets returns a copy of the requirement sets.
func (r Range) Sets() [][]Term {
	out := make([][]Term, len(r.sets))
	for i, set := range r.sets {
		out[i] = append([]Term(nil), set...)
	}
	return out
}

// Empty reports whether the range has no requirement sets.
func (r Range) Empty() bool { return len(r.sets) == 0 }

// String renders the range in canonical form.
func (r Range) String() string {
	groups := make([]string, len(r.sets))
	for i, set := range r.sets {
		terms := make([]string, len(set))
		for j, t := range set {
			terms[j] = t.String()
		}
		groups[i] = strings.Join(terms, " ")
	}
	return strings.Join(groups, " || ")
}

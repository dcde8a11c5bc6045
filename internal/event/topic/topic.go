package topic

import "strings"

// Topic names a notification, e.g. "suggestions.changed". Subscription
// patterns are topics that may contain wildcard segments.
type Topic string

// Wildcard segments.
const (
	WildcardSingle = "*"
	WildcardMulti  = "**"
)

const sep = "."

func (t Topic) String() string {
	return string(t)
}

// Segments splits the topic on dots. The empty topic has no segments.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), sep)
}

// Namespace returns the first segment: "suggestions" for
// "suggestions.changed".
func (t Topic) Namespace() string {
	ns, _, _ := strings.Cut(string(t), sep)
	return ns
}

// IsValid reports whether t is non-empty with no empty segments.
func (t Topic) IsValid() bool {
	return t != "" && !strings.HasPrefix(string(t), sep) &&
		!strings.HasSuffix(string(t), sep) && !strings.Contains(string(t), sep+sep)
}

// IsPattern reports whether t contains a wildcard segment.
func (t Topic) IsPattern() bool {
	for _, seg := range t.Segments() {
		if seg == WildcardSingle || seg == WildcardMulti {
			return true
		}
	}
	return false
}

// Matches reports whether t is matched by pattern.
func (t Topic) Matches(pattern Topic) bool {
	if !pattern.IsPattern() {
		return t == pattern
	}

	segs, pat := t.Segments(), pattern.Segments()

	// Glob matching with a single backtrack point: the most recent "**"
	// and the topic position it is currently absorbing up to.
	si, pi := 0, 0
	starPi, starSi := -1, 0
	for si < len(segs) {
		switch {
		case pi < len(pat) && pat[pi] == WildcardMulti:
			starPi, starSi = pi, si
			pi++
		case pi < len(pat) && (pat[pi] == WildcardSingle || pat[pi] == segs[si]):
			si++
			pi++
		case starPi >= 0:
			starSi++
			si, pi = starSi, starPi+1
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == WildcardMulti {
		pi++
	}
	return pi == len(pat)
}

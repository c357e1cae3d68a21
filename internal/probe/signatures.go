package probe

import "strings"

// Signatures is an immutable set of failure texts. Matching is a
// case-insensitive substring test with runs of whitespace treated as a
// single space on both sides.
type Signatures struct {
	raw  []string
	norm []string
}

// NewSignatures normalizes list once. Entries that normalize to nothing are
// dropped, an empty needle would match every page.
func NewSignatures(list []string) Signatures {
	s := Signatures{}
	for _, sig := range list {
		n := normalize(sig)
		if n == "" {
			continue
		}
		s.raw = append(s.raw, sig)
		s.norm = append(s.norm, n)
	}
	return s
}

// Len returns the number of usable signatures.
func (s Signatures) Len() int { return len(s.norm) }

// List returns a copy of the signatures as configured.
func (s Signatures) List() []string {
	return append([]string(nil), s.raw...)
}

// Match returns the first signature contained in text.
func (s Signatures) Match(text string) (string, bool) {
	haystack := normalize(text)
	for i, needle := range s.norm {
		if strings.Contains(haystack, needle) {
			return s.raw[i], true
		}
	}
	return "", false
}

// ClassifyText applies the absence-based rule: a page is NoAppointment only
// if a known failure text is present, anything else counts as
// AppointmentFound. Blank text cannot be classified at all.
func ClassifyText(sigs Signatures, text string) (Outcome, string) {
	if strings.TrimSpace(text) == "" {
		return IndeterminateError, ""
	}
	if sig, ok := sigs.Match(text); ok {
		return NoAppointment, sig
	}
	return AppointmentFound, ""
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

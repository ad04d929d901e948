package emailaddr

import (
	"hash/fnv"
	"strings"
)

// Compare orders addresses by domain, then by local part. Both parts are
// held lowercase, so a bytewise comparison is the case-insensitive one.
// The result is -1, 0 or +1.
func Compare(a, b Address) int {
	if c := strings.Compare(a.Domain(), b.Domain()); c != 0 {
		return c
	}
	return strings.Compare(a.Local(), b.Local())
}

// Compare is the method form of Compare.
func (a Address) Compare(b Address) int { return Compare(a, b) }

// Relational operators, all derived from Compare.

func (a Address) Equal(b Address) bool          { return Compare(a, b) == 0 }
func (a Address) NotEqual(b Address) bool       { return Compare(a, b) != 0 }
func (a Address) Less(b Address) bool           { return Compare(a, b) < 0 }
func (a Address) LessOrEqual(b Address) bool    { return Compare(a, b) <= 0 }
func (a Address) Greater(b Address) bool        { return Compare(a, b) > 0 }
func (a Address) GreaterOrEqual(b Address) bool { return Compare(a, b) >= 0 }

// SameDomain reports whether a and b share a domain, ignoring local parts.
func (a Address) SameDomain(b Address) bool { return a.Domain() == b.Domain() }

// NotSameDomain is the negation of SameDomain.
func (a Address) NotSameDomain(b Address) bool { return !a.SameDomain(b) }

// Hash returns the 32-bit FNV-1a hash of the canonical text.
func (a Address) Hash() uint32 {
	h := fnv.New32a()
	h.Write([]byte(a.text))
	return h.Sum32()
}

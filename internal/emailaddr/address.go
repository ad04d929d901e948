package emailaddr

import "strings"

// Address is a validated email address in canonical (lowercase) form.
// The zero value is not a valid address; see IsZero.
type Address struct {
	text string // canonical local@domain
	at   int    // index of the separator in text
}

// Parse validates text and returns its canonical Address. On failure the
// error is a *ValidationError carrying the input and the reason.
func Parse(text string) (Address, error) {
	if err := validate(text); err != nil {
		return Address{}, err
	}
	return newAddress(Canonicalize(text)), nil
}

// MustParse is like Parse but panics on invalid input. Intended for tests
// and package-level fixtures.
func MustParse(text string) Address {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// newAddress wraps canonical text that has already been validated.
func newAddress(canonical string) Address {
	return Address{text: canonical, at: strings.IndexByte(canonical, '@')}
}

// String renders the canonical local@domain form.
func (a Address) String() string { return a.text }

// Local returns the part before the '@'.
func (a Address) Local() string {
	if a.IsZero() {
		return ""
	}
	return a.text[:a.at]
}

// Domain returns the part after the '@'.
func (a Address) Domain() string {
	if a.IsZero() {
		return ""
	}
	return a.text[a.at+1:]
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool { return a.text == "" }

package emailaddr

import "regexp"

// MaxLength is the longest accepted address text, in bytes.
const MaxLength = 512

const labelPattern = `[A-Za-z]+(?:-[A-Za-z0-9]+)*[0-9]*`

// addressPattern matches local and domain in one pass. RE2 guarantees the
// match runs in time linear in the input.
var addressPattern = regexp.MustCompile(
	`^` + labelPattern + `(?:\.` + labelPattern + `)*` +
		`@` + labelPattern + `(?:\.` + labelPattern + `)+$`,
)

// Validate reports whether text is an acceptable address.
func Validate(text string) bool {
	return validate(text) == nil
}

// validate enforces the length limit before touching the grammar.
func validate(text string) error {
	if len(text) > MaxLength {
		return &ValidationError{Input: text, Reason: ReasonTooLong}
	}
	if !addressPattern.MatchString(text) {
		return &ValidationError{Input: text, Reason: ReasonSyntax}
	}
	return nil
}

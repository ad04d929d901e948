package emailaddr

// Canonicalize lowercases ASCII letters and leaves every other byte alone.
// The input must already have passed Validate.
func Canonicalize(text string) string {
	i := 0
	for i < len(text) && !isUpper(text[i]) {
		i++
	}
	if i == len(text) {
		return text
	}

	b := []byte(text)
	for ; i < len(b); i++ {
		if isUpper(b[i]) {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func isUpper(c byte) bool { return 'A' <= c && c <= 'Z' }

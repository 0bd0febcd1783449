package email

import "strings"

// KebabCase lower-cases the words of s and joins them with dashes. Words
// break on case changes, letter/digit runs and any other character, so
// "GoblinGrub 1.2.3" becomes "goblin-grub-1-2-3" and "XMLHttp" becomes
// "xml-http".
func KebabCase(s string) string {
	var words []string
	for i := 0; i < len(s); {
		n := wordAt(s, i)
		if n == 0 {
			i++
			continue
		}
		words = append(words, strings.ToLower(s[i:i+n]))
		i += n
	}
	return strings.Join(words, "-")
}

// wordAt returns the length of the word starting at i, or 0 when s[i]
// starts none. An acronym ends where the next capitalized word begins or at
// a word boundary.
func wordAt(s string, i int) int {
	switch {
	case isUpper(s[i]):
		run := span(s, i, isUpper)
		if run >= 2 {
			end := i + run
			if end == len(s) || !isWord(s[end]) {
				return run
			}
			if run > 2 && isLower(s[end]) {
				return run - 1
			}
		}
		if i+1 < len(s) && isLower(s[i+1]) {
			n := 1 + span(s, i+1, isLower)
			return n + span(s, i+n, isDigit)
		}
		return 1
	case isLower(s[i]):
		n := span(s, i, isLower)
		return n + span(s, i+n, isDigit)
	case isDigit(s[i]):
		return span(s, i, isDigit)
	}
	return 0
}

func span(s string, i int, class func(byte) bool) int {
	n := 0
	for i+n < len(s) && class(s[i+n]) {
		n++
	}
	return n
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isWord(c byte) bool  { return isUpper(c) || isLower(c) || isDigit(c) || c == '_' }

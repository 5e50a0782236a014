package match

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrMalformedIdentifier = errors.New("malformed identifier: want name#tag")

// Identifier is a player's canonical lowercase name#tag handle.
type Identifier string

// ParseIdentifier validates raw and returns its canonical form. The name must be
// 1-16 characters and the tag 1-5 letters or digits.
func ParseIdentifier(raw string) (Identifier, error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(raw), "#")
	if !ok || strings.Contains(tag, "#") {
		return "", ErrMalformedIdentifier
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > 16 {
		return "", ErrMalformedIdentifier
	}
	if n := utf8.RuneCountInString(tag); n < 1 || n > 5 {
		return "", ErrMalformedIdentifier
	}
	for _, r := range tag {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", ErrMalformedIdentifier
		}
	}
	return Identifier(strings.ToLower(name) + "#" + strings.ToLower(tag)), nil
}

func (id Identifier) String() string { return string(id) }

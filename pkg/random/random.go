// Package random generates short codes from an alphabet chosen to avoid
// visually ambiguous characters.
package random

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet excludes 0/O and 1/I/l so codes survive being read aloud or
// retyped from a screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// NewCode returns a cryptographically random code of the given length.
func NewCode(length int) (string, error) {
	return gonanoid.Generate(Alphabet, length)
}

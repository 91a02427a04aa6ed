package shortener

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// DefaultCodeLength is the number of characters in a generated code.
const DefaultCodeLength = 8

// Alphabet is the URL-safe character set used for generated codes.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// CodeGenerator produces a new random short code. It holds no state between calls
// and does not guarantee uniqueness on its own.
type CodeGenerator func() (Code, error)

// NewNanoIDGenerator returns a CodeGenerator backed by a crypto-random nanoid
// over Alphabet.
func NewNanoIDGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	generate, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create nanoid generator: %w", err)
	}

	return func() (code Code, err error) {
		// nanoid panics when the system entropy source cannot be read.
		defer func() {
			if r := recover(); r != nil {
				code = ""
				err = fmt.Errorf("%w: %v", ErrGeneratorUnavailable, r)
			}
		}()

		return Code(generate()), nil
	}, nil
}

package signature

import (
	"errors"
	"fmt"
)

// ErrMalformed is matched by every *ErrMalformedToken via errors.Is.
var ErrMalformed = errors.New("malformed token literal")

// ErrMalformedToken indicates a bit-string literal containing a character
// other than '0' or '1'. Offset is the byte offset of the first bad character.
type ErrMalformedToken struct {
	Literal string
	Offset  int
}

func (e *ErrMalformedToken) Error() string {
	if e.Offset < 0 || e.Offset >= len(e.Literal) {
		return fmt.Sprintf("malformed token literal %q", e.Literal)
	}
	return fmt.Sprintf("malformed token literal %q: invalid character %q at offset %d",
		e.Literal, e.Literal[e.Offset], e.Offset)
}

// Is reports whether target is ErrMalformed.
func (e *ErrMalformedToken) Is(target error) bool { return target == ErrMalformed }

package entity

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-grid/internal/apperror"
)

// Mark is the content of a single cell.
type Mark byte

const (
	Empty Mark = 0
	MarkX Mark = 'X'
	MarkO Mark = 'O'
)

// ValidateMark maps a player's character to a Mark, ignoring case.
func ValidateMark(char rune) (Mark, error) {
	switch unicode.ToLower(char) {
	case 'x':
		return MarkX, nil
	case 'o':
		return MarkO, nil
	default:
		return Empty, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, char)
	}
}

// String renders an empty cell as a blank.
func (that Mark) String() string {
	if that == Empty {
		return " "
	}

	return string(rune(that))
}

func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return Empty
	}
}

func (that Mark) MarshalText() ([]byte, error) {
	if that == Empty {
		return []byte{}, nil
	}

	return []byte{byte(that)}, nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*that = Empty
		return nil
	}

	char, size := utf8.DecodeRune(text)
	if size != len(text) {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, text)
	}

	mark, err := ValidateMark(char)
	if err != nil {
		return err
	}

	*that = mark

	return nil
}

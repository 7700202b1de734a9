package scan

import (
	"errors"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
)

// ErrUnexpectedEOF is returned (possibly wrapped) when input ends while the
// grammar still requires more tokens.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// SyntaxError reports a token that does not fit the grammar at its position.
type SyntaxError struct {
	Token    Token
	Expected []string
	Line     int
	Column   int
	Context  string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unexpected token %q at %d:%d", e.Token.Text, e.Line, e.Column)
	if len(e.Expected) > 0 {
		b.WriteString(", expected ")
		b.WriteString(quoteLabels(e.Expected))
	}
	return b.String()
}

func newSyntaxError(src string, tok Token, expected []string) *SyntaxError {
	line, col, context := parse.Position(strings.NewReader(src), tok.Offset)
	return &SyntaxError{
		Token:    tok,
		Expected: expected,
		Line:     line,
		Column:   col,
		Context:  context,
	}
}

func newEOFError(expected []string) error {
	if len(expected) == 0 {
		return ErrUnexpectedEOF
	}
	return fmt.Errorf("%w, expected %s", ErrUnexpectedEOF, quoteLabels(expected))
}

func quoteLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "'" + l + "'"
	}
	return strings.Join(quoted, ", ")
}

package markov

import (
	"strings"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Order bounds. Increase MaxOrder at your own risk: Tuple stores its tokens
// in a fixed array so that it stays comparable.
const (
	MinOrder = 1
	MaxOrder = 5
)

// Tuple is an immutable, ordered window of tokens.
// Tuples compare by value and can be used directly as map keys. The zero
// Tuple is empty: First and Last return "" and shifting it yields itself.
type Tuple struct {
	tokens [MaxOrder]string
	n      int
}

// Descriptor holds the per-tuple boundary flags.
type Descriptor struct {
	// Starter is true if the tuple ever opened an ingested segment.
	Starter bool
	// Finisher is true if the tuple ever closed an ingested segment.
	Finisher bool
}

// NewTuple builds a tuple from tokens. It fails when the number of tokens
// is outside [MinOrder, MaxOrder].
func NewTuple(tokens ...string) (Tuple, error) {
	if len(tokens) < MinOrder || len(tokens) > MaxOrder {
		return Tuple{}, shaperrors.New(shaperrors.ErrCodeInvalidOrder,
			"tuple length must be in the interval [1,5]", nil)
	}
	var t Tuple
	t.n = copy(t.tokens[:], tokens)
	return t, nil
}

// mustTuple is used internally where the length is known to be valid.
func mustTuple(tokens []string) Tuple {
	var t Tuple
	t.n = copy(t.tokens[:], tokens)
	return t
}

// Len returns the number of tokens, which equals the index order.
func (t Tuple) Len() int {
	return t.n
}

// Token returns the i-th token.
func (t Tuple) Token(i int) (string, error) {
	if i < 0 || i >= t.n {
		return "", ErrOutOfRange
	}
	return t.tokens[i], nil
}

// First returns the first token.
func (t Tuple) First() string {
	return t.tokens[0]
}

// Last returns the last token.
func (t Tuple) Last() string {
	if t.n == 0 {
		return ""
	}
	return t.tokens[t.n-1]
}

// Tokens returns a copy of the tokens.
func (t Tuple) Tokens() []string {
	out := make([]string, t.n)
	copy(out, t.tokens[:t.n])
	return out
}

// ShiftRight drops the first token and appends next.
//
//	[a b c].ShiftRight("d") == [b c d]
func (t Tuple) ShiftRight(next string) Tuple {
	if t.n == 0 {
		return t
	}
	var s Tuple
	s.n = t.n
	copy(s.tokens[:], t.tokens[1:t.n])
	s.tokens[t.n-1] = next
	return s
}

// ShiftLeft drops the last token and prepends prev.
//
//	[a b c].ShiftLeft("z") == [z a b]
func (t Tuple) ShiftLeft(prev string) Tuple {
	if t.n == 0 {
		return t
	}
	var s Tuple
	s.n = t.n
	copy(s.tokens[1:t.n], t.tokens[:t.n-1])
	s.tokens[0] = prev
	return s
}

// Contains reports whether token occurs anywhere in the tuple.
func (t Tuple) Contains(token string) bool {
	for i := 0; i < t.n; i++ {
		if t.tokens[i] == token {
			return true
		}
	}
	return false
}

// String renders the tuple as "[a b c]".
func (t Tuple) String() string {
	return "[" + strings.Join(t.tokens[:t.n], " ") + "]"
}

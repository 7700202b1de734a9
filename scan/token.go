// Package scan provides the raw text cursor and the one-token lookahead
// tokenizer shared by the markup and stylesheet parsers.
//
// Token kinds are bit flags so a single check can test membership in a set
// of kinds. Each language allocates its punctuation kinds from the low bits
// and uses KindText as the catch-all for everything else.
package scan

import (
	"math/bits"
)

// Kind is a token type bit flag.
type Kind uint32

// KindText is the catch-all free text kind. It is kept above every
// punctuation bit so composite masks never collide with it.
const KindText Kind = 1 << 30

// Is reports whether k is one of the kinds set in mask.
func (k Kind) Is(mask Kind) bool {
	return k&mask != 0
}

// Token is a single lexical unit. Offset is the byte offset of the first
// character of the token in the source.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// Labels maps single kinds to human readable labels for diagnostics.
type Labels map[Kind]string

// Describe returns labels for every kind set in mask ordered by bit value.
func (l Labels) Describe(mask Kind) []string {
	labels := make([]string, 0, bits.OnesCount32(uint32(mask)))
	for m := uint32(mask); m != 0; m &= m - 1 {
		if label, ok := l[Kind(1)<<bits.TrailingZeros32(m)]; ok {
			labels = append(labels, label)
		}
	}
	return labels
}

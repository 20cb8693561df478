package genome

import (
	"fmt"
	"strconv"
	"strings"
)

const hexPrefix = "0x"

// Encode renders every gene as "0x" followed by lowercase hex digits with
// no separator, e.g. [1,255,16] becomes "0x10xff0x10".
func (g *Genome[G]) Encode() string {
	if g == nil {
		return ""
	}
	var b strings.Builder
	for _, gene := range g.genes {
		b.WriteString(hexPrefix)
		b.WriteString(strconv.FormatUint(uint64(gene), 16))
	}
	return b.String()
}

// Decode parses the output of Encode. Values wider than G are truncated.
func Decode[G Gene](text string) (*Genome[G], error) {
	genes := make([]G, 0, strings.Count(text, hexPrefix))
	for rest := text; rest != ""; {
		token := rest
		if next := strings.Index(safeTail(rest, len(hexPrefix)), hexPrefix); next >= 0 {
			token = rest[:next+len(hexPrefix)]
		}
		rest = rest[len(token):]

		digits, ok := strings.CutPrefix(token, hexPrefix)
		if !ok {
			return nil, fmt.Errorf("%w: gene %d %q lacks the %s prefix", ErrDecode, len(genes), token, hexPrefix)
		}
		value, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: gene %d %q: %w", ErrDecode, len(genes), token, err)
		}
		genes = append(genes, G(value))
	}
	return &Genome[G]{genes: genes, last: Mutation[G]{Index: -1}}, nil
}

func (g *Genome[G]) MarshalText() ([]byte, error) {
	return []byte(g.Encode()), nil
}

func (g *Genome[G]) UnmarshalText(text []byte) error {
	decoded, err := Decode[G](string(text))
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}

func safeTail(s string, from int) string {
	if len(s) <= from {
		return ""
	}
	return s[from:]
}

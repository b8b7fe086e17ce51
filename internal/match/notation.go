package match

import (
	"fmt"
	"strings"

	"github.com/karowl/chessd/internal/rules"
)

// ParseMove reads a coordinate move: two squares either run together
// ("e2e4") or separated by spaces, a comma or a dash ("e2 e4", "e2-e4").
func ParseMove(s string) (from, to rules.Square, err error) {
	t := strings.ToLower(strings.TrimSpace(s))
	parts := strings.FieldsFunc(t, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ',' || r == '-'
	})

	var a, b string
	switch len(parts) {
	case 1:
		if len(parts[0]) != 4 {
			return from, to, fmt.Errorf("move %q: want two squares like \"e2 e4\"", s)
		}
		a, b = parts[0][:2], parts[0][2:]
	case 2:
		a, b = parts[0], parts[1]
	default:
		return from, to, fmt.Errorf("move %q: want two squares like \"e2 e4\"", s)
	}

	from, err = rules.ParseSquare(a)
	if err != nil {
		return from, to, fmt.Errorf("move %q: %w", s, err)
	}
	to, err = rules.ParseSquare(b)
	if err != nil {
		return from, to, fmt.Errorf("move %q: %w", s, err)
	}
	return from, to, nil
}

// FormatMove is the storage form of a move, the two squares run together.
func FormatMove(from, to rules.Square) string {
	return from.String() + to.String()
}

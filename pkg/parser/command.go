package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"leogia-swap/pkg/types"
)

var (
	ErrInvalidCommand = errors.New("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 LEO to GIA')")
	ErrSameToken      = errors.New("source and destination token must differ")
)

// Matches: "1 LEO TO GIA", "1.5 GIA TO LEO", ".25 LEO", "100 LEO GIA"
var commandPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)\s+([A-Z0-9]+)(?:\s+(?:TO\s+)?([A-Z0-9]+))?$`)

// Request is a parsed swap command
type Request struct {
	Amount    string
	Direction types.Direction
}

// ParseSwapCommand parses a natural language swap command against the
// traded pair. The destination may be left out since it is implied.
// Examples:
//   - "swap 1 LEO to GIA"
//   - "1.5 GIA to LEO"
//   - "swap 2 leo"
func ParseSwapCommand(command string, pair types.Pair) (*Request, error) {
	command = strings.Join(strings.Fields(strings.ToUpper(command)), " ")
	command = strings.TrimPrefix(command, "SWAP ")

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, ErrInvalidCommand
	}

	src, err := side(matches[2], pair)
	if err != nil {
		return nil, err
	}
	if matches[3] != "" {
		dst, err := side(matches[3], pair)
		if err != nil {
			return nil, err
		}
		if dst == src {
			return nil, ErrSameToken
		}
	}

	dir := types.AToB
	if src == 'B' {
		dir = types.BToA
	}
	return &Request{Amount: matches[1], Direction: dir}, nil
}

// side resolves a symbol to the pair side it names
func side(symbol string, pair types.Pair) (byte, error) {
	switch NormalizeTokenSymbol(symbol) {
	case NormalizeTokenSymbol(pair.A.Symbol):
		return 'A', nil
	case NormalizeTokenSymbol(pair.B.Symbol):
		return 'B', nil
	}
	return 0, fmt.Errorf("unknown token %q: this pool trades %s and %s", symbol, pair.A.Symbol, pair.B.Symbol)
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

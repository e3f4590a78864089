package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"leogia-swap/pkg/types"
)

var pair = types.Pair{
	A: types.Token{Symbol: "LEO", Decimals: 18},
	B: types.Token{Symbol: "GIA", Decimals: 18},
}

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		in     string
		amount string
		dir    types.Direction
	}{
		{"swap 1 LEO to GIA", "1", types.AToB},
		{"1.5 gia to leo", "1.5", types.BToA},
		{"  swap   2   leo  ", "2", types.AToB},
		{"swap .25 GIA LEO", ".25", types.BToA},
		{"100. LEO to GIA", "100.", types.AToB},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.in, pair)
			require.NoError(t, err)
			require.Equal(t, tt.amount, req.Amount)
			require.Equal(t, tt.dir, req.Direction)
		})
	}
}

func TestParseSwapCommand_Errors(t *testing.T) {
	_, err := ParseSwapCommand("swap LEO to GIA", pair)
	require.ErrorIs(t, err, ErrInvalidCommand)

	_, err = ParseSwapCommand("swap -1 LEO to GIA", pair)
	require.ErrorIs(t, err, ErrInvalidCommand)

	_, err = ParseSwapCommand("swap 1 LEO to LEO", pair)
	require.ErrorIs(t, err, ErrSameToken)

	_, err = ParseSwapCommand("swap 1 ETH to GIA", pair)
	require.ErrorContains(t, err, `unknown token "ETH"`)
}

package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMatchMultiplier(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        Multiplier
		wantRounded bool
		wantErr     error
	}{
		{name: "one", input: "1", want: 1024},
		{name: "half", input: "0.5", want: 512},
		{name: "smallest step", input: "0.0009765625", want: 1},
		{name: "largest valid", input: "63.9990234375", want: 65535},
		{name: "surrounding whitespace", input: "  2 ", want: 2048},
		{name: "truncates", input: "0.3", want: 307, wantRounded: true},
		{name: "truncates below one step", input: "0.0001", wantRounded: true, wantErr: ErrOutOfRange},
		{name: "zero", input: "0", wantErr: ErrOutOfRange},
		{name: "exactly 64", input: "64", wantErr: ErrOutOfRange},
		{name: "above 64", input: "100", wantErr: ErrOutOfRange},
		{name: "negative", input: "-1", wantErr: ErrOutOfRange},
		{name: "not a number", input: "abc", wantErr: ErrParse},
		{name: "huge exponent", input: "1e100000000", wantErr: ErrParse},
		{name: "exponent", input: "5E-1", wantErr: ErrParse},
		{name: "empty", input: "", wantErr: ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rounded, err := ValidateMatchMultiplier(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantRounded, rounded)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRounded, rounded)
		})
	}
}

func TestMultiplierRoundTrip(t *testing.T) {
	for m := Multiplier(1); m < Limit; m++ {
		got, rounded, err := ValidateMatchMultiplier(m.String())
		if err != nil || rounded || got != m {
			t.Fatalf("round trip of %d via %q = (%d, %v, %v)", m, m.String(), got, rounded, err)
		}
	}
}

func TestMultiplierBoundsRejected(t *testing.T) {
	assert.False(t, Multiplier(0).Valid())
	assert.False(t, Multiplier(Limit).Valid())
	assert.True(t, Multiplier(1).Valid())
	assert.True(t, Multiplier(Limit-1).Valid())

	_, _, err := ValidateMatchMultiplier(Multiplier(0).String())
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, _, err = ValidateMatchMultiplier(Multiplier(Limit).String())
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMultiplierString(t *testing.T) {
	assert.Equal(t, "1", Multiplier(1024).String())
	assert.Equal(t, "0.5", Multiplier(512).String())
	assert.Equal(t, "0.0009765625", Multiplier(1).String())
}

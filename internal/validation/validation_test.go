package validation

import (
	"errors"
	"math/big"
	"testing"

	"github.com/pendergraft/matchfund/internal/matching"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		allowZero bool
		want      string
		wantErr   error
	}{
		{"one ether", "1", false, "1000000000000000000", nil},
		{"fraction", "0.5", false, "500000000000000000", nil},
		{"one wei", "0.000000000000000001", false, "1", nil},
		{"large", "12345.678", false, "12345678000000000000000", nil},
		{"whitespace", " 2 ", false, "2000000000000000000", nil},
		{"zero allowed", "0", true, "0", nil},
		{"zero rejected", "0", false, "", matching.ErrOutOfRange},
		{"negative", "-1", true, "", matching.ErrOutOfRange},
		{"too precise", "0.0000000000000000001", false, "", matching.ErrParse},
		{"garbage", "ten", false, "", matching.ErrParse},
		{"exponent", "1e100000000", false, "", matching.ErrParse},
		{"small exponent", "1E-3", false, "", matching.ErrParse},
		{"empty", "", true, "", matching.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEther(tt.input, tt.allowZero)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseEther(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEther(%q) unexpected error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseEther(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei   string
		want  string
		fixed string
	}{
		{"0", "0", "0.000000000000000000"},
		{"1", "0.000000000000000001", "0.000000000000000001"},
		{"1500000000000000000", "1.5", "1.500000000000000000"},
		{"10000000000000000000", "10", "10.000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.wei, func(t *testing.T) {
			n, _ := new(big.Int).SetString(tt.wei, 10)
			if got := FormatEther(n); got != tt.want {
				t.Errorf("FormatEther(%s) = %q, want %q", tt.wei, got, tt.want)
			}
			if got := FormatEtherFixed(n); got != tt.fixed {
				t.Errorf("FormatEtherFixed(%s) = %q, want %q", tt.wei, got, tt.fixed)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid checksum", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", nil},
		{"valid checksum 2", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", nil},
		{"all lowercase", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", matching.ErrAddressChecksum},
		{"wrong case", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", matching.ErrAddressChecksum},
		{"missing 0x", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", matching.ErrAddressChecksum},
		{"too short", "0x1234", matching.ErrParse},
		{"invalid characters", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeg", matching.ErrParse},
		{"empty", "", matching.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ValidateAddress(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ValidateAddress(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateAddress(%q) unexpected error = %v", tt.input, err)
			}
			if addr.Hex() != tt.input {
				t.Errorf("ValidateAddress(%q) = %s", tt.input, addr.Hex())
			}
		})
	}
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		input   string
		n       int
		want    int
		wantErr error
	}{
		{"0", 3, 0, nil},
		{" 2 ", 3, 2, nil},
		{"3", 3, 0, matching.ErrOutOfRange},
		{"-1", 3, 0, matching.ErrOutOfRange},
		{"0", 0, 0, matching.ErrOutOfRange},
		{"q", 3, 0, matching.ErrParse},
		{"1.5", 3, 0, matching.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseIndex(tt.input, tt.n)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseIndex(%q, %d) error = %v, want %v", tt.input, tt.n, err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseIndex(%q, %d) = %d, %v", tt.input, tt.n, got, err)
			}
		})
	}
}

func TestParseYesNo(t *testing.T) {
	if v, err := ParseYesNo("y"); err != nil || !v {
		t.Errorf("ParseYesNo(y) = %v, %v", v, err)
	}
	if v, err := ParseYesNo(" n "); err != nil || v {
		t.Errorf("ParseYesNo(n) = %v, %v", v, err)
	}
	for _, in := range []string{"yes", "Y", "", "no"} {
		if _, err := ParseYesNo(in); !errors.Is(err, matching.ErrParse) {
			t.Errorf("ParseYesNo(%q) error = %v, want ErrParse", in, err)
		}
	}
}

func TestValidateChainID(t *testing.T) {
	if err := ValidateChainID(big.NewInt(1337)); err != nil {
		t.Errorf("ValidateChainID(1337) = %v", err)
	}
	// wider than int64; Int64() would wrap this to 0
	wide := new(big.Int).Lsh(big.NewInt(1), 64)
	if err := ValidateChainID(wide); err != nil {
		t.Errorf("ValidateChainID(2^64) = %v", err)
	}
	for _, id := range []*big.Int{nil, big.NewInt(0), big.NewInt(-1)} {
		if err := ValidateChainID(id); err == nil {
			t.Errorf("ValidateChainID(%v) should fail", id)
		}
	}
}

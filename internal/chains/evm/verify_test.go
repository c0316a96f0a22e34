package evm

import (
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("decoding %q: %v", s, err)
	}
	return b
}

func TestStripMetadata(t *testing.T) {
	tests := []struct {
		name     string
		bytecode string
		want     string
	}{
		{
			name:     "no metadata",
			bytecode: "608060405234801561001057600080fd5b50",
			want:     "608060405234801561001057600080fd5b50",
		},
		{
			name:     "solidity ipfs metadata",
			bytecode: "6080604052" + "a264697066735822" + "1220" + "000a",
			want:     "6080604052",
		},
		{
			name:     "length past start",
			bytecode: "6080ffff",
			want:     "6080ffff",
		},
		{
			name:     "not a cbor map",
			bytecode: "60806040" + "0102" + "0002",
			want:     "6080604001020002",
		},
		{
			name:     "single byte",
			bytecode: "60",
			want:     "60",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(StripMetadata(mustHex(t, tt.bytecode)))
			if got != tt.want {
				t.Errorf("StripMetadata(%s) = %s, want %s", tt.bytecode, got, tt.want)
			}
		})
	}
}

func TestHasLibraryPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		bytecode string
		want     bool
	}{
		{
			name:     "no placeholders",
			bytecode: "608060405234801561001057600080fd5b50",
			want:     false,
		},
		{
			name:     "with placeholder",
			bytecode: "608060405234801561001057__$1234567890abcdef1234567890abcdef12$__600080fd5b50",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasLibraryPlaceholders(tt.bytecode); got != tt.want {
				t.Errorf("HasLibraryPlaceholders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareBytecode(t *testing.T) {
	withMeta := func(meta string) []byte {
		return mustHex(t, "60806040"+"a16474657374"+meta+"0007")
	}

	tests := []struct {
		name      string
		deployed  []byte
		artifact  []byte
		wantMatch bool
		wantType  string
	}{
		{
			name:      "exact match",
			deployed:  []byte{0x60, 0x80, 0x60, 0x40},
			artifact:  []byte{0x60, 0x80, 0x60, 0x40},
			wantMatch: true,
			wantType:  MatchFull,
		},
		{
			name:      "metadata differs",
			deployed:  withMeta("01"),
			artifact:  withMeta("02"),
			wantMatch: true,
			wantType:  MatchPartial,
		},
		{
			name:      "no match",
			deployed:  []byte{0x60, 0x80, 0x60, 0x40},
			artifact:  []byte{0x60, 0x80, 0x60, 0x50},
			wantMatch: false,
			wantType:  MatchNone,
		},
		{
			name:      "hex-encoded artifact matches",
			deployed:  []byte{0x60, 0x80, 0x60, 0x40},
			artifact:  []byte("0x60806040"),
			wantMatch: true,
			wantType:  MatchFull,
		},
		{
			name:      "empty deployed code",
			deployed:  nil,
			artifact:  []byte("0x60806040"),
			wantMatch: false,
			wantType:  MatchNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CompareBytecode(tt.deployed, tt.artifact)
			if result.Match != tt.wantMatch {
				t.Errorf("CompareBytecode().Match = %v, want %v", result.Match, tt.wantMatch)
			}
			if result.MatchType != tt.wantType {
				t.Errorf("CompareBytecode().MatchType = %v, want %v", result.MatchType, tt.wantType)
			}
		})
	}
}

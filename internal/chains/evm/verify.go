package evm

import (
	"bytes"
	"encoding/binary"
	"regexp"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Match types reported by CompareBytecode.
const (
	MatchFull    = "full"
	MatchPartial = "partial"
	MatchNone    = "none"
)

// VerifyResult is the outcome of comparing deployed code to an artifact.
type VerifyResult struct {
	Match     bool   `json:"match"`
	MatchType string `json:"matchType"`
	Message   string `json:"message"`
}

// Library placeholder pattern: __$<34 hex chars>$__
var libraryPlaceholder = regexp.MustCompile(`__\$[a-f0-9]{34}\$__`)

// StripMetadata removes the CBOR metadata the compiler appends to runtime
// code. The last two bytes hold the big-endian length of the CBOR map.
func StripMetadata(code []byte) []byte {
	if len(code) < 2 {
		return code
	}
	n := int(binary.BigEndian.Uint16(code[len(code)-2:]))
	start := len(code) - 2 - n
	if n == 0 || start < 0 {
		return code
	}
	// CBOR map with up to 23 entries
	if code[start]&0xe0 != 0xa0 {
		return code
	}
	return code[:start]
}

// DecodeBytecode accepts raw bytes or a 0x-prefixed hex string.
func DecodeBytecode(b []byte) []byte {
	if len(b) > 2 && b[0] == '0' && (b[1] == 'x' || b[1] == 'X') {
		if decoded, err := hexutil.Decode(string(b)); err == nil {
			return decoded
		}
	}
	return b
}

// CompareBytecode compares deployed runtime code to the artifact's runtime
// bytecode.
func CompareBytecode(deployed, artifact []byte) *VerifyResult {
	artifact = DecodeBytecode(artifact)

	if len(deployed) == 0 {
		return &VerifyResult{MatchType: MatchNone, Message: "No code at address"}
	}

	if bytes.Equal(deployed, artifact) {
		return &VerifyResult{
			Match:     true,
			MatchType: MatchFull,
			Message:   "Bytecode matches exactly including metadata",
		}
	}

	if bytes.Equal(StripMetadata(deployed), StripMetadata(artifact)) {
		return &VerifyResult{
			Match:     true,
			MatchType: MatchPartial,
			Message:   "Executable code matches, metadata differs",
		}
	}

	return &VerifyResult{
		MatchType: MatchNone,
		Message:   "Bytecode does not match",
	}
}

// HasLibraryPlaceholders reports whether hex bytecode still needs linking.
func HasLibraryPlaceholders(bytecode string) bool {
	return libraryPlaceholder.MatchString(bytecode)
}

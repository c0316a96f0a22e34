// Package validation provides operator input validation for matchfund.
package validation

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/pendergraft/matchfund/internal/matching"
)

// EtherDecimals is the number of decimal places between ether and wei.
const EtherDecimals = 18

// ParseEther converts a decimal ether amount to wei. The amount must be
// positive, or zero when allowZero is set.
func ParseEther(input string, allowZero bool) (*big.Int, error) {
	s := strings.TrimSpace(input)
	amount, err := matching.ParseDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an ether amount", matching.ErrParse, input)
	}

	scaled := amount.Shift(EtherDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", matching.ErrParse, input, EtherDecimals)
	}

	wei := scaled.BigInt()
	switch {
	case wei.Sign() < 0:
		return nil, fmt.Errorf("%w: the amount %s cannot be negative", matching.ErrOutOfRange, amount.String())
	case wei.Sign() == 0 && !allowZero:
		return nil, fmt.Errorf("%w: the amount %s needs to be greater than 0", matching.ErrOutOfRange, amount.String())
	}
	return wei, nil
}

// FormatEther renders a wei amount in ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).String()
}

// FormatEtherFixed renders a wei amount in ether with all 18 decimals.
func FormatEtherFixed(wei *big.Int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).StringFixed(EtherDecimals)
}

// ValidateAddress validates an Ethereum address and requires the EIP-55
// mixed-case checksum.
func ValidateAddress(addr string) (common.Address, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("%w: %q is not a valid address", matching.ErrParse, addr)
	}
	parsed := common.HexToAddress(addr)
	if parsed.Hex() != addr {
		return common.Address{}, fmt.Errorf("%w: %q", matching.ErrAddressChecksum, addr)
	}
	return parsed, nil
}

// ParseIndex parses a matcher index in [0, n).
func ParseIndex(input string, n int) (int, error) {
	s := strings.TrimSpace(input)
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an index", matching.ErrParse, input)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: index %d does not exist (%d matchers)", matching.ErrOutOfRange, i, n)
	}
	return i, nil
}

// ParseYesNo accepts exactly "y" or "n".
func ParseYesNo(input string) (bool, error) {
	switch strings.TrimSpace(input) {
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not recognized", matching.ErrParse, strings.TrimSpace(input))
	}
}

// ValidateChainID validates a chain ID
func ValidateChainID(chainID *big.Int) error {
	if chainID == nil || chainID.Sign() <= 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}

package contract

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/matchfund/internal/matching"
)

// pack encodes a call, converting *big.Int arguments to the Go type the ABI
// declares for each integer input. name is empty for the constructor.
func pack(a abi.ABI, name string, inputs abi.Arguments, args []any) ([]byte, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("%s: got %d arguments, ABI declares %d", displayName(name), len(args), len(inputs))
	}

	coerced := make([]any, len(args))
	for i, arg := range args {
		v, err := coerce(inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d (%s): %w", displayName(name), i, inputs[i].Name, err)
		}
		coerced[i] = v
	}

	data, err := a.Pack(name, coerced...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", displayName(name), err)
	}
	return data, nil
}

func displayName(name string) string {
	if name == "" {
		return "constructor"
	}
	return name
}

func coerce(t abi.Type, v any) (any, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return v, nil
	}

	switch t.T {
	case abi.UintTy:
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s does not fit in %s", n, t.String())
		}
		switch t.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	case abi.IntTy:
		if n.BitLen() >= t.Size {
			return nil, fmt.Errorf("%s does not fit in %s", n, t.String())
		}
		switch t.Size {
		case 8:
			return int8(n.Int64()), nil
		case 16:
			return int16(n.Int64()), nil
		case 32:
			return int32(n.Int64()), nil
		case 64:
			return n.Int64(), nil
		}
		return n, nil
	}
	return v, nil
}

// decodeRecords converts the unpacked get_matchers result. Tuple fields are
// read by position: funds, matcher, donate address, multiplier, deadline,
// withdrawable flag.
func decodeRecords(v any) ([]matching.MatchRecord, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%s returned %T, want a list of records", MethodGetMatchers, v)
	}

	records := make([]matching.MatchRecord, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		r, err := decodeRecord(i, rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(index int, v reflect.Value) (matching.MatchRecord, error) {
	if v.Kind() != reflect.Struct || v.NumField() < 6 {
		return matching.MatchRecord{}, fmt.Errorf("unexpected record type %s", v.Type())
	}

	funds, err := toBig(v.Field(0))
	if err != nil {
		return matching.MatchRecord{}, fmt.Errorf("funds: %w", err)
	}
	matcher, err := toAddress(v.Field(1))
	if err != nil {
		return matching.MatchRecord{}, fmt.Errorf("matcher: %w", err)
	}
	donate, err := toAddress(v.Field(2))
	if err != nil {
		return matching.MatchRecord{}, fmt.Errorf("donate address: %w", err)
	}
	mul, err := toBig(v.Field(3))
	if err != nil {
		return matching.MatchRecord{}, fmt.Errorf("multiplier: %w", err)
	}
	if !mul.IsUint64() || mul.Uint64() > math.MaxUint32 {
		return matching.MatchRecord{}, fmt.Errorf("multiplier %s out of range", mul)
	}
	deadline, err := toBig(v.Field(4))
	if err != nil {
		return matching.MatchRecord{}, fmt.Errorf("deadline: %w", err)
	}
	if !deadline.IsInt64() {
		return matching.MatchRecord{}, fmt.Errorf("deadline %s out of range", deadline)
	}
	if v.Field(5).Kind() != reflect.Bool {
		return matching.MatchRecord{}, fmt.Errorf("withdrawable flag has type %s", v.Field(5).Type())
	}

	return matching.MatchRecord{
		Index:                      index,
		Funds:                      funds,
		Matcher:                    matcher,
		DonateAddress:              donate,
		Multiplier:                 matching.Multiplier(mul.Uint64()),
		Deadline:                   time.Unix(deadline.Int64(), 0).UTC(),
		WithdrawableBeforeDeadline: v.Field(5).Bool(),
	}, nil
}

func toBig(v reflect.Value) (*big.Int, error) {
	switch v.Kind() {
	case reflect.Ptr:
		if b, ok := v.Interface().(*big.Int); ok && b != nil {
			return new(big.Int).Set(b), nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(v.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(v.Int()), nil
	}
	return nil, fmt.Errorf("unexpected integer type %s", v.Type())
}

func toAddress(v reflect.Value) (common.Address, error) {
	addr, ok := v.Interface().(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address type %s", v.Type())
	}
	return addr, nil
}

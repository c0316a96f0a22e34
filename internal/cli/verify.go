package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/chains/evm"
	"github.com/pendergraft/matchfund/internal/chains/evm/foundry"
	"github.com/pendergraft/matchfund/internal/validation"
)

// codeReader fetches the runtime code at an address.
type codeReader interface {
	Code(ctx context.Context, address common.Address) ([]byte, error)
}

func createVerifyCmd() *cobra.Command {
	var artifactPath string
	var address string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify deployed contract matches an artifact",
		Long: `Verify that a deployed contract's bytecode matches a Foundry artifact.

Compares the on-chain runtime bytecode with the artifact's deployed
bytecode, stripping CBOR metadata for a partial match.

EXAMPLES:
  # Verify the configured contract
  matchfund verify --artifact out/MatchingFunds.sol/MatchingFunds.json

  # Verify a specific address
  matchfund verify --artifact out/MatchingFunds.sol/MatchingFunds.json --address 0x1234...
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, artifactPath, address)
		},
	}

	cmd.Flags().StringVar(&artifactPath, "artifact", "", "Foundry artifact JSON (required)")
	cmd.Flags().StringVar(&address, "address", "", "contract address (default: the configured contract)")
	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

func runVerify(cmd *cobra.Command, artifactPath, address string) error {
	ctx := cmd.Context()

	a, err := foundry.LoadArtifact(artifactPath)
	if err != nil {
		return err
	}
	if a.DeployedBytecode == "" || a.DeployedBytecode == "0x" {
		return fmt.Errorf("%s: artifact has no deployed bytecode to compare", a.Name)
	}

	var addr common.Address
	if address != "" {
		addr, err = validation.ValidateAddress(address)
	} else {
		var t *target
		t, err = resolveTarget()
		if t != nil {
			addr = t.Address
		}
	}
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🔍 Verifying %s\n", a.Name)
	fmt.Fprintf(out, "   Chain:   %s\n", s.chainID)
	fmt.Fprintf(out, "   Address: %s\n", addr.Hex())

	result, err := verifyCode(ctx, s.client, addr, a.DeployedBytecode)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printVerifyResult(out, result)
	return nil
}

// verifyCode compares the code at address with the artifact's runtime
// bytecode. It returns nil when there is nothing to compare against and
// code exists.
func verifyCode(ctx context.Context, client codeReader, address common.Address, deployedBytecode string) (*evm.VerifyResult, error) {
	code, err := client.Code(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetching code at %s: %w", address.Hex(), err)
	}
	if deployedBytecode == "" || deployedBytecode == "0x" {
		if len(code) == 0 {
			return &evm.VerifyResult{MatchType: evm.MatchNone, Message: "No code at address"}, nil
		}
		return nil, nil
	}
	return evm.CompareBytecode(code, []byte(deployedBytecode)), nil
}

func printVerifyResult(out io.Writer, result *evm.VerifyResult) {
	switch result.MatchType {
	case evm.MatchFull:
		fmt.Fprintln(out, "✅ VERIFIED - Full match")
		fmt.Fprintln(out, "   Deployed bytecode exactly matches the artifact (including metadata)")
	case evm.MatchPartial:
		fmt.Fprintln(out, "✅ VERIFIED - Partial match")
		fmt.Fprintln(out, "   Executable code matches, but metadata differs")
		fmt.Fprintln(out, "   (This can happen with different source paths or comments)")
	default:
		fmt.Fprintln(out, "❌ NOT VERIFIED - No match")
		if result.Message != "" {
			fmt.Fprintf(out, "   Reason: %s\n", result.Message)
		}
	}
}

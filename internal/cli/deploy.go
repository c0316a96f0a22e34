package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/chains/evm"
	"github.com/pendergraft/matchfund/internal/chains/evm/foundry"
	"github.com/pendergraft/matchfund/internal/contract"
	"github.com/pendergraft/matchfund/internal/observability/metrics"
	"github.com/pendergraft/matchfund/internal/storage"
)

func createDeployCmd() *cobra.Command {
	var (
		artifactPath string
		output       string
		name         string
		noVerify     bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the matching-funds contract",
		Long: `Deploy the contract from the node's account and print the deploy input:
the ABI JSON on one line and the contract address on the next.

The contract comes from a Foundry artifact (--artifact) or, without one,
from two lines on stdin: the ABI JSON, then the creation bytecode in hex.

When the artifact carries runtime bytecode, the code at the new address is
compared against it (metadata differences are reported as a partial match).

EXAMPLES:
  # Deploy from a Foundry artifact and save the deploy input
  matchfund deploy --artifact out/MatchingFunds.sol/MatchingFunds.json --output deploy.txt

  # Deploy from solc output lines
  cat MatchingFunds.abi MatchingFunds.bin | matchfund deploy > deploy.txt
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, artifactPath, output, name, noVerify)
		},
	}

	cmd.Flags().StringVar(&artifactPath, "artifact", "", "Foundry artifact JSON (default: read ABI and bytecode lines from stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the deploy input to this file instead of stdout")
	cmd.Flags().StringVar(&name, "name", "", "contract name for the journal (default: artifact name)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip comparing the deployed code against the artifact")

	return cmd
}

func runDeploy(cmd *cobra.Command, artifactPath, output, name string, noVerify bool) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	var a *foundry.Artifact
	var err error
	if artifactPath != "" {
		a, err = foundry.LoadArtifact(artifactPath)
	} else {
		a, err = readRawArtifact(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}
	if name != "" {
		a.Name = name
	}
	if a.Name == "" {
		a.Name = "unnamed"
	}

	s, err := openSession(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(stderr, "Deploying %s from %s...\n", a.Name, s.from.Hex())

	var dep *contract.Deployment
	_, err = s.execute(ctx, contract.OpDeploy, common.Address{}, nil, func(ctx context.Context) (*types.Receipt, error) {
		d, err := contract.Deploy(ctx, s.client, s.logger, s.from, string(a.ABI), a.CreationCode())
		if err != nil {
			return nil, err
		}
		dep = d
		return d.Receipt, nil
	})
	if err != nil {
		metrics.Deployment(string(txStatus(err)))
		return err
	}
	metrics.Deployment(string(storage.StatusSuccess))

	var result *evm.VerifyResult
	if !noVerify {
		result, err = verifyCode(ctx, s.client, dep.Address, a.DeployedBytecode)
		if err != nil {
			s.logger.Warn("could not verify deployed code", "address", dep.Address.Hex(), "error", err)
		} else if result != nil {
			printVerifyResult(stderr, result)
		}
	}

	s.recordDeployment(ctx, a, dep, result)

	if output == "" {
		return writeDeployInput(cmd.OutOrStdout(), a.ABI, dep.Address)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := writeDeployInput(f, a.ABI, dep.Address); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Deployed at %s\nWrote %s\n", dep.Address.Hex(), output)
	return nil
}

// readRawArtifact reads the ABI line and the bytecode line from r.
func readRawArtifact(r io.Reader) (*foundry.Artifact, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	if len(lines) < 2 {
		return nil, errors.New("expected the ABI JSON and the creation bytecode on two lines of stdin (or use --artifact)")
	}
	return foundry.ParseRaw(lines[0], lines[1])
}

// recordDeployment journals a successful deployment. Failures only warn.
func (s *session) recordDeployment(ctx context.Context, a *foundry.Artifact, dep *contract.Deployment, result *evm.VerifyResult) {
	if s.journal == nil {
		return
	}
	d := &storage.Deployment{
		ContractName:    a.Name,
		ChainID:         s.chainID.String(),
		Address:         dep.Address.Hex(),
		DeployerAddress: s.from.Hex(),
		TxHash:          dep.TxHash.Hex(),
		ABI:             string(a.ABI),
	}
	if dep.Receipt != nil && dep.Receipt.BlockNumber != nil {
		d.BlockNumber = dep.Receipt.BlockNumber.Int64()
	}
	if result != nil {
		d.Verified = result.Match
		d.MatchType = result.MatchType
	}
	if err := s.journal.RecordDeployment(ctx, d); err != nil {
		s.logger.Warn("journal write failed", "operation", contract.OpDeploy, "error", err)
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/config"
	"github.com/pendergraft/matchfund/internal/storage"
	"github.com/pendergraft/matchfund/internal/validation"
)

func createDeploymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployment",
		Short: "Deployment commands",
	}

	cmd.AddCommand(createDeploymentListCmd())
	cmd.AddCommand(createDeploymentInfoCmd())

	return cmd
}

func createDeploymentListCmd() *cobra.Command {
	var chainID string
	var jsonOutput bool
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments",
		Long: `List contracts deployed with 'matchfund deploy', newest first.

EXAMPLES:
  # List all deployments
  matchfund deployment list

  # Filter by chain
  matchfund deployment list --chain-id 1337
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJournal(cmd, func(ctx context.Context, store storage.Store) error {
				res, err := store.ListDeployments(ctx, storage.DeploymentFilter{ChainID: chainID},
					storage.PaginationParams{Limit: limit, Cursor: cursor})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				printDeployments(out, res)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&chainID, "chain-id", "", "filter by chain ID")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", storage.DefaultLimit, "number of items to show")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")

	return cmd
}

func createDeploymentInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info <chain-id> <address>",
		Short: "Show deployment details",
		Long: `Display detailed information about a deployment.

EXAMPLES:
  matchfund deployment info 1337 0x1234...
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := validation.ValidateAddress(args[1])
			if err != nil {
				return err
			}
			return withJournal(cmd, func(ctx context.Context, store storage.Store) error {
				d, err := store.GetDeployment(ctx, args[0], address.Hex())
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no deployment of %s on chain %s in the journal", address.Hex(), args[0])
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(d)
				}
				printDeploymentInfo(out, d)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

// withJournal opens the journal for a read-only command.
func withJournal(cmd *cobra.Command, fn func(context.Context, storage.Store) error) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Storage.Enabled {
		return errors.New("the transaction journal is disabled (MATCHFUND_JOURNAL=false)")
	}

	store, err := openJournal(ctx, cfg, setupLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

func printDeployments(out io.Writer, res *storage.PaginatedResult[storage.Deployment]) {
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "No deployments found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRACT\tCHAIN\tADDRESS\tBLOCK\tVERIFIED\tCREATED")
	for _, d := range res.Data {
		verified := "-"
		if d.MatchType != "" {
			verified = d.MatchType
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			d.ContractName, d.ChainID, d.Address, d.BlockNumber, verified, d.CreatedAt)
	}
	w.Flush()

	if res.HasMore {
		fmt.Fprintf(out, "\nMore entries: --cursor %s\n", res.NextCursor)
	}
}

func printDeploymentInfo(out io.Writer, d *storage.Deployment) {
	fmt.Fprintf(out, "Contract:  %s\n", d.ContractName)
	fmt.Fprintf(out, "Chain:     %s\n", d.ChainID)
	fmt.Fprintf(out, "Address:   %s\n", d.Address)
	fmt.Fprintf(out, "Deployer:  %s\n", d.DeployerAddress)
	fmt.Fprintf(out, "Tx hash:   %s\n", d.TxHash)
	fmt.Fprintf(out, "Block:     %d\n", d.BlockNumber)
	fmt.Fprintf(out, "Created:   %s\n", d.CreatedAt)
	switch {
	case d.MatchType == "":
		fmt.Fprintln(out, "Verified:  (not checked)")
	case d.Verified:
		fmt.Fprintf(out, "Verified:  yes (%s match)\n", d.MatchType)
	default:
		fmt.Fprintln(out, "Verified:  no")
	}
	if d.ABI != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "ABI:")
		fmt.Fprintln(out, d.ABI)
	}
}

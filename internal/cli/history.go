package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/storage"
	"github.com/pendergraft/matchfund/internal/validation"
)

func createHistoryCmd() *cobra.Command {
	var (
		limit      int
		cursor     string
		status     string
		operation  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled transactions",
		Long: `List the state-changing calls this client has sent, newest first.

Every donate, deposit, withdraw and deploy is journaled before it is sent
and updated once its outcome is known. A "submitted" entry that never
changed means the client exited before learning the outcome.

EXAMPLES:
  matchfund history
  matchfund history --limit 50 --status reverted
  matchfund history --operation donate --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.TransactionFilter{
				Operation: operation,
				Status:    storage.TxStatus(status),
			}
			if status != "" && !filter.Status.Valid() {
				return fmt.Errorf("%w: %q", storage.ErrInvalidStatus, status)
			}

			return withJournal(cmd, func(ctx context.Context, store storage.Store) error {
				res, err := store.ListTransactions(ctx, filter, storage.PaginationParams{Limit: limit, Cursor: cursor})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(res)
				}
				printHistory(out, res)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", storage.DefaultLimit, "maximum number of entries")
	cmd.Flags().StringVar(&cursor, "cursor", "", "continue from a previous page")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (submitted, success, reverted, failed, timeout)")
	cmd.Flags().StringVar(&operation, "operation", "", "filter by operation (donate, deposit_matching_funds, withdraw_matching_funds, deploy)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func printHistory(out io.Writer, res *storage.PaginatedResult[storage.Transaction]) {
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "No transactions found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tOPERATION\tSTATUS\tVALUE (ETH)\tTX HASH\tBLOCK\tERROR")
	for _, tx := range res.Data {
		value := tx.Value
		if wei, ok := parseWei(tx.Value); ok {
			value = validation.FormatEther(wei)
		}
		hash := tx.TxHash
		if hash == "" {
			hash = "-"
		}
		block := "-"
		if tx.BlockNumber > 0 {
			block = fmt.Sprintf("%d", tx.BlockNumber)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.CreatedAt, tx.Operation, tx.Status, value, hash, block, tx.Error)
	}
	w.Flush()

	if res.HasMore {
		fmt.Fprintf(out, "\nMore entries: --cursor %s\n", res.NextCursor)
	}
}

func parseWei(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

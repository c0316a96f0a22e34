package cli

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
)

func createListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all matchers",
		Long: `List every deposit recorded by the contract, including exhausted and
expired ones.

EXAMPLES:
  # Table output
  matchfund list --deploy-input deploy.txt

  # JSON output, with amounts in wei and the inferred state
  matchfund list --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := resolveTarget()
			if err != nil {
				return err
			}
			s, err := openSession(ctx, cmd, false)
			if err != nil {
				return err
			}
			defer s.Close()

			c, err := s.contractFor(t)
			if err != nil {
				return err
			}
			records, err := c.GetMatchers(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				now := time.Now()
				items := make([]matcherJSON, 0, len(records))
				for _, r := range records {
					items = append(items, toMatcherJSON(r, now))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			printMatchers(out, records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

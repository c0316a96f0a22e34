package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/matchfund/internal/config"
)

var (
	cfgFile         string
	host            string
	port            int
	rpcURL          string
	accountIndex    int
	deployInput     string
	abiJSON         string
	contractAddress string
	txTimeout       time.Duration

	// flagChanged reports whether a persistent flag was given on the
	// command line. Set before any command runs.
	flagChanged = func(string) bool { return false }
)

// Execute runs the CLI
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "matchfund",
		Short: "Client for the matching-funds donation contract",
		Long: `matchfund talks to a matching-funds contract over Ethereum JSON-RPC.

Matchers deposit funds that match donations to a donation address at a
fixed ratio until a deadline. Donors donate against a matcher's offer and
the contract forwards the donation plus the matched amount.

Run without a subcommand to start the interactive menu.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			flagChanged = cmd.Flags().Changed
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "project config file (default: matchfund.toml)")
	rootCmd.PersistentFlags().StringVar(&host, "host", "localhost", "node host")
	rootCmd.PersistentFlags().IntVar(&port, "port", 8545, "node port")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "node JSON-RPC URL (overrides --host and --port)")
	rootCmd.PersistentFlags().IntVar(&accountIndex, "account-index", 0, "index into the node's eth_accounts used as sender")
	rootCmd.PersistentFlags().StringVar(&deployInput, "deploy-input", "", "file holding the ABI and contract address, as written by deploy")
	rootCmd.PersistentFlags().StringVar(&abiJSON, "abi", "", "contract ABI JSON (overrides the deploy-input ABI)")
	rootCmd.PersistentFlags().StringVar(&contractAddress, "contract-address", "", "contract address (overrides the deploy-input address)")
	rootCmd.PersistentFlags().DurationVar(&txTimeout, "tx-timeout", 2*time.Minute, "how long to wait for a transaction receipt")

	// Add subcommands
	rootCmd.AddCommand(createMenuCmd())
	rootCmd.AddCommand(createDeployCmd())
	rootCmd.AddCommand(createListCmd())
	rootCmd.AddCommand(createVerifyCmd())
	rootCmd.AddCommand(createDeploymentCmd())
	rootCmd.AddCommand(createHistoryCmd())
	rootCmd.AddCommand(createConfigCmd())

	return rootCmd
}

// getRPCURL returns the node URL from flags, env, project config, global
// config, or the default.
func getRPCURL(cfg *config.Config) string {
	h, p := cfg.RPC.Host, cfg.RPC.Port
	if flagChanged("host") {
		h = host
	}
	if flagChanged("port") {
		p = port
	}

	// 1. Command line flags
	if rpcURL != "" {
		return rpcURL
	}
	if flagChanged("host") || flagChanged("port") {
		return hostPortURL(h, p)
	}

	// 2. Environment variables
	if cfg.RPC.URL != "" {
		return cfg.RPC.URL
	}
	if os.Getenv("MATCHFUND_HOST") != "" || os.Getenv("MATCHFUND_PORT") != "" {
		return hostPortURL(h, p)
	}

	// 3. Project config file (TOML)
	if pc := loadProjectConfigSilent(); pc != nil && pc.RPCURL != "" {
		return pc.RPCURL
	}

	// 4. Global config (YAML)
	if gc := loadGlobalConfig(); gc != nil && gc.RPCURL != "" {
		return gc.RPCURL
	}

	// 5. Default
	return hostPortURL(h, p)
}

func hostPortURL(h string, p int) string {
	return fmt.Sprintf("http://%s:%d", h, p)
}

// getAccountIndex returns the sender account index from flag, env, or
// project config.
func getAccountIndex(cfg *config.Config) int {
	if flagChanged("account-index") {
		return accountIndex
	}
	if _, ok := os.LookupEnv("MATCHFUND_ACCOUNT_INDEX"); ok {
		return cfg.RPC.AccountIndex
	}
	if pc := loadProjectConfigSilent(); pc != nil && pc.AccountIndex != nil {
		return *pc.AccountIndex
	}
	return 0
}

// getTxTimeout returns the receipt wait bound from flag or env.
func getTxTimeout(cfg *config.Config) time.Duration {
	if flagChanged("tx-timeout") {
		return txTimeout
	}
	if cfg.RPC.TxTimeout > 0 {
		return cfg.RPC.TxTimeout
	}
	return txTimeout
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pendergraft/matchfund/internal/config"
)

// projectConfigFiles is the search order for project config files
var projectConfigFiles = []string{"matchfund.toml"}

// ProjectConfig is the project-level TOML configuration
type ProjectConfig struct {
	RPCURL          string `toml:"rpc_url,omitempty"`
	AccountIndex    *int   `toml:"account_index,omitempty"`
	DeployInput     string `toml:"deploy_input,omitempty"`
	ContractAddress string `toml:"contract_address,omitempty"`
	ABIPath         string `toml:"abi_path,omitempty"`
}

// GlobalConfig is the per-user configuration (stored in ~/.matchfund/config.yaml)
type GlobalConfig struct {
	RPCURL string `yaml:"rpc_url"`
}

func createConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(createConfigInitCmd())
	cmd.AddCommand(createConfigShowCmd())

	return cmd
}

func createConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create config file",
		Long: `Create a matchfund.toml configuration file in the current directory.

This file stores project-specific settings like the node URL, the sender
account index and where the deployed contract's ABI and address live.

EXAMPLES:
  # Create config for the local development node
  matchfund config init

  # Create config for a specific node and deployment
  matchfund config init --rpc-url http://10.0.0.5:8545 --deploy-input deploy.txt

  # Overwrite existing config
  matchfund config init --force
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")

	return cmd
}

func createConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current config",
		Long: `Display the current configuration.

Shows the environment, the local project config (matchfund.toml), the
global config from ~/.matchfund/config.yaml and the effective values.

EXAMPLES:
  matchfund config show
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runConfigInit(out io.Writer, force bool) error {
	configPath := projectConfigFiles[0]
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	url := rpcURL
	if url == "" {
		url = hostPortURL(host, port)
	}
	input := deployInput
	if input == "" {
		input = "deploy.txt"
	}

	content := fmt.Sprintf(`# matchfund project configuration

rpc_url = %q
account_index = %d

# File written by 'matchfund deploy': ABI JSON on the first line, contract
# address on the second.
deploy_input = %q

# Override the deploy-input lines individually
# contract_address = "0x..."
# abi_path = "out/MatchingFunds.abi.json"
`, url, accountIndex, input)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  RPC URL:       %s\n", url)
	fmt.Fprintf(out, "  Account index: %d\n", accountIndex)
	fmt.Fprintf(out, "  Deploy input:  %s\n", input)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintf(out, "  1. Run 'matchfund deploy --artifact <path> --output %s' to deploy the contract\n", input)
	fmt.Fprintln(out, "  2. Run 'matchfund' to open the menu")

	return nil
}

func runConfigShow(out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Configuration sources (in order of precedence):")
	fmt.Fprintln(out)

	// 1. Command line flags
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "   --rpc-url, --host, --port, --account-index, --deploy-input, --abi, --contract-address, --tx-timeout, --config")
	fmt.Fprintln(out)

	// 2. Environment variables
	fmt.Fprintln(out, "2. Environment variables")
	for _, key := range []string{
		"MATCHFUND_RPC_URL", "MATCHFUND_HOST", "MATCHFUND_PORT", "MATCHFUND_ACCOUNT_INDEX",
		"MATCHFUND_TX_TIMEOUT_SECONDS", "MATCHFUND_JOURNAL", "MATCHFUND_METRICS_FILE",
		"STORAGE_TYPE", "SQLITE_PATH", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		if v := os.Getenv(key); v != "" {
			if key == "DATABASE_URL" {
				v = "(set)"
			}
			fmt.Fprintf(out, "   %s=%s\n", key, v)
		} else {
			fmt.Fprintf(out, "   %s=(not set)\n", key)
		}
	}
	fmt.Fprintln(out)

	// 3. Local project config
	fmt.Fprintln(out, "3. Local project config (matchfund.toml)")
	projectConfig, configPath, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "   (not found)")
		} else {
			fmt.Fprintf(out, "   Error: %v\n", err)
		}
	} else {
		fmt.Fprintf(out, "   Loaded from: %s\n", configPath)
		if projectConfig.RPCURL != "" {
			fmt.Fprintf(out, "   rpc_url: %s\n", projectConfig.RPCURL)
		}
		if projectConfig.AccountIndex != nil {
			fmt.Fprintf(out, "   account_index: %d\n", *projectConfig.AccountIndex)
		}
		if projectConfig.DeployInput != "" {
			fmt.Fprintf(out, "   deploy_input: %s\n", projectConfig.DeployInput)
		}
		if projectConfig.ContractAddress != "" {
			fmt.Fprintf(out, "   contract_address: %s\n", projectConfig.ContractAddress)
		}
		if projectConfig.ABIPath != "" {
			fmt.Fprintf(out, "   abi_path: %s\n", projectConfig.ABIPath)
		}
	}
	fmt.Fprintln(out)

	// 4. Global config
	fmt.Fprintln(out, "4. Global config (~/.matchfund/config.yaml)")
	if gc, err := readGlobalConfig(); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "   (not found)")
		} else {
			fmt.Fprintf(out, "   Error: %v\n", err)
		}
	} else if gc.RPCURL != "" {
		fmt.Fprintf(out, "   rpc_url: %s\n", gc.RPCURL)
	}
	fmt.Fprintln(out)

	// Effective config
	fmt.Fprintln(out, "Effective configuration:")
	fmt.Fprintf(out, "   RPC URL:       %s\n", getRPCURL(cfg))
	fmt.Fprintf(out, "   Account index: %d\n", getAccountIndex(cfg))
	fmt.Fprintf(out, "   Tx timeout:    %s\n", getTxTimeout(cfg))
	if cfg.Storage.Enabled {
		journal := cfg.Storage.SQLite.Path
		if cfg.Storage.Type == "postgres" {
			journal = "postgres"
		}
		fmt.Fprintf(out, "   Journal:       %s\n", journal)
	} else {
		fmt.Fprintln(out, "   Journal:       (disabled)")
	}
	if target, err := resolveTarget(); err == nil {
		fmt.Fprintf(out, "   Contract:      %s\n", target.Address.Hex())
	} else {
		fmt.Fprintln(out, "   Contract:      (not configured)")
	}

	return nil
}

// loadProjectConfig loads the project config from the first matching config file.
// Returns the config, the path it was loaded from, and an error.
func loadProjectConfig() (*ProjectConfig, string, error) {
	// If --config flag was provided, use that directly
	if cfgFile != "" {
		pc, err := loadProjectConfigFromPath(cfgFile)
		if err != nil {
			return nil, cfgFile, err
		}
		return pc, cfgFile, nil
	}

	for _, name := range projectConfigFiles {
		if _, err := os.Stat(name); err == nil {
			pc, err := loadProjectConfigFromPath(name)
			if err != nil {
				return nil, name, err
			}
			return pc, name, nil
		}
	}
	return nil, "", os.ErrNotExist
}

// loadProjectConfigFromPath loads a project config from a specific path
func loadProjectConfigFromPath(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pc ProjectConfig
	if _, err := toml.Decode(string(data), &pc); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &pc, nil
}

// loadProjectConfigSilent loads the project config without returning errors for missing files.
// Returns nil if the file doesn't exist, but warns about parse failures.
func loadProjectConfigSilent() *ProjectConfig {
	pc, _, err := loadProjectConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Warning: failed to load project config: %v\n", err)
		return nil
	}
	return pc
}

func globalConfigPath() string {
	return filepath.Join(config.DataDir(), "config.yaml")
}

func readGlobalConfig() (*GlobalConfig, error) {
	data, err := os.ReadFile(globalConfigPath())
	if err != nil {
		return nil, err
	}
	var gc GlobalConfig
	if err := yaml.Unmarshal(data, &gc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &gc, nil
}

// loadGlobalConfig returns nil when the global config is missing or invalid.
func loadGlobalConfig() *GlobalConfig {
	gc, err := readGlobalConfig()
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load global config: %v\n", err)
		}
		return nil
	}
	return gc
}

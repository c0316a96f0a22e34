package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/pendergraft/matchfund/internal/validation"
)

// target is the deployed contract the menu and list commands talk to.
type target struct {
	ABI     string
	Address common.Address
}

// resolveTarget finds the contract ABI and address. Each piece comes from
// its flag, then the project config, then the deploy-input file.
func resolveTarget() (*target, error) {
	abi := abiJSON
	addr := contractAddress

	pc := loadProjectConfigSilent()
	if abi == "" && pc != nil && pc.ABIPath != "" {
		data, err := os.ReadFile(pc.ABIPath)
		if err != nil {
			return nil, fmt.Errorf("reading abi_path: %w", err)
		}
		abi = string(data)
	}
	if addr == "" && pc != nil {
		addr = pc.ContractAddress
	}

	path := deployInput
	if path == "" && pc != nil {
		path = pc.DeployInput
	}
	if (abi == "" || addr == "") && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening deploy input: %w", err)
		}
		defer f.Close()

		fileABI, fileAddr, err := readDeployInput(f)
		if err != nil {
			return nil, fmt.Errorf("reading deploy input %s: %w", path, err)
		}
		if abi == "" {
			abi = fileABI
		}
		if addr == "" {
			addr = fileAddr
		}
	}

	if abi == "" {
		return nil, errors.New("no contract ABI configured (use --deploy-input or --abi)")
	}
	if addr == "" {
		return nil, errors.New("no contract address configured (use --deploy-input or --contract-address)")
	}

	address, err := validation.ValidateAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	return &target{ABI: abi, Address: address}, nil
}

// readDeployInput reads the ABI line and the address line written by deploy.
func readDeployInput(r io.Reader) (abi, address string, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for len(lines) < 2 && scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	if len(lines) < 2 {
		return "", "", errors.New("expected the ABI JSON on the first line and the contract address on the second")
	}
	return lines[0], lines[1], nil
}

// writeDeployInput writes the ABI compacted onto a single line followed by
// the checksummed address.
func writeDeployInput(w io.Writer, abi []byte, address common.Address) error {
	var line bytes.Buffer
	if err := json.Compact(&line, abi); err != nil {
		return fmt.Errorf("compacting ABI: %w", err)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", line.String(), address.Hex())
	return err
}

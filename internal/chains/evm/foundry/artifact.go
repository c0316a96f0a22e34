// Package foundry loads compiled contract artifacts for deployment.
package foundry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pendergraft/matchfund/internal/chains/evm"
)

// ErrNoBytecode is returned for artifacts that cannot be deployed, such as
// interfaces and abstract contracts.
var ErrNoBytecode = errors.New("contract has no bytecode (likely an interface)")

// Artifact is a compiled contract ready for deployment.
type Artifact struct {
	Name             string
	ABI              json.RawMessage
	Bytecode         string // 0x-prefixed creation code
	DeployedBytecode string // 0x-prefixed runtime code, empty when unknown
	CompilerVersion  string
}

// FoundryArtifact is the layout of out/<Source>.sol/<Contract>.json
type FoundryArtifact struct {
	ABI              json.RawMessage `json:"abi"`
	Bytecode         BytecodeObject  `json:"bytecode"`
	DeployedBytecode BytecodeObject  `json:"deployedBytecode"`
	RawMetadata      string          `json:"rawMetadata"`
}

// BytecodeObject represents bytecode in a Foundry artifact
type BytecodeObject struct {
	Object string `json:"object"`
}

// FoundryMetadata represents the parsed rawMetadata field
type FoundryMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
}

// LoadArtifact reads a Foundry artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var raw FoundryArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing artifact JSON: %w", err)
	}

	var metadata FoundryMetadata
	if raw.RawMetadata != "" {
		_ = json.Unmarshal([]byte(raw.RawMetadata), &metadata) // optional
	}

	a := &Artifact{
		Name:             strings.TrimSuffix(filepath.Base(path), ".json"),
		ABI:              raw.ABI,
		Bytecode:         normalizeHex(raw.Bytecode.Object),
		DeployedBytecode: normalizeHex(raw.DeployedBytecode.Object),
		CompilerVersion:  metadata.Compiler.Version,
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name, err)
	}
	return a, nil
}

// ParseRaw builds an artifact from an ABI JSON line and a bytecode hex line.
func ParseRaw(abiLine, bytecodeLine string) (*Artifact, error) {
	a := &Artifact{
		ABI:      json.RawMessage(strings.TrimSpace(abiLine)),
		Bytecode: normalizeHex(bytecodeLine),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks that the ABI parses and the bytecode is deployable hex.
func (a *Artifact) Validate() error {
	if len(a.ABI) == 0 {
		return errors.New("artifact has no ABI")
	}
	if _, err := abi.JSON(strings.NewReader(string(a.ABI))); err != nil {
		return fmt.Errorf("parsing ABI: %w", err)
	}
	if a.Bytecode == "" || a.Bytecode == "0x" {
		return ErrNoBytecode
	}
	if evm.HasLibraryPlaceholders(a.Bytecode) {
		return errors.New("bytecode has unlinked library placeholders")
	}
	if _, err := hexutil.Decode(a.Bytecode); err != nil {
		return fmt.Errorf("decoding bytecode: %w", err)
	}
	return nil
}

// CreationCode returns the decoded creation bytecode.
func (a *Artifact) CreationCode() []byte {
	code, _ := hexutil.Decode(a.Bytecode)
	return code
}

// ParsedABI returns the parsed contract ABI.
func (a *Artifact) ParsedABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(string(a.ABI)))
}

func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return s
}

// Package artifact loads compiled contract output produced by Hardhat.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Artifact is a compiled contract: its ABI and creation bytecode
type Artifact struct {
	ContractName string
	SourceName   string
	ABI          abi.ABI
	Bytecode     []byte
}

// BuildInfo is the compiler invocation that produced an artifact
type BuildInfo struct {
	SolcVersion     string
	SolcLongVersion string
	Input           json.RawMessage // solc standard JSON input
}

type hardhatArtifact struct {
	Format       string          `json:"_format"`
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

type hardhatBuildInfo struct {
	Format          string          `json:"_format"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// LoadArtifact reads a Hardhat artifact file
func LoadArtifact(path string) (*Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var raw hardhatArtifact
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}

	if raw.ContractName == "" {
		return nil, fmt.Errorf("artifact %s has no contract name", path)
	}

	// Unlinked libraries show up as __$<hash>$__ placeholders
	if strings.Contains(raw.Bytecode, "__$") {
		return nil, fmt.Errorf("artifact %s has unlinked library references", path)
	}

	bytecode, err := hexutil.Decode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode: %w", err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("artifact %s has empty bytecode (abstract contract or interface?)", path)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return &Artifact{
		ContractName: raw.ContractName,
		SourceName:   raw.SourceName,
		ABI:          parsedABI,
		Bytecode:     bytecode,
	}, nil
}

// FullyQualifiedName returns "<source>:<contract>", the form explorers expect
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.ContractName
	}
	return a.SourceName + ":" + a.ContractName
}

// PackConstructor ABI-encodes constructor arguments
func (a *Artifact) PackConstructor(args ...interface{}) ([]byte, error) {
	packed, err := a.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor args: %w", err)
	}
	return packed, nil
}

// InitCode returns creation bytecode followed by the encoded constructor arguments
func (a *Artifact) InitCode(args ...interface{}) ([]byte, error) {
	packed, err := a.PackConstructor(args...)
	if err != nil {
		return nil, err
	}
	initCode := make([]byte, 0, len(a.Bytecode)+len(packed))
	initCode = append(initCode, a.Bytecode...)
	initCode = append(initCode, packed...)
	return initCode, nil
}

// LoadBuildInfo reads a Hardhat build-info file
func LoadBuildInfo(path string) (*BuildInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read build info: %w", err)
	}

	var raw hardhatBuildInfo
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode build info %s: %w", path, err)
	}

	if raw.SolcLongVersion == "" {
		return nil, fmt.Errorf("build info %s has no compiler version", path)
	}
	if len(raw.Input) == 0 || string(raw.Input) == "null" {
		return nil, fmt.Errorf("build info %s has no compiler input", path)
	}

	return &BuildInfo{
		SolcVersion:     raw.SolcVersion,
		SolcLongVersion: raw.SolcLongVersion,
		Input:           raw.Input,
	}, nil
}

// CheckCompilerVersion ensures the build was produced by the pinned compiler
func (b *BuildInfo) CheckCompilerVersion(pinned string) error {
	version := b.SolcVersion
	if version == "" {
		version, _, _ = strings.Cut(b.SolcLongVersion, "+")
	}
	if version != pinned {
		return fmt.Errorf("build info compiled with solc %s, expected %s", version, pinned)
	}
	return nil
}

// ExplorerCompilerVersion is the compiler version string explorers expect, e.g. "v0.7.6+commit.7338295f"
func (b *BuildInfo) ExplorerCompilerVersion() string {
	return "v" + strings.TrimPrefix(b.SolcLongVersion, "v")
}

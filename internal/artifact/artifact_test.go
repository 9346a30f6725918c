package artifact

import (
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oracleArtifact = `{
  "_format": "hh-sol-artifact-1",
  "contractName": "UniswapV3CrossPoolOracle",
  "sourceName": "contracts/UniswapV3CrossPoolOracle.sol",
  "abi": [
    {
      "inputs": [
        {"internalType": "address", "name": "_uniswapV3Factory", "type": "address"},
        {"internalType": "address", "name": "_weth", "type": "address"},
        {"internalType": "uint24", "name": "_defaultFee", "type": "uint24"}
      ],
      "stateMutability": "nonpayable",
      "type": "constructor"
    },
    {
      "inputs": [],
      "name": "defaultFee",
      "outputs": [{"internalType": "uint24", "name": "", "type": "uint24"}],
      "stateMutability": "view",
      "type": "function"
    }
  ],
  "bytecode": "0x6080604052",
  "deployedBytecode": "0x6080"
}`

const oracleBuildInfo = `{
  "_format": "hh-sol-build-info-1",
  "id": "0d4e7c7d",
  "solcVersion": "0.7.6",
  "solcLongVersion": "0.7.6+commit.7338295f",
  "input": {"language": "Solidity", "sources": {"contracts/UniswapV3CrossPoolOracle.sol": {"content": "pragma solidity 0.7.6;"}}},
  "output": {}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadArtifact(t *testing.T) {
	a, err := LoadArtifact(writeFile(t, "oracle.json", oracleArtifact))
	require.NoError(t, err)

	assert.Equal(t, "UniswapV3CrossPoolOracle", a.ContractName)
	assert.Equal(t, "contracts/UniswapV3CrossPoolOracle.sol:UniswapV3CrossPoolOracle", a.FullyQualifiedName())
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, a.Bytecode)
	assert.Len(t, a.ABI.Constructor.Inputs, 3)
}

func TestLoadArtifactErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "not json", content: "{", wantErr: "failed to decode artifact"},
		{name: "no name", content: `{"abi": [], "bytecode": "0x60"}`, wantErr: "no contract name"},
		{name: "empty bytecode", content: `{"contractName": "I", "abi": [], "bytecode": "0x"}`, wantErr: "empty bytecode"},
		{name: "unlinked", content: `{"contractName": "L", "abi": [], "bytecode": "0x60__$abcdef$__"}`, wantErr: "unlinked library"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadArtifact(writeFile(t, "a.json", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read artifact")
}

func TestPackConstructor(t *testing.T) {
	a, err := LoadArtifact(writeFile(t, "oracle.json", oracleArtifact))
	require.NoError(t, err)

	factory := common.HexToAddress("0x1f98431c8ad98523631ae4a59f267346ea31f984")
	weth := common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")

	packed, err := a.PackConstructor(factory, weth, big.NewInt(3000))
	require.NoError(t, err)

	want := "0000000000000000000000001f98431c8ad98523631ae4a59f267346ea31f984" +
		"000000000000000000000000c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" +
		"0000000000000000000000000000000000000000000000000000000000000bb8"
	assert.Equal(t, want, hex.EncodeToString(packed))

	initCode, err := a.InitCode(factory, weth, big.NewInt(3000))
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, a.Bytecode...), packed...), initCode)

	_, err = a.PackConstructor(factory, weth)
	assert.ErrorContains(t, err, "failed to encode constructor args")
}

func TestLoadBuildInfo(t *testing.T) {
	b, err := LoadBuildInfo(writeFile(t, "build.json", oracleBuildInfo))
	require.NoError(t, err)

	assert.Equal(t, "0.7.6+commit.7338295f", b.SolcLongVersion)
	assert.Equal(t, "v0.7.6+commit.7338295f", b.ExplorerCompilerVersion())
	assert.Contains(t, string(b.Input), `"language": "Solidity"`)

	require.NoError(t, b.CheckCompilerVersion("0.7.6"))
	assert.ErrorContains(t, b.CheckCompilerVersion("0.8.19"), "expected 0.8.19")

	_, err = LoadBuildInfo(writeFile(t, "bad.json", `{"solcLongVersion": "0.7.6+commit.7338295f"}`))
	assert.ErrorContains(t, err, "no compiler input")
}

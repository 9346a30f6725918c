package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RunState represents the position of a deployment run in the pipeline
type RunState string

const (
	RunStateStart               RunState = "START"
	RunStatePreflightPassed     RunState = "PREFLIGHT_PASSED"
	RunStateConfirmationGranted RunState = "CONFIRMATION_GRANTED"
	RunStateDeployed            RunState = "DEPLOYED"
	RunStateVerified            RunState = "VERIFIED"

	RunStatePreflightFailed    RunState = "PREFLIGHT_FAILED"
	RunStateConfirmationDenied RunState = "CONFIRMATION_DENIED"
	RunStateDeploymentFailed   RunState = "DEPLOYMENT_FAILED"
	RunStateVerificationFailed RunState = "VERIFICATION_FAILED"
)

// Terminal reports whether no further transition is possible from s
func (s RunState) Terminal() bool {
	switch s {
	case RunStateVerified,
		RunStatePreflightFailed,
		RunStateConfirmationDenied,
		RunStateDeploymentFailed,
		RunStateVerificationFailed:
		return true
	}
	return false
}

// Credentials holds the secrets resolved from the environment at startup
type Credentials struct {
	RPCAPIKey      string // RPC provider key (Infura)
	ExplorerAPIKey string // Etherscan API key
	DeployerKey    string // Hex private key of the deploying account
}

// DeploymentParameters describes the contract to deploy. It is a plain value
// and is never mutated after construction.
type DeploymentParameters struct {
	Network    string
	Factory    common.Address // Uniswap V3 factory
	BaseAsset  common.Address // WETH
	DefaultFee uint32         // uint24 fee tier, in hundredths of a bip
}

// ConstructorArgs returns the constructor arguments in ABI order:
// (address _uniswapV3Factory, address _weth, uint24 _defaultFee)
func (p DeploymentParameters) ConstructorArgs() []interface{} {
	return []interface{}{
		p.Factory,
		p.BaseAsset,
		new(big.Int).SetUint64(uint64(p.DefaultFee)),
	}
}

// DeploymentResult is produced once the contract-creation transaction is confirmed
type DeploymentResult struct {
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Deployer    common.Address
}

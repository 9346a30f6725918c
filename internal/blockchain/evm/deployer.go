package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"crosspool-oracle/deployer/internal/artifact"
	"crosspool-oracle/deployer/internal/config"
	"crosspool-oracle/deployer/internal/models"
)

// Deployer submits the oracle's contract-creation transaction. The RPC
// connection is only opened when Deploy or Lookup is called.
type Deployer struct {
	network     config.NetworkConfig
	credentials models.Credentials
	artifact    *artifact.Artifact
	logger      *zap.Logger
}

// NewDeployer creates a new Deployer instance
func NewDeployer(network config.NetworkConfig, credentials models.Credentials, contract *artifact.Artifact, logger *zap.Logger) *Deployer {
	return &Deployer{
		network:     network,
		credentials: credentials,
		artifact:    contract,
		logger:      logger.Named("deployer"),
	}
}

func (d *Deployer) dial(signer bool) (*Client, error) {
	key := ""
	if signer {
		key = d.credentials.DeployerKey
	}
	return NewClient(d.network, d.network.ResolveRPCURL(d.credentials.RPCAPIKey), key, d.logger)
}

// Deploy sends the contract-creation transaction and waits for it to be mined.
// The transaction is never resubmitted: a failed or interrupted wait is
// returned as is.
func (d *Deployer) Deploy(ctx context.Context, params models.DeploymentParameters) (*models.DeploymentResult, error) {
	// Encoding errors surface before any RPC traffic
	initCode, err := d.artifact.InitCode(params.ConstructorArgs()...)
	if err != nil {
		return nil, err
	}

	client, err := d.dial(true)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	from := client.DeployerAddress()

	d.logger.Info("Deploying contract",
		zap.String("contract", d.artifact.ContractName),
		zap.String("network", params.Network),
		zap.String("deployer", from.Hex()),
		zap.String("factory", params.Factory.Hex()),
		zap.String("base_asset", params.BaseAsset.Hex()),
		zap.Uint32("default_fee", params.DefaultFee),
		zap.Int("init_code_size", len(initCode)))

	auth, err := client.CreateTransactOpts(ctx)
	if err != nil {
		return nil, err
	}

	// Compute expected address before deployment
	expectedAddress, err := ComputeContractAddress(from, auth.Nonce.Uint64())
	if err != nil {
		return nil, fmt.Errorf("failed to compute expected address: %w", err)
	}

	address, tx, _, err := bind.DeployContract(auth, d.artifact.ABI, d.artifact.Bytecode, client.Backend(), params.ConstructorArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to send deployment tx: %w", err)
	}

	d.logger.Info("Deployment tx sent",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.Uint64("nonce", tx.Nonce()),
		zap.Uint64("gas_limit", tx.Gas()),
		zap.String("expected_address", expectedAddress.Hex()))

	matches, err := VerifyContractAddress(address, from, auth.Nonce.Uint64())
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, fmt.Errorf("binding reported address %s, expected %s", address.Hex(), expectedAddress.Hex())
	}

	receipt, err := client.WaitForTransaction(ctx, tx.Hash())
	if err != nil {
		return nil, fmt.Errorf("deployment tx %s failed: %w", tx.Hash().Hex(), err)
	}

	result, err := resultFromReceipt(receipt, from, expectedAddress)
	if err != nil {
		return nil, err
	}

	// Verify contract is deployed at expected address
	deployed, err := client.IsContractDeployed(ctx, result.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to verify deployment: %w", err)
	}
	if !deployed {
		return nil, fmt.Errorf("contract not found at expected address %s", result.Address.Hex())
	}

	d.logger.Info("Deployment confirmed",
		zap.String("address", result.Address.Hex()),
		zap.String("tx_hash", result.TxHash.Hex()),
		zap.Uint64("gas_used", result.GasUsed),
		zap.Uint64("block_number", result.BlockNumber))

	return result, nil
}

// Lookup builds a DeploymentResult for a contract that is already on chain
func (d *Deployer) Lookup(ctx context.Context, address common.Address) (*models.DeploymentResult, error) {
	client, err := d.dial(false)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if _, err := client.CheckChainID(ctx); err != nil {
		return nil, err
	}

	deployed, err := client.IsContractDeployed(ctx, address)
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, fmt.Errorf("no contract code at %s on %s", address.Hex(), d.network.Name)
	}

	return &models.DeploymentResult{Address: address}, nil
}

// resultFromReceipt checks a mined receipt against the address predicted from the deployer nonce
func resultFromReceipt(receipt *types.Receipt, from, expected common.Address) (*models.DeploymentResult, error) {
	if receipt == nil {
		return nil, fmt.Errorf("missing receipt")
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("deployment reverted in tx %s", receipt.TxHash.Hex())
	}
	if receipt.ContractAddress != (common.Address{}) && receipt.ContractAddress != expected {
		return nil, fmt.Errorf("receipt contract address %s does not match expected %s",
			receipt.ContractAddress.Hex(), expected.Hex())
	}

	result := &models.DeploymentResult{
		Address:  expected,
		TxHash:   receipt.TxHash,
		GasUsed:  receipt.GasUsed,
		Deployer: from,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

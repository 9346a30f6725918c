package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"crosspool-oracle/deployer/internal/config"
)

const defaultReceiptPollPeriod = 2 * time.Second

// ErrNoSigner is returned when a transaction is requested from a read-only client
var ErrNoSigner = errors.New("client has no signing key")

// Client wraps Ethereum client functionality for interacting with an EVM network
type Client struct {
	ethClient   *ethclient.Client
	network     config.NetworkConfig
	privateKey  *ecdsa.PrivateKey
	fromAddress common.Address
	logger      *zap.Logger
}

// NewClient creates a new EVM client for the given network. An empty
// privateKey yields a read-only client.
func NewClient(network config.NetworkConfig, rpcURL, privateKey string, logger *zap.Logger) (*Client, error) {
	var (
		key  *ecdsa.PrivateKey
		from common.Address
		err  error
	)
	if privateKey != "" {
		key, from, err = ParsePrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
	}

	// Connect to RPC endpoint
	ethClient, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint for %s: %w", network.Name, err)
	}

	logger.Info("EVM client initialized",
		zap.String("network", network.Name),
		zap.Int64("chain_id", network.ChainID),
		zap.String("deployer_address", from.Hex()))

	return &Client{
		ethClient:   ethClient,
		network:     network,
		privateKey:  key,
		fromAddress: from,
		logger:      logger,
	}, nil
}

// ParsePrivateKey parses a hex private key (0x prefix optional) and derives its address
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, common.Address{}, fmt.Errorf("failed to cast public key to ECDSA")
	}

	return privateKey, crypto.PubkeyToAddress(*publicKeyECDSA), nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	c.ethClient.Close()
}

// DeployerAddress returns the signing account's address
func (c *Client) DeployerAddress() common.Address {
	return c.fromAddress
}

// Backend exposes the RPC client for contract bindings
func (c *Client) Backend() bind.ContractBackend {
	return c.ethClient
}

// CheckChainID fails if the endpoint serves a different chain than configured
func (c *Client) CheckChainID(ctx context.Context) (*big.Int, error) {
	chainID, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if c.network.ChainID != 0 && chainID.Int64() != c.network.ChainID {
		return nil, fmt.Errorf("RPC endpoint reports chain %s, network %s expects %d",
			chainID, c.network.Name, c.network.ChainID)
	}
	return chainID, nil
}

// CreateTransactOpts creates transaction options for sending transactions
func (c *Client) CreateTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, ErrNoSigner
	}

	chainID, err := c.CheckChainID(ctx)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	nonce, err := c.ethClient.PendingNonceAt(ctx, c.fromAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasPrice = gasPrice
	auth.Context = ctx

	return auth, nil
}

// WaitForTransaction polls until the transaction is mined. There is no
// timeout: only ctx cancellation stops the wait.
func (c *Client) WaitForTransaction(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	period := c.network.ReceiptPollPeriod
	if period <= 0 {
		period = defaultReceiptPollPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		receipt, err := c.ethClient.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("transaction reverted: %s", txHash.Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("failed to get receipt for %s: %w", txHash.Hex(), err)
		}

		c.logger.Debug("Waiting for transaction to be mined", zap.String("tx_hash", txHash.Hex()))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("stopped waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsContractDeployed checks if a contract exists at the given address
func (c *Client) IsContractDeployed(ctx context.Context, address common.Address) (bool, error) {
	code, err := c.ethClient.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at address: %w", err)
	}
	return len(code) > 0, nil
}

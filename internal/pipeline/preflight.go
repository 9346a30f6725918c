package pipeline

import (
	"strings"
	"unicode"

	"crosspool-oracle/deployer/internal/blockchain/evm"
	"crosspool-oracle/deployer/internal/config"
	"crosspool-oracle/deployer/internal/models"
)

// Names reported by preflight
const (
	ExplorerAPIKeyName = "ETHERSCAN_API_KEY"
	RPCAPIKeyName      = "INFURA_API_KEY"
	DeployerKeyName    = "DEPLOYER_PRIVATE_KEY"
)

// Preflight checks that everything a deployment needs is present and well
// formed, without any network access. It returns the constructor parameters
// the run will use.
func Preflight(cfg *config.Config) (models.DeploymentParameters, error) {
	return preflight(cfg, true)
}

// PreflightVerify is Preflight for the verify subcommand, which needs no signer
func PreflightVerify(cfg *config.Config) (models.DeploymentParameters, error) {
	return preflight(cfg, false)
}

func preflight(cfg *config.Config, signer bool) (models.DeploymentParameters, error) {
	creds := cfg.Credentials

	if creds.ExplorerAPIKey == "" {
		return models.DeploymentParameters{}, missing(ExplorerAPIKeyName)
	}
	if strings.IndexFunc(creds.ExplorerAPIKey, unicode.IsSpace) >= 0 {
		return models.DeploymentParameters{}, malformed(ExplorerAPIKeyName, "contains whitespace")
	}

	network, ok := cfg.Networks[cfg.Network]
	if !ok {
		return models.DeploymentParameters{}, malformed("network "+cfg.Network, "is not configured")
	}

	if network.RequiresRPCKey() && strings.TrimSpace(creds.RPCAPIKey) == "" {
		return models.DeploymentParameters{}, missing(RPCAPIKeyName)
	}

	if signer {
		if strings.TrimSpace(creds.DeployerKey) == "" {
			return models.DeploymentParameters{}, missing(DeployerKeyName)
		}
		if _, _, err := evm.ParsePrivateKey(creds.DeployerKey); err != nil {
			return models.DeploymentParameters{}, malformed(DeployerKeyName, "is not a valid secp256k1 private key")
		}
	}

	if network.RPCURL == "" {
		return models.DeploymentParameters{}, malformed("network "+cfg.Network, "has no RPC URL")
	}
	if network.ExplorerAPIURL == "" {
		return models.DeploymentParameters{}, malformed("network "+cfg.Network, "has no explorer API URL")
	}

	params, err := cfg.Parameters()
	if err != nil {
		return models.DeploymentParameters{}, malformed("constructor parameters", err.Error())
	}

	return params, nil
}

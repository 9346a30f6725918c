package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"crosspool-oracle/deployer/internal/models"
)

// RPCKeyPlaceholder is substituted with the RPC provider key in network URLs
const RPCKeyPlaceholder = "${INFURA_API_KEY}"

// Config holds all configuration for a deployment run
type Config struct {
	Network      string
	Networks     map[string]NetworkConfig
	Credentials  models.Credentials
	Contract     ContractConfig
	Verification VerificationConfig
}

// NetworkConfig holds configuration for an EVM network
type NetworkConfig struct {
	Name               string        `mapstructure:"name"`
	ChainID            int64         `mapstructure:"chain_id"`
	RPCURL             string        `mapstructure:"rpc_url"`              // may contain RPCKeyPlaceholder
	ExplorerAPIURL     string        `mapstructure:"explorer_api_url"`     // Etherscan v2 API endpoint
	ExplorerBrowserURL string        `mapstructure:"explorer_browser_url"` // used for links only
	ReceiptPollPeriod  time.Duration `mapstructure:"receipt_poll_period"`
}

// ContractConfig holds the compiled contract and its constructor arguments
type ContractConfig struct {
	Name            string
	ArtifactPath    string // Hardhat artifact with abi + bytecode
	BuildInfoPath   string // Hardhat build-info with the solc standard JSON input
	CompilerVersion string // pinned solc version, e.g. "0.7.6"
	Factory         string
	BaseAsset       string
	DefaultFee      int64 // checked against the uint24 range before use
}

// VerificationConfig tunes the interaction with the explorer
type VerificationConfig struct {
	SubmitRetries    int
	SubmitRetryDelay time.Duration
	PollRetries      int
	PollInterval     time.Duration
	RequestTimeout   time.Duration
}

// Defaults for the UniswapV3CrossPoolOracle deployment
const (
	DefaultContractName    = "UniswapV3CrossPoolOracle"
	DefaultCompilerVersion = "0.7.6"
	DefaultFactory         = "0x1f98431c8ad98523631ae4a59f267346ea31f984"
	DefaultBaseAsset       = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" // WETH
	DefaultFee             = 3000
	DefaultNetwork         = "hardhat"

	maxUint24 = 1<<24 - 1
)

// DefaultNetworks returns the networks known without a config file
func DefaultNetworks() map[string]NetworkConfig {
	return map[string]NetworkConfig{
		"hardhat": {
			Name:               "hardhat",
			ChainID:            31337,
			RPCURL:             "http://127.0.0.1:8545",
			ExplorerAPIURL:     "https://api.etherscan.io/v2/api",
			ExplorerBrowserURL: "",
			ReceiptPollPeriod:  time.Second,
		},
		"mainnet": {
			Name:               "mainnet",
			ChainID:            1,
			RPCURL:             "https://mainnet.infura.io/v3/" + RPCKeyPlaceholder,
			ExplorerAPIURL:     "https://api.etherscan.io/v2/api",
			ExplorerBrowserURL: "https://etherscan.io",
			ReceiptPollPeriod:  4 * time.Second,
		},
	}
}

// BindEnv registers the environment variables read by LoadConfig
func BindEnv(v *viper.Viper) {
	_ = v.BindEnv("network", "DEPLOY_NETWORK")
	_ = v.BindEnv("credentials.rpc_api_key", "INFURA_API_KEY")
	_ = v.BindEnv("credentials.explorer_api_key", "ETHERSCAN_API_KEY")
	_ = v.BindEnv("credentials.deployer_key", "DEPLOYER_PRIVATE_KEY")
	_ = v.BindEnv("contract.artifact", "ORACLE_ARTIFACT")
	_ = v.BindEnv("contract.build_info", "ORACLE_BUILD_INFO")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", DefaultNetwork)
	v.SetDefault("contract.name", DefaultContractName)
	v.SetDefault("contract.artifact", "artifacts/contracts/UniswapV3CrossPoolOracle.sol/UniswapV3CrossPoolOracle.json")
	v.SetDefault("contract.compiler_version", DefaultCompilerVersion)
	v.SetDefault("contract.factory", DefaultFactory)
	v.SetDefault("contract.base_asset", DefaultBaseAsset)
	v.SetDefault("contract.default_fee", DefaultFee)
	v.SetDefault("verification.submit_retries", 5)
	v.SetDefault("verification.submit_retry_delay", 5*time.Second)
	v.SetDefault("verification.poll_retries", 20)
	v.SetDefault("verification.poll_interval", 3*time.Second)
	v.SetDefault("verification.request_timeout", 30*time.Second)
}

// LoadConfig resolves configuration from flags, environment variables and an
// optional config file already attached to v
func LoadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	BindEnv(v)

	fee, err := cast.ToInt64E(v.Get("contract.default_fee"))
	if err != nil {
		return nil, fmt.Errorf("invalid contract.default_fee: %w", err)
	}

	cfg := &Config{
		Network: strings.ToLower(strings.TrimSpace(v.GetString("network"))),
		Credentials: models.Credentials{
			RPCAPIKey:      v.GetString("credentials.rpc_api_key"),
			ExplorerAPIKey: v.GetString("credentials.explorer_api_key"),
			DeployerKey:    v.GetString("credentials.deployer_key"),
		},
		Contract: ContractConfig{
			Name:            v.GetString("contract.name"),
			ArtifactPath:    v.GetString("contract.artifact"),
			BuildInfoPath:   v.GetString("contract.build_info"),
			CompilerVersion: v.GetString("contract.compiler_version"),
			Factory:         v.GetString("contract.factory"),
			BaseAsset:       v.GetString("contract.base_asset"),
			DefaultFee:      fee,
		},
		Verification: VerificationConfig{
			SubmitRetries:    v.GetInt("verification.submit_retries"),
			SubmitRetryDelay: v.GetDuration("verification.submit_retry_delay"),
			PollRetries:      v.GetInt("verification.poll_retries"),
			PollInterval:     v.GetDuration("verification.poll_interval"),
			RequestTimeout:   v.GetDuration("verification.request_timeout"),
		},
	}

	if err := loadNetworks(v, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadNetworks merges networks from the config file over the built-in ones
func loadNetworks(v *viper.Viper, cfg *Config) error {
	cfg.Networks = DefaultNetworks()

	var fromFile map[string]NetworkConfig
	if err := v.UnmarshalKey("networks", &fromFile); err != nil {
		return fmt.Errorf("failed to parse networks: %w", err)
	}
	for name, n := range fromFile {
		name = strings.ToLower(name)
		base := cfg.Networks[name]
		if n.Name == "" {
			n.Name = name
		}
		if n.ChainID == 0 {
			n.ChainID = base.ChainID
		}
		if n.RPCURL == "" {
			n.RPCURL = base.RPCURL
		}
		if n.ExplorerAPIURL == "" {
			n.ExplorerAPIURL = base.ExplorerAPIURL
		}
		if n.ExplorerBrowserURL == "" {
			n.ExplorerBrowserURL = base.ExplorerBrowserURL
		}
		if n.ReceiptPollPeriod == 0 {
			n.ReceiptPollPeriod = base.ReceiptPollPeriod
		}
		cfg.Networks[name] = n
	}

	// <NETWORK>_RPC_URL overrides the endpoint of the selected network
	envKey := strings.ToUpper(strings.ReplaceAll(cfg.Network, "-", "_")) + "_RPC_URL"
	_ = v.BindEnv("rpc_url_override", envKey)
	if url := v.GetString("rpc_url_override"); url != "" {
		if n, ok := cfg.Networks[cfg.Network]; ok {
			n.RPCURL = url
			cfg.Networks[cfg.Network] = n
		}
	}

	return nil
}

// Validate checks the non-secret parts of the configuration. Credentials are
// checked by the preflight step so that a missing key is reported by name.
func (c *Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("network is required")
	}

	if _, ok := c.Networks[c.Network]; !ok {
		return fmt.Errorf("unknown network %q (known: %s)", c.Network, strings.Join(c.NetworkNames(), ", "))
	}

	if c.Contract.ArtifactPath == "" {
		return fmt.Errorf("contract artifact path is required")
	}

	if c.Contract.CompilerVersion == "" {
		return fmt.Errorf("compiler version is required")
	}

	if err := checkFee(c.Contract.DefaultFee); err != nil {
		return err
	}

	if c.Verification.SubmitRetries < 0 {
		return fmt.Errorf("invalid verification submit retries: %d", c.Verification.SubmitRetries)
	}

	if c.Verification.PollRetries < 0 {
		return fmt.Errorf("invalid verification poll retries: %d", c.Verification.PollRetries)
	}

	if c.Verification.SubmitRetryDelay < 0 {
		return fmt.Errorf("invalid verification submit retry delay: %s", c.Verification.SubmitRetryDelay)
	}

	if c.Verification.PollInterval <= 0 {
		return fmt.Errorf("invalid verification poll interval: %s", c.Verification.PollInterval)
	}

	return nil
}

// SelectedNetwork returns the configuration of the network chosen for this run
func (c *Config) SelectedNetwork() NetworkConfig {
	return c.Networks[c.Network]
}

// NetworkNames returns the configured network names, sorted
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiresRPCKey reports whether the endpoint URL embeds the provider key
func (n NetworkConfig) RequiresRPCKey() bool {
	return strings.Contains(n.RPCURL, RPCKeyPlaceholder)
}

// ResolveRPCURL substitutes the provider key into the endpoint URL
func (n NetworkConfig) ResolveRPCURL(rpcAPIKey string) string {
	return strings.ReplaceAll(n.RPCURL, RPCKeyPlaceholder, rpcAPIKey)
}

// Parameters builds the immutable constructor parameters for the selected network
func (c *Config) Parameters() (models.DeploymentParameters, error) {
	if !common.IsHexAddress(c.Contract.Factory) {
		return models.DeploymentParameters{}, fmt.Errorf("invalid factory address: %q", c.Contract.Factory)
	}
	if !common.IsHexAddress(c.Contract.BaseAsset) {
		return models.DeploymentParameters{}, fmt.Errorf("invalid base asset address: %q", c.Contract.BaseAsset)
	}

	if err := checkFee(c.Contract.DefaultFee); err != nil {
		return models.DeploymentParameters{}, err
	}

	params := models.DeploymentParameters{
		Network:    c.Network,
		Factory:    common.HexToAddress(c.Contract.Factory),
		BaseAsset:  common.HexToAddress(c.Contract.BaseAsset),
		DefaultFee: uint32(c.Contract.DefaultFee),
	}

	if params.Factory == (common.Address{}) {
		return models.DeploymentParameters{}, fmt.Errorf("factory address cannot be zero")
	}
	if params.BaseAsset == (common.Address{}) {
		return models.DeploymentParameters{}, fmt.Errorf("base asset address cannot be zero")
	}
	return params, nil
}

// checkFee rejects a zero fee and fees that do not fit in uint24
func checkFee(fee int64) error {
	if fee <= 0 || fee > maxUint24 {
		return fmt.Errorf("default fee %d is outside the uint24 fee range 1..%d", fee, maxUint24)
	}
	return nil
}

// ExplorerCodeURL returns the explorer page for a contract's source, or "" when
// the network has no public explorer
func (n NetworkConfig) ExplorerCodeURL(address string) string {
	if n.ExplorerBrowserURL == "" {
		return ""
	}
	return strings.TrimRight(n.ExplorerBrowserURL, "/") + "/address/" + address + "#code"
}

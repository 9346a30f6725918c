package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"crosspool-oracle/deployer/internal/artifact"
	"crosspool-oracle/deployer/internal/blockchain/evm"
	"crosspool-oracle/deployer/internal/config"
	"crosspool-oracle/deployer/internal/etherscan"
	"crosspool-oracle/deployer/internal/pipeline"
	"crosspool-oracle/deployer/internal/prompt"
)

// Version is set at build time.
var Version = "dev"

// app carries what every command needs once flags are parsed
type app struct {
	v        *viper.Viper
	logger   *zap.Logger
	cfgFile  string
	exitCode int
}

func execute(logger *zap.Logger) int {
	a := &app{v: viper.New(), logger: logger}

	root := a.rootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return pipeline.ExitFailure
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "deploy-oracle",
		Short: "Deploy and verify the UniswapV3CrossPoolOracle contract",
		Long: `deploy-oracle deploys UniswapV3CrossPoolOracle to the selected network
after an interactive confirmation, then publishes its source on Etherscan.

Configuration (in order of priority):
  1. Command-line flags (--network)
  2. Environment variables (DEPLOY_NETWORK, INFURA_API_KEY, ETHERSCAN_API_KEY,
     DEPLOYER_PRIVATE_KEY, ORACLE_ARTIFACT, ORACLE_BUILD_INFO, <NETWORK>_RPC_URL)
  3. Config file (--config, or ./deploy.yaml)

Exit status is 0 on success or when the deployment is declined, 2 when the
contract was deployed but could not be verified, and 1 otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.readConfigFile()
		},
		RunE: a.runDeploy,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./deploy.yaml)")
	root.PersistentFlags().String("network", "", "network to deploy to (or DEPLOY_NETWORK)")
	_ = a.v.BindPFlag("network", root.PersistentFlags().Lookup("network"))

	root.AddCommand(a.verifyCommand(), versionCommand())
	return root
}

func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <address>",
		Short: "Verify the source of an already deployed oracle",
		Long: `verify publishes the source of an oracle deployed by an earlier run whose
verification step failed. No transaction is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runVerify,
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("deploy-oracle version %s\n", Version)
		},
	}
}

func (a *app) readConfigFile() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", a.cfgFile, err)
		}
		return nil
	}

	a.v.SetConfigName("deploy")
	a.v.SetConfigType("yaml")
	a.v.AddConfigPath(".")
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// components are built before preflight. Nothing here touches the network.
type components struct {
	cfg      *config.Config
	deployer *evm.Deployer
	verifier *etherscan.Verifier
}

func (a *app) build() (*components, error) {
	cfg, err := config.LoadConfig(a.v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a.logger.Info("Configuration loaded",
		zap.String("network", cfg.Network),
		zap.String("artifact", cfg.Contract.ArtifactPath),
		zap.String("build_info", cfg.Contract.BuildInfoPath))

	contract, err := artifact.LoadArtifact(cfg.Contract.ArtifactPath)
	if err != nil {
		return nil, err
	}
	if contract.ContractName != cfg.Contract.Name {
		return nil, fmt.Errorf("artifact %s holds %s, expected %s", cfg.Contract.ArtifactPath, contract.ContractName, cfg.Contract.Name)
	}

	if cfg.Contract.BuildInfoPath == "" {
		return nil, fmt.Errorf("contract build info path is required (ORACLE_BUILD_INFO)")
	}
	buildInfo, err := artifact.LoadBuildInfo(cfg.Contract.BuildInfoPath)
	if err != nil {
		return nil, err
	}
	if err := buildInfo.CheckCompilerVersion(cfg.Contract.CompilerVersion); err != nil {
		return nil, err
	}

	network := cfg.SelectedNetwork()
	explorer := etherscan.NewClient(network.ExplorerAPIURL, cfg.Credentials.ExplorerAPIKey, network.ChainID,
		cfg.Verification.RequestTimeout, a.logger)

	return &components{
		cfg:      cfg,
		deployer: evm.NewDeployer(network, cfg.Credentials, contract, a.logger),
		verifier: etherscan.NewVerifier(explorer, contract, buildInfo, cfg.Verification, a.logger),
	}, nil
}

func (a *app) runDeploy(cmd *cobra.Command, args []string) error {
	c, err := a.build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.NewPipeline(c.cfg, pipeline.Dependencies{
		Prompter: prompt.NewTerminal(os.Stdin, os.Stdout),
		Executor: c.deployer,
		Verifier: c.verifier,
	}, os.Stdout, a.logger)

	a.finish(p.Run(ctx))
	return nil
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid contract address: %q", args[0])
	}
	address := common.HexToAddress(args[0])

	c, err := a.build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.NewPipeline(c.cfg, pipeline.Dependencies{
		Verifier: c.verifier,
	}, os.Stdout, a.logger)

	a.finish(p.RunVerifyOnly(ctx, address, c.deployer))
	return nil
}

func (a *app) finish(outcome pipeline.Outcome) {
	a.exitCode = pipeline.ExitCode(outcome)

	fields := []zap.Field{zap.String("state", string(outcome.State)), zap.Int("exit_code", a.exitCode)}
	if outcome.Result != nil {
		fields = append(fields, zap.String("address", outcome.Result.Address.Hex()))
	}
	a.logger.Info("Run finished", fields...)

	if a.exitCode != pipeline.ExitOK {
		fmt.Fprintf(os.Stderr, "Error: %v\n", outcome.Err)
	}
}

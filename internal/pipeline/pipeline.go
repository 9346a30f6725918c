// Package pipeline drives a single deployment run: preflight, operator
// confirmation, deployment and source verification.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"crosspool-oracle/deployer/internal/config"
	"crosspool-oracle/deployer/internal/models"
)

// Prompter asks the operator for a yes/no answer
type Prompter interface {
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// Executor deploys the contract
type Executor interface {
	Deploy(ctx context.Context, params models.DeploymentParameters) (*models.DeploymentResult, error)
}

// Verifier publishes the source of a deployed contract
type Verifier interface {
	Verify(ctx context.Context, result *models.DeploymentResult, params models.DeploymentParameters) error
}

// DeploymentLookup finds a contract that is already deployed
type DeploymentLookup interface {
	Lookup(ctx context.Context, address common.Address) (*models.DeploymentResult, error)
}

// Dependencies are the collaborators a Pipeline drives
type Dependencies struct {
	Prompter Prompter
	Executor Executor
	Verifier Verifier
}

// Outcome is the terminal state of a run. Result is set whenever the
// contract reached the chain, including when verification failed.
type Outcome struct {
	State  models.RunState
	Result *models.DeploymentResult
	Err    error
}

// Pipeline runs one deployment. It holds no state between runs.
type Pipeline struct {
	cfg    *config.Config
	deps   Dependencies
	out    io.Writer
	logger *zap.Logger
}

// NewPipeline creates a new Pipeline writing operator messages to out
func NewPipeline(cfg *config.Config, deps Dependencies, out io.Writer, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		out:    out,
		logger: logger.Named("pipeline"),
	}
}

// Run executes the pipeline once. Every call that passes the confirmation
// gate submits a new contract-creation transaction.
func (p *Pipeline) Run(ctx context.Context) Outcome {
	p.printf("Connecting to %s...\n", p.cfg.Network)

	params, err := Preflight(p.cfg)
	if err != nil {
		p.logger.Error("Preflight failed", zap.Error(err))
		return Outcome{State: models.RunStatePreflightFailed, Err: err}
	}
	p.logger.Debug("Preflight passed", zap.String("network", params.Network))

	p.printSummary(params)

	confirmed, err := p.deps.Prompter.Confirm(ctx, "Proceed?", false)
	if err != nil {
		p.logger.Error("Failed to read confirmation", zap.Error(err))
		return Outcome{State: models.RunStateConfirmationDenied, Err: fmt.Errorf("failed to read confirmation: %w", err)}
	}
	if !confirmed {
		p.printf("Aborting...\n")
		p.logger.Info("Deployment declined by operator")
		return Outcome{State: models.RunStateConfirmationDenied, Err: ErrConfirmationDenied}
	}

	p.printf("Deploying...\n")
	result, err := p.deploy(ctx, params)
	if err != nil {
		p.logger.Error("Deployment failed", zap.Error(err))
		return Outcome{State: models.RunStateDeploymentFailed, Err: err}
	}
	p.printf("Deployed to address: %s\n", result.Address.Hex())

	return p.verify(ctx, result, params)
}

// RunVerifyOnly verifies a contract deployed by an earlier run
func (p *Pipeline) RunVerifyOnly(ctx context.Context, address common.Address, lookup DeploymentLookup) Outcome {
	p.printf("Connecting to %s...\n", p.cfg.Network)

	params, err := PreflightVerify(p.cfg)
	if err != nil {
		p.logger.Error("Preflight failed", zap.Error(err))
		return Outcome{State: models.RunStatePreflightFailed, Err: err}
	}

	result, err := lookup.Lookup(ctx, address)
	if err != nil {
		p.logger.Error("Contract lookup failed", zap.String("address", address.Hex()), zap.Error(err))
		return Outcome{State: models.RunStateDeploymentFailed, Err: fmt.Errorf("failed to find deployment: %w", err)}
	}
	if result == nil {
		return Outcome{State: models.RunStateDeploymentFailed, Err: fmt.Errorf("no deployment found at %s", address.Hex())}
	}

	return p.verify(ctx, result, params)
}

func (p *Pipeline) deploy(ctx context.Context, params models.DeploymentParameters) (*models.DeploymentResult, error) {
	result, err := p.deps.Executor.Deploy(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no deployment result returned", ErrDeploymentFailed)
	}
	return result, nil
}

func (p *Pipeline) verify(ctx context.Context, result *models.DeploymentResult, params models.DeploymentParameters) Outcome {
	p.printf("Verifying on Etherscan...\n")

	if err := p.deps.Verifier.Verify(ctx, result, params); err != nil {
		p.logger.Error("Verification failed",
			zap.String("address", result.Address.Hex()),
			zap.Error(err))
		p.printf("Contract is deployed at %s but not verified. Retry with: verify %s\n",
			result.Address.Hex(), result.Address.Hex())
		return Outcome{
			State:  models.RunStateVerificationFailed,
			Result: result,
			Err:    fmt.Errorf("%w: %w", ErrVerificationFailed, err),
		}
	}

	if link := p.cfg.SelectedNetwork().ExplorerCodeURL(result.Address.Hex()); link != "" {
		p.printf("%s\n", link)
	}
	p.printf("All done :)\n")

	return Outcome{State: models.RunStateVerified, Result: result}
}

func (p *Pipeline) printSummary(params models.DeploymentParameters) {
	network := p.cfg.SelectedNetwork()
	p.printf("Network:      %s (chain %d)\n", params.Network, network.ChainID)
	p.printf("Contract:     %s\n", p.cfg.Contract.Name)
	p.printf("Factory:      %s\n", params.Factory.Hex())
	p.printf("Base asset:   %s\n", params.BaseAsset.Hex())
	p.printf("Default fee:  %d\n", params.DefaultFee)
}

func (p *Pipeline) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

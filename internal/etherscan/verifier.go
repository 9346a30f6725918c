package etherscan

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.uber.org/zap"

	"crosspool-oracle/deployer/internal/artifact"
	"crosspool-oracle/deployer/internal/config"
	"crosspool-oracle/deployer/internal/models"
)

// Verifier registers a deployed contract's source with the explorer
type Verifier struct {
	client    *Client
	contract  *artifact.Artifact
	buildInfo *artifact.BuildInfo
	cfg       config.VerificationConfig
	logger    *zap.Logger
}

// NewVerifier creates a new Verifier
func NewVerifier(client *Client, contract *artifact.Artifact, buildInfo *artifact.BuildInfo, cfg config.VerificationConfig, logger *zap.Logger) *Verifier {
	return &Verifier{
		client:    client,
		contract:  contract,
		buildInfo: buildInfo,
		cfg:       cfg,
		logger:    logger.Named("verifier"),
	}
}

// Verify submits the contract at result.Address with the constructor
// arguments from params and waits for the explorer's verdict
func (v *Verifier) Verify(ctx context.Context, result *models.DeploymentResult, params models.DeploymentParameters) error {
	if result == nil {
		return fmt.Errorf("no deployment to verify")
	}

	args, err := v.contract.PackConstructor(params.ConstructorArgs()...)
	if err != nil {
		return err
	}

	req := SourceRequest{
		Address:         result.Address,
		SourceCode:      string(v.buildInfo.Input),
		ContractName:    v.contract.FullyQualifiedName(),
		CompilerVersion: v.buildInfo.ExplorerCompilerVersion(),
		ConstructorArgs: hex.EncodeToString(args),
	}

	guid, err := v.submit(ctx, req)
	if errors.Is(err, ErrAlreadyVerified) {
		v.logger.Info("Contract already verified", zap.String("address", result.Address.Hex()))
		return nil
	}
	if err != nil {
		return err
	}

	if err := v.waitForVerdict(ctx, guid); err != nil {
		return err
	}

	v.logger.Info("Contract verified",
		zap.String("address", result.Address.Hex()),
		zap.String("guid", guid))
	return nil
}

// submit retries while the explorer has not indexed the new bytecode or rate-limits us
func (v *Verifier) submit(ctx context.Context, req SourceRequest) (string, error) {
	policy := retrypolicy.NewBuilder[string]().
		HandleIf(func(_ string, err error) bool {
			return errors.Is(err, ErrBytecodeNotIndexed) || errors.Is(err, ErrRateLimited)
		}).
		WithMaxRetries(v.cfg.SubmitRetries).
		WithDelay(v.cfg.SubmitRetryDelay).
		ReturnLastFailure().
		OnRetry(func(event failsafe.ExecutionEvent[string]) {
			v.logger.Info("Retrying verification submission",
				zap.Int("attempt", event.Attempts()),
				zap.Error(event.LastError()))
		}).
		Build()

	guid, err := failsafe.With[string](policy).WithContext(ctx).Get(func() (string, error) {
		return v.client.SubmitSource(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit source for %s: %w", req.Address.Hex(), err)
	}
	return guid, nil
}

// waitForVerdict polls the submission until it passes, fails, or polling gives up
func (v *Verifier) waitForVerdict(ctx context.Context, guid string) error {
	policy := retrypolicy.NewBuilder[any]().
		HandleIf(func(_ any, err error) bool {
			return errors.Is(err, ErrPending) || errors.Is(err, ErrRateLimited)
		}).
		WithMaxRetries(v.cfg.PollRetries).
		WithDelay(v.cfg.PollInterval).
		ReturnLastFailure().
		Build()

	err := failsafe.With[any](policy).WithContext(ctx).Run(func() error {
		return v.client.CheckStatus(ctx, guid)
	})
	if errors.Is(err, ErrPending) {
		return fmt.Errorf("verification %s still pending after %d checks: %w", guid, v.cfg.PollRetries+1, err)
	}
	return err
}

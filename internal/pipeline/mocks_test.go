package pipeline

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"crosspool-oracle/deployer/internal/models"
)

type mockPrompter struct{ mock.Mock }

func (m *mockPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	args := m.Called(ctx, message, def)
	return args.Bool(0), args.Error(1)
}

type mockExecutor struct{ mock.Mock }

func (m *mockExecutor) Deploy(ctx context.Context, params models.DeploymentParameters) (*models.DeploymentResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*models.DeploymentResult)
	return result, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, result *models.DeploymentResult, params models.DeploymentParameters) error {
	args := m.Called(ctx, result, params)
	return args.Error(0)
}

type mockLookup struct{ mock.Mock }

func (m *mockLookup) Lookup(ctx context.Context, address common.Address) (*models.DeploymentResult, error) {
	args := m.Called(ctx, address)
	result, _ := args.Get(0).(*models.DeploymentResult)
	return result, args.Error(1)
}

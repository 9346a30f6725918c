package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp() *app {
	return &app{v: viper.New(), logger: zap.NewNop()}
}

func TestVerifyRejectsInvalidAddress(t *testing.T) {
	a := newTestApp()
	root := a.rootCommand()
	root.SetArgs([]string{"verify", "0x1234"})

	err := root.Execute()
	assert.ErrorContains(t, err, "invalid contract address")
}

func TestVerifyRequiresAddress(t *testing.T) {
	a := newTestApp()
	root := a.rootCommand()
	root.SetArgs([]string{"verify"})

	assert.Error(t, root.Execute())
}

func TestNetworkFlagBindsToConfig(t *testing.T) {
	a := newTestApp()
	root := a.rootCommand()
	require.NoError(t, root.PersistentFlags().Set("network", "mainnet"))

	assert.Equal(t, "mainnet", a.v.GetString("network"))
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	a := newTestApp()
	a.cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.ErrorContains(t, a.readConfigFile(), "failed to read config file")
}

func TestExplicitConfigFileIsRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: mainnet\n"), 0o600))

	a := newTestApp()
	a.cfgFile = path

	require.NoError(t, a.readConfigFile())
	assert.Equal(t, "mainnet", a.v.GetString("network"))
}

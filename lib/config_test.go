package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	// calculate expected
	expected := Config{
		MainConfig:       DefaultMainConfig(),
		RPCConfig:        DefaultRPCConfig(),
		StoreConfig:      DefaultStoreConfig(),
		MempoolConfig:    DefaultMempoolConfig(),
		MetricsConfig:    DefaultMetricsConfig(),
		GovernanceConfig: DefaultGovernanceConfig(),
	}
	// execute the function call
	got := DefaultConfig()
	// compare got vs expected
	diff := cmp.Diff(expected, got)
	require.Empty(t, diff, "config mismatch: %s", diff)
}

func TestFileConfig(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), ConfigFilePath)
	// define a variable to test upon
	config := DefaultConfig()
	config.GenesisValidators = []string{"02aa"}
	// write to file
	require.NoError(t, config.WriteToFile(filePath))
	// read from file
	got, err := NewConfigFromFile(filePath)
	require.NoError(t, err)
	// compare got vs expected
	require.Equal(t, config, got)
}

func TestFileConfigFillsDefaults(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), ConfigFilePath)
	// only override the period
	require.NoError(t, os.WriteFile(filePath, []byte(`{"periodLength": 100}`), os.ModePerm))
	got, err := NewConfigFromFile(filePath)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.PeriodLength = 100
	require.Empty(t, cmp.Diff(expected, got))
}

func TestApplyEnv(t *testing.T) {
	dataDir := t.TempDir()
	// write a dot env file
	env := EnvLogLevel + "=warn\n" + EnvDBBackend + "=LevelDB\n" + EnvInMemory + "=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, EnvFilePath), []byte(env), os.ModePerm))
	// a process variable wins over the file
	t.Setenv(EnvRPCPort, "6000")
	// godotenv.Load mutates the process env; clean those keys up afterwards
	for _, k := range []string{EnvLogLevel, EnvDBBackend, EnvInMemory} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	c := DefaultConfig()
	require.NoError(t, c.ApplyEnv(dataDir))
	require.Equal(t, "warn", c.LogLevel)
	require.Equal(t, WarnLevel, c.GetLogLevel())
	require.Equal(t, LevelDBBackend, c.Backend)
	require.True(t, c.InMemory)
	require.Equal(t, "6000", c.RPCPort)
	require.Equal(t, "http://localhost:6000", c.RPCUrl)
}

func TestApplyEnvMissingFile(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.ApplyEnv(t.TempDir()))
	require.Equal(t, DefaultConfig(), c)
}

func TestGovernanceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		detail  string
		modify  func(g *GovernanceConfig)
		isError bool
	}{
		{
			name:   "default",
			detail: "the default layout is valid",
			modify: func(g *GovernanceConfig) {},
		},
		{
			name:    "zero period",
			detail:  "a zero period cannot be reduced modulo",
			modify:  func(g *GovernanceConfig) { g.PeriodLength = 0 },
			isError: true,
		},
		{
			name:    "empty registration",
			detail:  "registration must stay open at least one block",
			modify:  func(g *GovernanceConfig) { g.RegistrationLength = 0 },
			isError: true,
		},
		{
			name:    "voting overlaps registration",
			detail:  "voting cannot open before registration closes",
			modify:  func(g *GovernanceConfig) { g.VotingStart = 10 },
			isError: true,
		},
		{
			name:    "settle overlaps voting",
			detail:  "the settle window cannot start while voting is open",
			modify:  func(g *GovernanceConfig) { g.SettleStart = 50 },
			isError: true,
		},
		{
			name:    "settle beyond period",
			detail:  "every window must fit in one period",
			modify:  func(g *GovernanceConfig) { g.SettleStart = 81 },
			isError: true,
		},
		{
			name:    "zero threshold",
			detail:  "a zero threshold would activate every candidate",
			modify:  func(g *GovernanceConfig) { g.ActivationThreshold = 0 },
			isError: true,
		},
		{
			name:    "bad genesis validator",
			detail:  "genesis validators must be hex",
			modify:  func(g *GovernanceConfig) { g.GenesisValidators = []string{"zz"} },
			isError: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := DefaultGovernanceConfig()
			test.modify(&g)
			err := g.Validate()
			require.Equal(t, test.isError, err != nil, err)
			if test.isError {
				require.Equal(t, CodeInvalidConfig, err.Code())
			}
		})
	}
}

package lib

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/units"
	"github.com/joho/godotenv"
)

/* This file implements the 'user controlled' configuration of each module of the node */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the node configuration
	EnvFilePath    = ".env"        // optional environment overrides

	// ENVIRONMENT OVERRIDES
	EnvLogLevel  = "MNV_LOG_LEVEL"
	EnvRPCPort   = "MNV_RPC_PORT"
	EnvDBBackend = "MNV_DB_BACKEND"
	EnvInMemory  = "MNV_IN_MEMORY"

	// STORE BACKENDS
	BadgerBackend  = "badger"
	LevelDBBackend = "leveldb"
)

// Config is the structure of the user configuration options for a masternode validator node
type Config struct {
	MainConfig       // main options spanning over all modules
	RPCConfig        // rpc API options
	StoreConfig      // persistence options
	MempoolConfig    // mempool options
	MetricsConfig    // telemetry options
	GovernanceConfig // validator lifecycle options
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:       DefaultMainConfig(),
		RPCConfig:        DefaultRPCConfig(),
		StoreConfig:      DefaultStoreConfig(),
		MempoolConfig:    DefaultMempoolConfig(),
		MetricsConfig:    DefaultMetricsConfig(),
		GovernanceConfig: DefaultGovernanceConfig(),
	}
}

// MAIN CONFIG BELOW

type MainConfig struct {
	LogLevel string `json:"logLevel"` // any level includes the levels above it: debug < info < warning < error
}

// DefaultMainConfig() sets log level to 'info'
func DefaultMainConfig() MainConfig {
	return MainConfig{LogLevel: "info"}
}

// GetLogLevel() parses the log string in the config file into a LogLevel Enum
func (m *MainConfig) GetLogLevel() int32 { return ParseLogLevel(m.LogLevel) }

// RPC CONFIG BELOW

type RPCConfig struct {
	RPCPort        string `json:"rpcPort"`        // the port where the rpc server is hosted
	RPCUrl         string `json:"rpcURL"`         // the url where the rpc server is hosted
	TimeoutS       int    `json:"timeoutS"`       // the rpc request timeout in seconds
	MaxConnections int    `json:"maxConnections"` // the maximum simultaneous rpc connections
}

// DefaultRPCConfig() serves the rpc on localhost:50002
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		RPCPort:        "50002",
		RPCUrl:         "http://localhost:50002",
		TimeoutS:       3,
		MaxConnections: 64,
	}
}

// STORE CONFIG BELOW

// StoreConfig is user configurations for the key value database
type StoreConfig struct {
	DataDirPath string `json:"dataDirPath"` // path of the designated folder where the application stores its data
	DBName      string `json:"dbName"`      // name of the database
	Backend     string `json:"backend"`     // 'badger' or 'leveldb'
	InMemory    bool   `json:"inMemory"`    // non-disk database, only for testing
}

// DefaultDataDirPath() is $USERHOME/.mnvalidator
func DefaultDataDirPath() string {
	// get the user home
	home, err := os.UserHomeDir()
	// if unable to get the user home
	if err != nil {
		// fatal error
		panic(err)
	}
	// exit with full default data directory path
	return filepath.Join(home, ".mnvalidator")
}

// DefaultStoreConfig() returns the developer recommended store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDirPath: DefaultDataDirPath(),
		DBName:      "mnvalidator",
		Backend:     BadgerBackend,
		InMemory:    false,
	}
}

// MEMPOOL CONFIG BELOW

// MempoolConfig is the user configuration of the unconfirmed transaction pool
type MempoolConfig struct {
	MaxTotalBytes       uint64 `json:"maxTotalBytes"`       // maximum collective bytes in the pool
	MaxTransactionCount uint32 `json:"maxTransactionCount"` // max number of transactions
	IndividualMaxTxSize uint32 `json:"individualMaxTxSize"` // max bytes of a single transaction
	MaxBlockBytes       uint64 `json:"maxBlockBytes"`       // max collective transaction bytes per assembled block
}

// DefaultMempoolConfig() returns the developer created Mempool options
func DefaultMempoolConfig() MempoolConfig {
	return MempoolConfig{
		MaxTotalBytes:       uint64(2 * units.MB),
		IndividualMaxTxSize: uint32(16 * units.Kilobyte), // vote txs grow with the number of entries
		MaxTransactionCount: 5000,
		MaxBlockBytes:       uint64(units.MB),
	}
}

// METRICS CONFIG BELOW

// MetricsConfig represents the configuration for the metrics server
type MetricsConfig struct {
	Enabled           bool   `json:"enabled"`           // if the metrics are enabled
	PrometheusAddress string `json:"prometheusAddress"` // the address of the server
}

// DefaultMetricsConfig() returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:           true,
		PrometheusAddress: "0.0.0.0:9090",
	}
}

// GOVERNANCE CONFIG BELOW

// GovernanceConfig lays out the validator lifecycle cycle
// All window bounds are offsets from the start of a cycle:
//
//	[0, RegistrationLength)                    registration open
//	[RegistrationLength, VotingStart)          registration closed
//	[VotingStart, VotingStart+VotingLength)    voting open
//	[VotingStart+VotingLength, SettleStart)    voting closed
//	[SettleStart, PeriodLength)                settled
type GovernanceConfig struct {
	StartHeight         uint64   `json:"startHeight"`         // the first cycle starts here, heights below are dormant
	PeriodLength        uint64   `json:"periodLength"`        // the number of blocks in one cycle
	RegistrationLength  uint64   `json:"registrationLength"`  // blocks the registration window stays open
	VotingStart         uint64   `json:"votingStart"`         // cycle offset where voting opens
	VotingLength        uint64   `json:"votingLength"`        // blocks the voting window stays open
	SettleStart         uint64   `json:"settleStart"`         // cycle offset where the settle window begins
	ActivationThreshold uint64   `json:"activationThreshold"` // confirmed yes votes needed to become active
	GenesisValidators   []string `json:"genesisValidators"`   // hex public keys active from height 0
}

// DefaultGovernanceConfig() returns the regtest cycle
func DefaultGovernanceConfig() GovernanceConfig {
	return GovernanceConfig{
		StartHeight:         80,
		PeriodLength:        80,
		RegistrationLength:  20,
		VotingStart:         40,
		VotingLength:        20,
		SettleStart:         70,
		ActivationThreshold: 1,
	}
}

// Validate() ensures the windows are non-empty, ordered and fit inside one period
func (g *GovernanceConfig) Validate() ErrorI {
	switch {
	case g.PeriodLength == 0:
		return ErrInvalidConfig("periodLength must be greater than 0")
	case g.RegistrationLength == 0:
		return ErrInvalidConfig("registrationLength must be greater than 0")
	case g.VotingLength == 0:
		return ErrInvalidConfig("votingLength must be greater than 0")
	case g.VotingStart < g.RegistrationLength:
		return ErrInvalidConfig("votingStart overlaps the registration window")
	case g.SettleStart < g.VotingStart+g.VotingLength:
		return ErrInvalidConfig("settleStart overlaps the voting window")
	case g.SettleStart > g.PeriodLength:
		return ErrInvalidConfig("settleStart exceeds periodLength")
	case g.ActivationThreshold == 0:
		return ErrInvalidConfig("activationThreshold must be greater than 0")
	}
	// ensure every genesis validator is well-formed hex
	for _, v := range g.GenesisValidators {
		if _, err := StringToBytes(v); err != nil {
			return ErrInvalidConfig(fmt.Sprintf("genesis validator %q is not hex", v))
		}
	}
	return nil
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filepath string) error {
	// convert the config to indented 'pretty' json bytes
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	// if an error occurred during the conversion
	if err != nil {
		// exit with error
		return err
	}
	// write the config.json file to the data directory
	return os.WriteFile(filepath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a Config object from a JSON file
func NewConfigFromFile(filepath string) (Config, error) {
	// read the file into bytes
	fileBytes, err := os.ReadFile(filepath)
	// if an error occurred
	if err != nil {
		// exit with error
		return Config{}, err
	}
	// define the default config to fill in any blanks in the file
	c := DefaultConfig()
	// populate the default config with the file bytes
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		// exit with error
		return Config{}, err
	}
	// exit
	return c, nil
}

// ApplyEnv() loads '<dataDir>/.env' (if present) into the process environment and applies any MNV_* overrides
// Variables already set in the process environment win over the file
func (c *Config) ApplyEnv(dataDirPath string) error {
	envPath := filepath.Join(dataDirPath, EnvFilePath)
	// load the dot env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err = godotenv.Load(envPath); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvRPCPort); ok {
		c.RPCPort = v
		c.RPCUrl = "http://localhost:" + v
	}
	if v, ok := os.LookupEnv(EnvDBBackend); ok {
		c.Backend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvInMemory); ok {
		inMemory, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInMemory, err)
		}
		c.InMemory = inMemory
	}
	return nil
}

package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	"github.com/forgenet/forged/chaincfg"
	"github.com/forgenet/forged/forging"
	"github.com/forgenet/forged/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "forged.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"

	// DefaultLogFilename is the name of the main log file.
	DefaultLogFilename = "forged.log"

	// DefaultErrLogFilename is the name of the error log file.
	DefaultErrLogFilename = "forged_err.log"
)

var (
	// DefaultHomeDir is the default home directory for forged.
	DefaultHomeDir = btcutil.AppDataDir("forged", false)

	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Flags defines the configuration options for forged.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion        bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile         string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir            string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir             string `long:"logdir" description:"Directory to log output"`
	DebugLevel         string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	Testnet            bool   `long:"testnet" description:"Use the test network"`
	Simnet             bool   `long:"simnet" description:"Use the simulation test network"`
	ForgingForce       bool   `long:"forgingforce" description:"Enable forging with the configured encrypted secrets"`
	ForgingSecretsFile string `long:"forgingsecrets" description:"Path to the encrypted forging secrets JSON file"`
	ForgingPassword    string `long:"forgingpassword" default-mask:"-" description:"Password the forging secrets are sealed under"`
}

// Config is the resolved node configuration: parsed flags plus the
// selected network parameters and the decoded forging secrets.
type Config struct {
	*Flags
	ActiveNetParams *chaincfg.Params
	ForgingSecrets  []*forging.EncryptedEntry
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfgFlags := defaultFlags()
	parser := flags.NewParser(cfgFlags, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	if fileExists(cfgFlags.ConfigFile) {
		err = flags.NewIniParser(parser).ParseFile(cfgFlags.ConfigFile)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s",
				cfgFlags.ConfigFile)
		}
		// CLI options take precedence over the config file.
		_, err = parser.Parse()
		if err != nil {
			return nil, err
		}
	} else if cfgFlags.ConfigFile != defaultConfigFile {
		return nil, errors.Errorf("config file %s does not exist", cfgFlags.ConfigFile)
	}

	cfg := &Config{Flags: cfgFlags}
	if err := cfg.resolveNetwork(); err != nil {
		return nil, err
	}

	// Per-network home directories keep simnet and testnet state apart.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.ActiveNetParams.Name)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.ActiveNetParams.Name)
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create data directory")
	}

	if _, ok := logger.LevelFromString(cfg.DebugLevel); !ok {
		return nil, errors.Errorf("the specified debug level [%s] is invalid",
			cfg.DebugLevel)
	}

	if err := cfg.loadForgingSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveNetwork maps the network flags to the active net params,
// rejecting ambiguous selections.
func (cfg *Config) resolveNetwork() error {
	numNets := 0
	cfg.ActiveNetParams = &chaincfg.MainnetParams
	if cfg.Testnet {
		numNets++
		cfg.ActiveNetParams = &chaincfg.TestnetParams
	}
	if cfg.Simnet {
		numNets++
		cfg.ActiveNetParams = &chaincfg.SimnetParams
	}
	if numNets > 1 {
		return errors.New("the testnet and simnet params can't be used together -- choose one of them")
	}
	return nil
}

// loadForgingSecrets decodes the encrypted forging entries when a
// secrets file is configured.
func (cfg *Config) loadForgingSecrets() error {
	if cfg.ForgingSecretsFile == "" {
		return nil
	}
	serialized, err := ioutil.ReadFile(cfg.ForgingSecretsFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read forging secrets file %s",
			cfg.ForgingSecretsFile)
	}
	if err := json.Unmarshal(serialized, &cfg.ForgingSecrets); err != nil {
		return errors.Wrapf(err, "failed to parse forging secrets file %s",
			cfg.ForgingSecretsFile)
	}
	return nil
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

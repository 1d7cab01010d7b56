// Package config enables config file parsing.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/litentry/enclave-client/log"
)

// EnvPrefix prefixes environment variables that override the config file.
const EnvPrefix = "ENCLAVE_CLIENT__"

// Config contains the CLI configuration.
type Config struct {
	Enclave *EnclaveConfig `koanf:"enclave"`
	Chain   *ChainConfig   `koanf:"chain"`
	Log     *LogConfig     `koanf:"log"`
	Metrics *MetricsConfig `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Enclave == nil {
		return fmt.Errorf("enclave: not configured")
	}
	if err := cfg.Enclave.Validate(); err != nil {
		return fmt.Errorf("enclave: %w", err)
	}
	if cfg.Chain == nil {
		return fmt.Errorf("chain: not configured")
	}
	if err := cfg.Chain.Validate(); err != nil {
		return fmt.Errorf("chain: %w", err)
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// EnclaveConfig is the configuration for reaching the enclave worker.
type EnclaveConfig struct {
	// Endpoint is the ws:// or wss:// URL of the worker's direct RPC.
	Endpoint string `koanf:"endpoint"`

	// RequestTimeout bounds each request, from dial to the final frame.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// StrictFrames fails a request on malformed or uncorrelated frames
	// instead of skipping them.
	StrictFrames bool `koanf:"strict_frames"`
}

// Validate validates the enclave configuration.
func (cfg *EnclaveConfig) Validate() error {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("malformed enclave endpoint '%s'", cfg.Endpoint)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return nil
}

// WorkerType selects which registered enclaves to talk to.
type WorkerType uint8

const (
	// WorkerIdentity is the identity hub worker.
	WorkerIdentity WorkerType = iota
	// WorkerBitAcross is the bridge worker.
	WorkerBitAcross
)

// String returns the string representation of a WorkerType.
func (wt *WorkerType) String() string {
	switch *wt {
	case WorkerIdentity:
		return "identity"
	case WorkerBitAcross:
		return "bitacross"
	default:
		panic("config: unsupported worker type")
	}
}

// Set sets the WorkerType to the value specified by the provided string.
func (wt *WorkerType) Set(s string) error {
	switch strings.ToLower(s) {
	case "", "identity":
		*wt = WorkerIdentity
	case "bitacross":
		*wt = WorkerBitAcross
	default:
		return fmt.Errorf("config: invalid worker type: '%s'", s)
	}
	return nil
}

// Type returns the list of supported WorkerTypes.
func (wt *WorkerType) Type() string {
	return "[identity,bitacross]"
}

// ChainConfig is the configuration for reading enclave registrations.
type ChainConfig struct {
	// RPC is the parachain node's JSON-RPC endpoint.
	RPC string `koanf:"rpc"`

	// WorkerType is the registered worker type, "identity" by default.
	WorkerType string `koanf:"worker_type"`
}

// Validate validates the chain configuration.
func (cfg *ChainConfig) Validate() error {
	if cfg.RPC == "" {
		return fmt.Errorf("malformed chain rpc endpoint '%s'", cfg.RPC)
	}
	var wt WorkerType
	return wt.Set(cfg.WorkerType)
}

// ResolvedWorkerType returns the parsed worker type.
func (cfg *ChainConfig) ResolvedWorkerType() WorkerType {
	var wt WorkerType
	_ = wt.Set(cfg.WorkerType)
	return wt
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	return initConfig(file.Provider(f))
}

func initConfig(p koanf.Provider) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

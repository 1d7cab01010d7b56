// Package common implements common enclave-client command options.
package common

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/litentry/enclave-client/chain"
	"github.com/litentry/enclave-client/client"
	"github.com/litentry/enclave-client/config"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/metrics"
	"github.com/litentry/enclave-client/shielding"
	"github.com/litentry/enclave-client/transport"
)

var rootLogger = log.NewDefaultLogger("enclave-client")

// Init initializes the common environment. The metrics pull service, if
// configured, runs until ctx is canceled.
func Init(ctx context.Context, cfg *config.Config) error {
	var w io.Writer = os.Stdout
	format := log.FmtJSON
	level := log.LevelInfo

	if cfg.Log != nil {
		var err error
		if w, err = getLoggingStream(cfg.Log); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		if err := format.Set(cfg.Log.Format); err != nil {
			return err
		}
		if err := level.Set(cfg.Log.Level); err != nil {
			return err
		}
	}
	logger, err := log.NewLogger("enclave-client", w, format, level)
	if err != nil {
		return err
	}
	rootLogger = logger

	if cfg.Metrics != nil {
		promServer, err := metrics.NewPullService(cfg.Metrics.PullEndpoint, rootLogger)
		if err != nil {
			return fmt.Errorf("initializing metrics: %w", err)
		}
		promServer.StartInstrumentation(ctx)
	}
	return nil
}

// RootLogger returns the logger defined by the log config section.
func RootLogger() *log.Logger {
	return rootLogger
}

func getLoggingStream(cfg *config.LogConfig) (io.Writer, error) {
	if cfg == nil || cfg.File == "" {
		return os.Stdout, nil
	}
	w, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// NewClient wires the chain registry, the shielding key cache and the
// enclave transport into a client. The returned closer releases the chain
// connection.
func NewClient(ctx context.Context, cfg *config.Config) (*client.Client, func(), error) {
	logger := RootLogger()

	registry, err := chain.DialNodeRegistry(ctx, cfg.Chain.RPC, uint8(cfg.Chain.ResolvedWorkerType()), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to chain: %w", err)
	}
	sender, err := transport.NewClient(cfg.Enclave, logger)
	if err != nil {
		registry.Close()
		return nil, nil, err
	}
	keys := shielding.NewContext(registry, logger)
	return client.New(keys, sender, logger), registry.Close, nil
}

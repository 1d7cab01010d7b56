package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/require"
)

const exampleYAML = `
enclave:
  endpoint: wss://enclave.example:2000
  request_timeout: 30s
  strict_frames: true
chain:
  rpc: wss://rpc.example:443
  worker_type: identity
log:
  format: json
  level: debug
metrics:
  pull_endpoint: localhost:8009
`

func TestConfigYAML(t *testing.T) {
	cfg, err := initConfig(rawbytes.Provider([]byte(exampleYAML)))
	require.NoError(t, err)

	require.Equal(t, &EnclaveConfig{
		Endpoint:       "wss://enclave.example:2000",
		RequestTimeout: 30 * time.Second,
		StrictFrames:   true,
	}, cfg.Enclave)
	require.Equal(t, "wss://rpc.example:443", cfg.Chain.RPC)
	require.Equal(t, WorkerIdentity, cfg.Chain.ResolvedWorkerType())
	require.Equal(t, "localhost:8009", cfg.Metrics.PullEndpoint)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("ENCLAVE_CLIENT__ENCLAVE__REQUEST_TIMEOUT", "5s")
	t.Setenv("ENCLAVE_CLIENT__CHAIN__WORKER_TYPE", "bitacross")

	cfg, err := initConfig(rawbytes.Provider([]byte(exampleYAML)))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.Enclave.RequestTimeout)
	require.Equal(t, WorkerBitAcross, cfg.Chain.ResolvedWorkerType())
}

func TestConfigValidation(t *testing.T) {
	for name, yaml := range map[string]string{
		"missing enclave": `
chain:
  rpc: ws://localhost:9944
`,
		"missing timeout": `
enclave:
  endpoint: ws://localhost:2000
chain:
  rpc: ws://localhost:9944
`,
		"http endpoint": `
enclave:
  endpoint: http://localhost:2000
  request_timeout: 1s
chain:
  rpc: ws://localhost:9944
`,
		"missing chain": `
enclave:
  endpoint: ws://localhost:2000
  request_timeout: 1s
`,
		"bad worker type": `
enclave:
  endpoint: ws://localhost:2000
  request_timeout: 1s
chain:
  rpc: ws://localhost:9944
  worker_type: sidechain
`,
		"bad log level": `
enclave:
  endpoint: ws://localhost:2000
  request_timeout: 1s
chain:
  rpc: ws://localhost:9944
log:
  format: json
  level: loud
`,
	} {
		_, err := initConfig(rawbytes.Provider([]byte(yaml)))
		require.Error(t, err, name)
	}
}

func TestWorkerType(t *testing.T) {
	var wt WorkerType
	ts := wt.Type()
	for _, name := range []string{"identity", "bitacross"} {
		require.Contains(t, ts, name)
		require.NoError(t, wt.Set(name))
		require.Equal(t, name, wt.String())
	}
	require.Error(t, wt.Set("sidechain"))
}

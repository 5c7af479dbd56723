package solana

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// ParseEnvironment maps a cluster name (devnet, testnet, mainnet-beta or
// localnet) to its RPC endpoint. Anything else is treated as an endpoint URL.
func ParseEnvironment(s string) Environment {
	switch s {
	case "devnet", "dev":
		return EnvironmentDev
	case "testnet", "test":
		return EnvironmentTest
	case "mainnet-beta", "mainnet", "prod":
		return EnvironmentProd
	case "localnet", "localhost", "local":
		return EnvironmentLocal
	default:
		return Environment(s)
	}
}

// ClientConfig configures the JSON-RPC client.
type ClientConfig struct {
	Endpoint string `mapstructure:"solana_rpc_endpoint"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `mapstructure:"solana_rpc_timeout"`

	// MaxRetries is the number of attempts made for calls failing with a
	// rate limit or service error.
	MaxRetries uint `mapstructure:"solana_rpc_max_retries"`

	// RequestsPerSecond limits calls per RPC method. Zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"solana_rpc_requests_per_second"`

	Commitment string `mapstructure:"solana_commitment"`
}

var defaultClientConfig = ClientConfig{
	Endpoint:   string(EnvironmentDev),
	Timeout:    30 * time.Second,
	MaxRetries: 3,
	Commitment: confirmationStatusConfirmed,
}

func init() {
	_ = viper.BindEnv("solana_rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("solana_rpc_timeout", "SOLANA_RPC_TIMEOUT")
	_ = viper.BindEnv("solana_rpc_max_retries", "SOLANA_RPC_MAX_RETRIES")
	_ = viper.BindEnv("solana_rpc_requests_per_second", "SOLANA_RPC_REQUESTS_PER_SECOND")
	_ = viper.BindEnv("solana_commitment", "SOLANA_COMMITMENT")
}

// DefaultClientConfig returns the configuration used when nothing is set.
func DefaultClientConfig() ClientConfig {
	return defaultClientConfig
}

// LoadClientConfig reads the client configuration from v on top of the
// defaults. A nil v uses the global viper instance.
func LoadClientConfig(v *viper.Viper) (ClientConfig, error) {
	if v == nil {
		v = viper.GetViper()
	}

	config := defaultClientConfig
	if err := v.Unmarshal(&config); err != nil {
		return ClientConfig{}, errors.Wrap(err, "failed to unmarshal solana client config")
	}

	if err := config.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return config, nil
}

// Validate checks that the configuration is usable.
func (c ClientConfig) Validate() error {
	if len(c.Endpoint) == 0 {
		return errors.New("solana rpc endpoint is required")
	}
	if c.Timeout < 0 {
		return errors.Errorf("invalid solana rpc timeout: %s", c.Timeout)
	}
	if c.MaxRetries == 0 {
		return errors.New("solana rpc max retries must be at least 1")
	}
	if c.RequestsPerSecond < 0 {
		return errors.Errorf("invalid solana rpc requests per second: %v", c.RequestsPerSecond)
	}
	if _, err := ParseCommitment(c.Commitment); err != nil {
		return err
	}
	return nil
}

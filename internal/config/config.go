package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Observe ObserveConfig
	Server  ServerConfig
	Spotify SpotifyConfig
	Store   StoreConfig
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
}

// SpotifyConfig locates the upstream endpoints. The defaults are the
// production endpoints; overrides exist for testing against local fakes.
type SpotifyConfig struct {
	TokenURL  string `env:"SPOTIFY_TOKEN_URL, default=https://open.spotify.com/get_access_token?reason=transport&productType=web_player"`
	LyricsURL string `env:"SPOTIFY_LYRICS_URL, default=https://spclient.wg.spotify.com/color-lyrics/v2/track"`
	PlayerURL string `env:"SPOTIFY_PLAYER_URL, default=https://api.spotify.com/v1/me/player"`

	// UserAgent is sent on every upstream request: the endpoints are
	// undocumented and reject requests that don't look like a browser.
	UserAgent string `env:"SPOTIFY_USER_AGENT, default=Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"`
}

// StoreConfig specifies where cached access tokens are kept.
type StoreConfig struct {
	// Type selects the store implementation: "memory" (default), "dynamodb"
	// or "valkey".
	Type string `env:"STORE_TYPE, default=memory"`

	// MemoryMaxSize bounds the number of users held by the memory store.
	MemoryMaxSize int `env:"STORE_MEMORY_MAX_SIZE, default=10000"`

	DynamoDB   DynamoDBConfig
	Valkey     ValkeyConfig
	Encryption EncryptionConfig
}

// DynamoDBConfig specifies the token table. The credential variables are
// optional: when unset the AWS default credential chain is used.
type DynamoDBConfig struct {
	TableName string `env:"DYNAMODB_TABLE_NAME"`

	// Region falls back to REGION when DYNAMODB_REGION is not set.
	Region string `env:"DYNAMODB_REGION"`

	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `env:"DYNAMODB_ENDPOINT"`

	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

// ValkeyConfig specifies distributed store configuration.
type ValkeyConfig struct {
	// Address is the Valkey server address (host:port).
	Address string `env:"VALKEY_ADDRESS"`

	// TLS enables TLS connection to Valkey. Defaults to true so the secure option
	// is the default.
	TLS bool `env:"VALKEY_TLS, default=true"`

	Username string `env:"VALKEY_USERNAME"`
	Password string `env:"VALKEY_PASSWORD"`
}

// EncryptionConfig controls encryption of access tokens held by the dynamodb
// and valkey stores.
type EncryptionConfig struct {
	Enabled bool `env:"STORE_ENCRYPTION_ENABLED, default=false"`

	// KeysetURI locates the encrypted Tink keyset.
	// Format: aws-secretsmanager://secret-name
	KeysetURI string `env:"STORE_ENCRYPTION_KEYSET_URI"`

	// KMSKeyURI is the KMS key protecting the keyset.
	// Format: aws-kms://arn:aws:kms:region:account:key/key-id
	KMSKeyURI string `env:"STORE_ENCRYPTION_KMS_KEY_URI"`

	RefreshIntervalMinutes int `env:"STORE_ENCRYPTION_REFRESH_INTERVAL_MINS, default=15"`
}

type ObserveConfig struct {
	SDKLogLevel                string `env:"OBSERVE_OTEL_LOG_LEVEL, default=info"`
	Enabled                    bool   `env:"OBSERVE_ENABLED, default=false"`
	MetricsEnabled             bool   `env:"OBSERVE_METRICS_ENABLED, default=true"`
	Type                       string `env:"OBSERVE_TYPE, default=grpc"`
	ServiceName                string `env:"OBSERVE_SERVICE_NAME, default=lyrics-bridge"`
	TraceBatchTimeoutSeconds   int    `env:"OBSERVE_TRACE_BATCH_TIMEOUT_SECS, default=20"`
	MetricReadIntervalSeconds  int    `env:"OBSERVE_METRIC_READ_INTERVAL_SECS, default=60"`
	HTTPTransportEnabled       bool   `env:"OBSERVE_HTTP_TRANSPORT_ENABLED, default=true"`
	HTTPConnectionTraceEnabled bool   `env:"OBSERVE_CONNECTION_TRACE_ENABLED, default=true"`
}

// regionFallback carries the region variable used by earlier deployments.
type regionFallback struct {
	Region string `env:"REGION"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	if cfg.Store.DynamoDB.Region == "" {
		var fallback regionFallback
		err = envconfig.ProcessWith(ctx, &envconfig.Config{
			Target:   &fallback,
			Lookuper: lookup,
		})
		if err != nil {
			return cfg, err
		}
		cfg.Store.DynamoDB.Region = fallback.Region
	}

	err = cfg.Store.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid store configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the store configuration is complete for the selected
// type.
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "memory":
		if c.MemoryMaxSize <= 0 {
			return fmt.Errorf("STORE_MEMORY_MAX_SIZE must be positive")
		}
	case "dynamodb":
		if c.DynamoDB.TableName == "" {
			return fmt.Errorf("DYNAMODB_TABLE_NAME required when STORE_TYPE=dynamodb")
		}
		// static credentials are all or nothing
		if (c.DynamoDB.AccessKeyID == "") != (c.DynamoDB.SecretAccessKey == "") {
			return fmt.Errorf("ACCESS_KEY_ID and SECRET_ACCESS_KEY must be supplied together")
		}
	case "valkey":
		if c.Valkey.Address == "" {
			return fmt.Errorf("VALKEY_ADDRESS required when STORE_TYPE=valkey")
		}
	default:
		return fmt.Errorf("invalid STORE_TYPE %q: must be one of \"memory\", \"dynamodb\" or \"valkey\"", c.Type)
	}

	if c.Encryption.Enabled {
		if c.Type == "memory" {
			return fmt.Errorf("STORE_ENCRYPTION_ENABLED requires STORE_TYPE=dynamodb or STORE_TYPE=valkey")
		}
		if c.Encryption.KeysetURI == "" {
			return fmt.Errorf("STORE_ENCRYPTION_KEYSET_URI required when encryption enabled")
		}
		if c.Encryption.KMSKeyURI == "" {
			return fmt.Errorf("STORE_ENCRYPTION_KMS_KEY_URI required when encryption enabled")
		}
		if c.Encryption.RefreshIntervalMinutes <= 0 {
			return fmt.Errorf("STORE_ENCRYPTION_REFRESH_INTERVAL_MINS must be positive")
		}
	}

	return nil
}

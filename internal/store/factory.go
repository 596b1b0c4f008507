package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/lyricsbridge/lyrics-bridge/internal/config"
	"github.com/lyricsbridge/lyrics-bridge/internal/encryption"
	"github.com/rs/zerolog/log"
	"github.com/tink-crypto/tink-go/v2/tink"
	"github.com/valkey-io/valkey-go"
)

// NewFromConfig creates a token store based on the provided configuration.
// Every implementation is returned wrapped for instrumentation, and the
// distributed stores are additionally wrapped for encryption when it is
// enabled.
//
// The store type must be one of "memory", "dynamodb" or "valkey". Any other
// value returns an error.
func NewFromConfig(ctx context.Context, cfg config.StoreConfig) (TokenStore, error) {
	var backend TokenStore

	switch cfg.Type {
	case "dynamodb":
		log.Info().
			Str("store_type", "dynamodb").
			Str("table", cfg.DynamoDB.TableName).
			Str("region", cfg.DynamoDB.Region).
			Msg("initializing dynamodb token store")

		client, err := NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}

		backend = NewDynamoDB(client, cfg.DynamoDB.TableName)

	case "valkey":
		log.Info().
			Str("store_type", "valkey").
			Str("address", cfg.Valkey.Address).
			Bool("tls", cfg.Valkey.TLS).
			Msg("initializing valkey token store")

		if cfg.Valkey.Address == "" {
			return nil, fmt.Errorf("valkey address is required when store type is valkey")
		}

		valkeyOpts := valkey.ClientOption{
			InitAddress: []string{cfg.Valkey.Address},
			Username:    cfg.Valkey.Username,
			Password:    cfg.Valkey.Password,
		}

		if cfg.Valkey.TLS {
			valkeyOpts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		client, err := valkey.NewClient(valkeyOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to create valkey client: %w", err)
		}

		backend = NewValkey(client)

	case "memory":
		log.Info().
			Str("store_type", "memory").
			Int("max_size", cfg.MemoryMaxSize).
			Msg("initializing in-memory token store")

		backend = NewMemory(cfg.MemoryMaxSize)

	default:
		return nil, fmt.Errorf("invalid store type %q: must be one of \"memory\", \"dynamodb\" or \"valkey\"", cfg.Type)
	}

	if cfg.Encryption.Enabled {
		if cfg.Type == "memory" {
			_ = backend.Close()
			return nil, fmt.Errorf("encryption is not supported by the memory store")
		}

		aead, err := newKeysetAEAD(ctx, cfg.Encryption)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("token encryption: %w", err)
		}

		log.Info().Str("keyset", cfg.Encryption.KeysetURI).Msg("token store encryption enabled")

		backend = NewEncrypted(backend, aead)
	}

	return NewInstrumented(backend, cfg.Type), nil
}

// newKeysetAEAD loads the keyset from Secrets Manager and keeps it refreshed
// for the life of the process.
func newKeysetAEAD(ctx context.Context, cfg config.EncryptionConfig) (*encryption.Rotating, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for secrets manager: %w", err)
	}

	secrets := secretsmanager.NewFromConfig(awsCfg)

	load := func(ctx context.Context) (tink.AEAD, error) {
		return encryption.LoadKMSKeyset(ctx, secrets, cfg.KeysetURI, cfg.KMSKeyURI)
	}

	// the refresh loop outlives the startup context; Close stops it
	return encryption.NewRotating(context.WithoutCancel(ctx), load, time.Duration(cfg.RefreshIntervalMinutes)*time.Minute)
}

// NewDynamoDBClient creates a DynamoDB client from the default AWS
// configuration, applying any region, static credentials or endpoint override
// present in cfg.
func NewDynamoDBClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for dynamodb: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

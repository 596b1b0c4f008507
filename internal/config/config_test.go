package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 10_000, cfg.Store.MemoryMaxSize)
	assert.Equal(t, "https://open.spotify.com/get_access_token?reason=transport&productType=web_player", cfg.Spotify.TokenURL)
	assert.Equal(t, "https://spclient.wg.spotify.com/color-lyrics/v2/track", cfg.Spotify.LyricsURL)
	assert.Equal(t, "https://api.spotify.com/v1/me/player", cfg.Spotify.PlayerURL)
	assert.Contains(t, cfg.Spotify.UserAgent, "Chrome/113.0.0.0")
	assert.Equal(t, "lyrics-bridge", cfg.Observe.ServiceName)
	assert.False(t, cfg.Observe.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_TYPE", "dynamodb")
	t.Setenv("DYNAMODB_TABLE_NAME", "tokens")
	t.Setenv("DYNAMODB_REGION", "ap-southeast-2")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DynamoDBConfig{
		TableName: "tokens",
		Region:    "ap-southeast-2",
	}, cfg.Store.DynamoDB)
}

func TestLoad_DynamoDB_RegionFallback(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_TYPE":          "dynamodb",
		"DYNAMODB_TABLE_NAME": "tokens",
		"REGION":              "us-east-1",
		"ACCESS_KEY_ID":       "AKIA",
		"SECRET_ACCESS_KEY":   "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, DynamoDBConfig{
		TableName:       "tokens",
		Region:          "us-east-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
	}, cfg.Store.DynamoDB)
}

func TestLoad_DynamoDB_RegionPreferred(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_TYPE":          "dynamodb",
		"DYNAMODB_TABLE_NAME": "tokens",
		"DYNAMODB_REGION":     "eu-west-1",
		"REGION":              "us-east-1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Store.DynamoDB.Region)
}

func TestLoad_Valkey(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_TYPE":     "valkey",
		"VALKEY_ADDRESS": "localhost:6379",
		"VALKEY_TLS":     "false",
	}))
	require.NoError(t, err)

	assert.Equal(t, ValkeyConfig{
		Address: "localhost:6379",
		TLS:     false,
	}, cfg.Store.Valkey)
}

func TestStoreConfig_Validate(t *testing.T) {
	cases := []struct {
		name     string
		cfg      StoreConfig
		expected string
	}{
		{
			name: "memory ok",
			cfg:  StoreConfig{Type: "memory", MemoryMaxSize: 10},
		},
		{
			name:     "memory without size",
			cfg:      StoreConfig{Type: "memory"},
			expected: "STORE_MEMORY_MAX_SIZE must be positive",
		},
		{
			name:     "dynamodb without table",
			cfg:      StoreConfig{Type: "dynamodb"},
			expected: "DYNAMODB_TABLE_NAME required when STORE_TYPE=dynamodb",
		},
		{
			name: "dynamodb with partial credentials",
			cfg: StoreConfig{
				Type:     "dynamodb",
				DynamoDB: DynamoDBConfig{TableName: "tokens", AccessKeyID: "AKIA"},
			},
			expected: "ACCESS_KEY_ID and SECRET_ACCESS_KEY must be supplied together",
		},
		{
			name: "dynamodb ok",
			cfg:  StoreConfig{Type: "dynamodb", DynamoDB: DynamoDBConfig{TableName: "tokens"}},
		},
		{
			name:     "valkey without address",
			cfg:      StoreConfig{Type: "valkey"},
			expected: "VALKEY_ADDRESS required when STORE_TYPE=valkey",
		},
		{
			name:     "encryption with memory store",
			cfg:      StoreConfig{Type: "memory", MemoryMaxSize: 10, Encryption: EncryptionConfig{Enabled: true}},
			expected: "STORE_ENCRYPTION_ENABLED requires STORE_TYPE=dynamodb or STORE_TYPE=valkey",
		},
		{
			name: "encryption without keyset",
			cfg: StoreConfig{
				Type:       "valkey",
				Valkey:     ValkeyConfig{Address: "localhost:6379"},
				Encryption: EncryptionConfig{Enabled: true, KMSKeyURI: "aws-kms://key", RefreshIntervalMinutes: 15},
			},
			expected: "STORE_ENCRYPTION_KEYSET_URI required when encryption enabled",
		},
		{
			name: "encryption without KMS key",
			cfg: StoreConfig{
				Type:       "valkey",
				Valkey:     ValkeyConfig{Address: "localhost:6379"},
				Encryption: EncryptionConfig{Enabled: true, KeysetURI: "aws-secretsmanager://keyset", RefreshIntervalMinutes: 15},
			},
			expected: "STORE_ENCRYPTION_KMS_KEY_URI required when encryption enabled",
		},
		{
			name: "encryption ok",
			cfg: StoreConfig{
				Type:     "dynamodb",
				DynamoDB: DynamoDBConfig{TableName: "tokens"},
				Encryption: EncryptionConfig{
					Enabled:                true,
					KeysetURI:              "aws-secretsmanager://keyset",
					KMSKeyURI:              "aws-kms://key",
					RefreshIntervalMinutes: 15,
				},
			},
		},
		{
			name:     "unknown type",
			cfg:      StoreConfig{Type: "sqlite"},
			expected: `invalid STORE_TYPE "sqlite": must be one of "memory", "dynamodb" or "valkey"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.expected == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expected)
		})
	}
}

func TestLoad_InvalidStore(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_TYPE": "valkey",
	}))
	assert.ErrorContains(t, err, "invalid store configuration")
}

func TestLoad_Encryption(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_TYPE":                   "valkey",
		"VALKEY_ADDRESS":               "localhost:6379",
		"STORE_ENCRYPTION_ENABLED":     "true",
		"STORE_ENCRYPTION_KEYSET_URI":  "aws-secretsmanager://lyrics-keyset",
		"STORE_ENCRYPTION_KMS_KEY_URI": "aws-kms://arn:aws:kms:us-east-1:123456789012:key/abc",
	}))
	require.NoError(t, err)

	assert.Equal(t, EncryptionConfig{
		Enabled:                true,
		KeysetURI:              "aws-secretsmanager://lyrics-keyset",
		KMSKeyURI:              "aws-kms://arn:aws:kms:us-east-1:123456789012:key/abc",
		RefreshIntervalMinutes: 15,
	}, cfg.Store.Encryption)
}

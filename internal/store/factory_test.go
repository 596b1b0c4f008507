package store

import (
	"context"
	"testing"

	"github.com/lyricsbridge/lyrics-bridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig_Memory(t *testing.T) {
	s, err := NewFromConfig(context.Background(), config.StoreConfig{
		Type:          "memory",
		MemoryMaxSize: 10,
	})
	require.NoError(t, err)
	defer s.Close()

	instrumented, ok := s.(*Instrumented)
	require.True(t, ok, "store should be instrumented")
	assert.Equal(t, "memory", instrumented.storeType)
	assert.IsType(t, &Memory{}, instrumented.wrapped)
}

func TestNewFromConfig_DynamoDB(t *testing.T) {
	s, err := NewFromConfig(context.Background(), config.StoreConfig{
		Type: "dynamodb",
		DynamoDB: config.DynamoDBConfig{
			TableName:       "tokens",
			Region:          "us-east-1",
			Endpoint:        "http://localhost:8000",
			AccessKeyID:     "AKIA",
			SecretAccessKey: "secret",
		},
	})
	require.NoError(t, err)
	defer s.Close()

	instrumented, ok := s.(*Instrumented)
	require.True(t, ok, "store should be instrumented")
	assert.Equal(t, "dynamodb", instrumented.storeType)

	dynamo, ok := instrumented.wrapped.(*DynamoDB)
	require.True(t, ok)
	assert.Equal(t, "tokens", dynamo.tableName)
}

func TestNewFromConfig_ValkeyRequiresAddress(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.StoreConfig{Type: "valkey"})
	assert.EqualError(t, err, "valkey address is required when store type is valkey")
}

func TestNewFromConfig_InvalidType(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.StoreConfig{Type: "file"})
	assert.EqualError(t, err, `invalid store type "file": must be one of "memory", "dynamodb" or "valkey"`)
}

func TestNewDynamoDBClient_Region(t *testing.T) {
	client, err := NewDynamoDBClient(context.Background(), config.DynamoDBConfig{
		Region:          "ap-southeast-2",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "ap-southeast-2", client.Options().Region)
}

func TestNewFromConfig_EncryptionNotSupportedByMemory(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.StoreConfig{
		Type:          "memory",
		MemoryMaxSize: 10,
		Encryption:    config.EncryptionConfig{Enabled: true},
	})
	assert.EqualError(t, err, "encryption is not supported by the memory store")
}

func TestNewFromConfig_EncryptionKeysetFailure(t *testing.T) {
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	_, err := NewFromConfig(context.Background(), config.StoreConfig{
		Type: "dynamodb",
		DynamoDB: config.DynamoDBConfig{
			TableName: "tokens",
			Region:    "us-east-1",
		},
		Encryption: config.EncryptionConfig{
			Enabled:                true,
			KeysetURI:              "file:///keyset.json",
			KMSKeyURI:              "aws-kms://arn:aws:kms:us-east-1:123456789012:key/abc",
			RefreshIntervalMinutes: 15,
		},
	})
	assert.ErrorContains(t, err, "token encryption: loading keyset")
	assert.ErrorContains(t, err, "must start with aws-secretsmanager://")
}

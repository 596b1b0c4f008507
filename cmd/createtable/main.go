// This command is only used for local development: it creates the token table
// in DynamoDB Local (or any account the environment points at) so the server
// can run with STORE_TYPE=dynamodb.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lyricsbridge/lyrics-bridge/internal/config"
	"github.com/lyricsbridge/lyrics-bridge/internal/store"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TableName string `env:"DYNAMODB_TABLE_NAME, default=lyrics-bridge-tokens"`
	Region    string `env:"DYNAMODB_REGION, default=us-east-1"`
	Endpoint  string `env:"DYNAMODB_ENDPOINT, default=http://localhost:8000"`

	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
}

func main() {
	ctx := context.Background()

	cfg := Config{}
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	client, err := store.NewDynamoDBClient(ctx, config.DynamoDBConfig{
		TableName:       cfg.TableName,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating client: %v\n", err)
		os.Exit(1)
	}

	created, err := store.CreateTable(ctx, client, cfg.TableName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if created {
		fmt.Printf("created table %s\n", cfg.TableName)
	} else {
		fmt.Printf("table %s already exists\n", cfg.TableName)
	}
}

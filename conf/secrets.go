package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type secretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveMongoUri returns the configured uri, or reads it from Secrets
// Manager. The secret is either the bare uri or json {"uri": "..."}.
func ResolveMongoUri(ctx context.Context, cfg StoreConfig, awsCfg aws.Config) (string, error) {
	if cfg.MongoUri != "" {
		return cfg.MongoUri, nil
	}
	return mongoUriFromSecret(ctx, secretsmanager.NewFromConfig(awsCfg), cfg.MongoUriSecret)
}

func mongoUriFromSecret(ctx context.Context, svc secretGetter, secretName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get mongo uri secret: %w", err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretName)
	}

	value := strings.TrimSpace(*result.SecretString)
	if !strings.HasPrefix(value, "{") {
		return value, nil
	}
	var secret struct {
		Uri string `json:"uri"`
	}
	if err := json.Unmarshal([]byte(value), &secret); err != nil {
		return "", fmt.Errorf("failed to parse mongo uri secret: %w", err)
	}
	if secret.Uri == "" {
		return "", fmt.Errorf("secret %s has no uri field", secretName)
	}
	return secret.Uri, nil
}

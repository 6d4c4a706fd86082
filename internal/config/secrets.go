package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ErrSecretNotFound is returned when the configured secret id does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// NewSecretsManager builds a client from the default AWS credential chain.
func NewSecretsManager(ctx context.Context) (SecretsManagerAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// ApplySecrets overlays credentials from a JSON secret whose keys are the
// environment variable names (e.g. {"SHOPIFY_API_SECRET": "..."}). Keys that
// are absent or empty leave the current value alone.
func ApplySecrets(ctx context.Context, api SecretsManagerAPI, secretID string, c *Config) error {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(secretID)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return fmt.Errorf("%w: %s", ErrSecretNotFound, secretID)
		}
		return fmt.Errorf("get secret %s: %w", secretID, err)
	}

	var raw []byte
	switch {
	case out.SecretString != nil:
		raw = []byte(*out.SecretString)
	case out.SecretBinary != nil:
		raw = out.SecretBinary
	default:
		return fmt.Errorf("secret %s has no value", secretID)
	}

	values := map[string]string{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("secret %s is not a JSON object of strings: %w", secretID, err)
	}

	targets := map[string]*string{
		"ORBEA_EMAIL":             &c.OrbeaEmail,
		"ORBEA_PASSWORD":          &c.OrbeaPassword,
		"FTP_HOST":                &c.FTPHost,
		"FTP_USER":                &c.FTPUser,
		"FTP_PASSWORD":            &c.FTPPassword,
		"SHOPIFY_SHOP_URL":        &c.ShopifyShopURL,
		"SHOPIFY_API_SECRET":      &c.ShopifyAPISecret,
		"NOTIFICATION_API_SECRET": &c.NotificationAPISecret,
		"DATABASE_URL":            &c.DatabaseURL,
		"JWT_SECRET":              &c.JWTSecret,
		"OPERATOR_PASSWORD_HASH":  &c.OperatorPasswordHash,
	}
	for key, dst := range targets {
		if v := values[key]; v != "" {
			*dst = v
		}
	}
	return nil
}

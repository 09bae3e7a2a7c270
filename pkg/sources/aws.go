package sources

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AWSConfig holds configuration for AWS Secrets Manager
type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SecretName      string `yaml:"secret_name"`
	Endpoint        string `yaml:"endpoint"`  // Optional: for LocalStack or custom endpoints
	PlainKey        string `yaml:"plain_key"` // Key for a secret that is not a JSON object
}

// Validate checks if the AWSConfig has all required fields set
func (a AWSConfig) Validate() error {
	if a.Region == "" {
		return errors.New("AWS region is required")
	}
	if a.SecretName == "" {
		return errors.New("AWS secret name is required")
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return errors.New("AWS access_key_id and secret_access_key must be set together")
	}
	return nil
}

// CreateClient creates and configures an AWS Secrets Manager client from this config.
// Without static credentials the default chain (IAM role, env vars, etc.) is used.
func (a AWSConfig) CreateClient(ctx context.Context) (*secretsmanager.Client, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AWS configuration")
	}

	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(a.Region),
	}
	if a.Endpoint != "" {
		configOpts = append(configOpts, config.WithBaseEndpoint(a.Endpoint))
	}
	if a.AccessKeyID != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKeyID, a.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// SecretValueGetter is the part of *secretsmanager.Client the loader needs.
type SecretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSLoader reads one AWS Secrets Manager secret. A JSON object secret yields
// one key per property. Any other secret is stored under plainKey.
type AWSLoader struct {
	client     SecretValueGetter
	secretName string
	plainKey   string
}

// NewAWSLoader creates a loader for secretName
//
// Parameters:
//   - client: Configured AWS Secrets Manager client
//   - secretName: The name of the secret in AWS Secrets Manager
//   - plainKey: Environment key for a plain text secret, "" to reject them
func NewAWSLoader(client SecretValueGetter, secretName, plainKey string) *AWSLoader {
	return &AWSLoader{client: client, secretName: secretName, plainKey: plainKey}
}

// Load implements Loader.
func (a *AWSLoader) Load(ctx context.Context) (map[string]string, error) {
	result, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(a.secretName),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read secret from AWS Secrets Manager: %q", a.secretName)
	}

	if result.SecretString == nil {
		return nil, errors.Errorf("secret %q has no string value", a.secretName)
	}
	secretString := *result.SecretString

	var secretData map[string]interface{}
	if err := json.Unmarshal([]byte(secretString), &secretData); err == nil {
		values := stringValues(secretData)
		log.Debug().
			Str("secret_name", a.secretName).
			Int("keys", len(values)).
			Msg("Retrieved secret from AWS Secrets Manager")
		return values, nil
	}

	if a.plainKey == "" {
		return nil, errors.Errorf("secret %q is not a JSON object and no plain_key is configured", a.secretName)
	}
	log.Debug().
		Str("secret_name", a.secretName).
		Str("key", a.plainKey).
		Msg("Retrieved secret from AWS Secrets Manager (plain text)")
	return map[string]string{a.plainKey: secretString}, nil
}

// Name implements Loader.
func (a *AWSLoader) Name() string {
	return "AWS Secrets Manager"
}

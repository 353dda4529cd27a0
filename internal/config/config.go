// Package config loads service settings from the environment locally and
// from SSM Parameter Store when running in Lambda.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

// SSMParameterGetter is the slice of the SSM client the loader uses,
// satisfied by *ssm.Client and mockable in tests.
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config holds the export service settings.
type Config struct {
	// DefaultCalendarID is the target when no dedicated calendar is used.
	DefaultCalendarID string

	// Timezone is the IANA zone applied when a request omits one.
	Timezone string

	// APIKey is the shared secret the dashboard's route handler must
	// present. Empty means caller authentication is disabled (local dev).
	APIKey string

	LogLevel string

	ssmClient SSMParameterGetter
}

// Load reads configuration for the current environment.
func Load() (*Config, error) {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig()
	}
	return loadLocalConfig()
}

// loadLocalConfig reads settings from the environment, honoring a .env
// file when one exists.
func loadLocalConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine; plain env vars still apply.
		fmt.Printf("Warning: no .env file loaded: %v\n", err)
	}

	cfg := &Config{
		DefaultCalendarID: getEnvOrDefault("DEFAULT_CALENDAR_ID", "primary"),
		Timezone:          getEnvOrDefault("TIMEZONE", "America/New_York"),
		APIKey:            getEnvOrDefault("EXPORT_API_KEY", ""),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "INFO"),
	}
	if cfg.APIKey == "" {
		fmt.Println("Warning: EXPORT_API_KEY not set, caller authentication disabled")
	}
	return cfg, nil
}

// loadAWSConfig reads settings for the Lambda environment, pulling the
// caller API key from Parameter Store.
func loadAWSConfig() (*Config, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}

	cfg := &Config{
		DefaultCalendarID: getEnvOrDefault("DEFAULT_CALENDAR_ID", "primary"),
		Timezone:          getEnvOrDefault("TIMEZONE", "America/New_York"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "INFO"),
		ssmClient:         ssm.NewFromConfig(awsConfig),
	}

	if err := cfg.loadFromParameterStore(); err != nil {
		return nil, fmt.Errorf("failed to load secrets from Parameter Store: %v", err)
	}
	return cfg, nil
}

// loadFromParameterStore fetches secrets the Lambda environment keeps in
// SSM rather than plain environment variables.
func (c *Config) loadFromParameterStore() error {
	ctx := context.TODO()

	apiKeyParam := getEnvOrDefault("EXPORT_API_KEY_PARAM", "/chrona/export-api-key")
	apiKey, err := c.getParameter(ctx, apiKeyParam, true)
	if err != nil {
		return fmt.Errorf("failed to fetch export API key: %v", err)
	}
	c.APIKey = apiKey
	return nil
}

// getParameter fetches one parameter from Parameter Store.
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to fetch parameter %s: %v", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s is empty", paramName)
	}
	return *result.Parameter.Value, nil
}

// getEnvOrDefault returns the trimmed environment value, or the default
// when the variable is unset or blank.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

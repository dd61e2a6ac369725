package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// TokenEnv is the environment variable holding the token_v2 cookie value.
	TokenEnv = "NOTION_TOKEN"

	// DefaultEnvFile is the dotenv file consulted when TokenEnv is unset.
	DefaultEnvFile = ".env"
)

// LoadCredential returns the Notion token from the environment or, when the
// variable is unset, from envFile. A missing envFile is not an error.
// It returns ErrMissingCredential when neither source has a token.
func LoadCredential(envFile string) (string, error) {
	return loadCredential(os.Getenv, envFile)
}

func loadCredential(getenv func(string) string, envFile string) (string, error) {
	if token := strings.TrimSpace(getenv(TokenEnv)); token != "" {
		return token, nil
	}

	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			if token := strings.TrimSpace(values[TokenEnv]); token != "" {
				return token, nil
			}
		case errors.Is(err, fs.ErrNotExist):
			// no dotenv file
		default:
			return "", fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	return "", ErrMissingCredential
}

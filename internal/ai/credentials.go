package ai

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Credentials are read from the environment. The first non-empty key wins.
type Credentials struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	ViteAPIKey   string `env:"VITE_API_KEY"`
	APIKey       string `env:"API_KEY"`
}

// LoadCredentials parses Credentials from the process environment.
func LoadCredentials() (Credentials, error) {
	creds, err := env.ParseAs[Credentials]()
	if err != nil {
		return Credentials{}, fmt.Errorf("parsing environment: %w", err)
	}
	return creds, nil
}

// Key returns the API key to use, or ErrMissingCredentials.
func (c Credentials) Key() (string, error) {
	for _, k := range []string{c.GeminiAPIKey, c.GoogleAPIKey, c.ViteAPIKey, c.APIKey} {
		if k != "" {
			return k, nil
		}
	}
	return "", ErrMissingCredentials
}

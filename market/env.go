package market

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// EnvVar reads a credential from the environment, loading a .env file
// from the working directory once if present. A missing or empty value
// yields *EnvVarError so adapters can mark themselves uninitialized.
func EnvVar(name string) (string, error) {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	v := os.Getenv(name)
	if v == "" {
		return "", &EnvVarError{Name: name}
	}
	return v, nil
}

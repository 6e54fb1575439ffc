package config

import (
	stderrors "errors"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads KEY=VALUE pairs from the first readable env file.
// godotenv.Load never overrides variables already present in the process
// environment. It returns the path that was loaded, or "" when none exists.
func loadEnvFiles() (string, error) {
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			if stderrors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		if err := godotenv.Load(p); err != nil {
			return "", err
		}
		return p, nil
	}
	return "", nil
}

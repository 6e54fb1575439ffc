package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docmerge/internal/config"
)

// SSHProvider handles SSH key authentication.
type SSHProvider struct{}

// NewSSHProvider creates a new SSH authentication provider.
func NewSSHProvider() *SSHProvider {
	return &SSHProvider{}
}

// Type returns the authentication type this provider handles.
func (p *SSHProvider) Type() config.AuthType {
	return config.AuthTypeSSH
}

func keyPath(authConfig *config.AuthConfig) string {
	if authConfig.KeyPath != "" {
		return authConfig.KeyPath
	}
	return filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
}

// CreateAuth creates SSH authentication from the configuration.
func (p *SSHProvider) CreateAuth(authConfig *config.AuthConfig) (transport.AuthMethod, error) {
	path := keyPath(authConfig)
	publicKeys, err := ssh.NewPublicKeysFromFile("git", path, authConfig.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key from %s: %w", path, err)
	}
	return publicKeys, nil
}

// CommandOptions points GIT_SSH_COMMAND at the configured key.
func (p *SSHProvider) CommandOptions(authConfig *config.AuthConfig) (CommandOptions, error) {
	return CommandOptions{
		Env: []string{
			"GIT_TERMINAL_PROMPT=0",
			fmt.Sprintf("GIT_SSH_COMMAND=ssh -i %q -o IdentitiesOnly=yes -o BatchMode=yes", keyPath(authConfig)),
		},
	}, nil
}

// ValidateConfig validates the SSH authentication configuration.
func (p *SSHProvider) ValidateConfig(authConfig *config.AuthConfig) error {
	path := keyPath(authConfig)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("SSH key file does not exist: %s", path)
	}
	return nil
}

// Name returns a human-readable name for this provider.
func (p *SSHProvider) Name() string {
	return "SSHProvider"
}

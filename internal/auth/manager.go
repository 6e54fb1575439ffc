package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docmerge/internal/auth/providers"
	"git.home.luguber.info/inful/docmerge/internal/config"
)

// Manager provides a high-level interface for authentication operations.
type Manager struct {
	registry *providers.AuthProviderRegistry
}

// NewManager creates a new authentication manager with the standard providers.
func NewManager() *Manager {
	return &Manager{
		registry: providers.NewAuthProviderRegistry(),
	}
}

// CreateAuth creates the go-git transport authentication for authCfg.
// A nil result means anonymous access.
func (m *Manager) CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	res, err := m.registry.CreateAuth(authCfg)
	if err != nil {
		return nil, err
	}
	return res.Auth, nil
}

// CommandOptions returns the env and `git -c` settings for a git subprocess.
func (m *Manager) CommandOptions(authCfg *config.AuthConfig) (providers.CommandOptions, error) {
	return m.registry.CommandOptions(authCfg)
}

// DefaultManager is a package-level instance for convenience.
var DefaultManager = NewManager()

// CreateAuth is a convenience function that uses the default manager.
func CreateAuth(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	return DefaultManager.CreateAuth(authCfg)
}

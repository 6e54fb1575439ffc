package providers

import (
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docmerge/internal/config"
)

// NoneProvider handles anonymous access.
type NoneProvider struct{}

// NewNoneProvider creates a new none authentication provider.
func NewNoneProvider() *NoneProvider {
	return &NoneProvider{}
}

// Type returns the authentication type this provider handles.
func (p *NoneProvider) Type() config.AuthType {
	return config.AuthTypeNone
}

// CreateAuth creates no authentication (returns nil).
func (p *NoneProvider) CreateAuth(_ *config.AuthConfig) (transport.AuthMethod, error) {
	return nil, nil
}

// CommandOptions disables interactive credential prompts so a missing
// credential fails fast instead of blocking on stdin.
func (p *NoneProvider) CommandOptions(_ *config.AuthConfig) (CommandOptions, error) {
	return CommandOptions{Env: []string{"GIT_TERMINAL_PROMPT=0"}}, nil
}

// ValidateConfig accepts any configuration.
func (p *NoneProvider) ValidateConfig(_ *config.AuthConfig) error {
	return nil
}

// Name returns a human-readable name for this provider.
func (p *NoneProvider) Name() string {
	return "NoneProvider"
}

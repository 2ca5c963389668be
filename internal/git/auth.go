package git

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/dlp3d-ai/subdocs/internal/config"
	"github.com/dlp3d-ai/subdocs/internal/foundation/errors"
)

// getAuthentication returns the go-git AuthMethod for a subrepo. A nil config
// or type "none" means anonymous access.
func getAuthentication(authCfg *config.AuthConfig) (transport.AuthMethod, error) {
	if authCfg == nil {
		return nil, nil
	}
	authType, _ := config.NormalizeAuthType(authCfg.Type)
	switch authType {
	case config.AuthTypeNone:
		return nil, nil
	case config.AuthTypeSSH:
		keyPath := authCfg.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		publicKeys, err := ssh.NewPublicKeysFromFile("git", keyPath, authCfg.Password)
		if err != nil {
			return nil, errors.NewError(errors.CategoryAuth, "failed to load SSH key").
				WithCause(err).
				WithContext("key_path", keyPath).
				UserAction().
				Build()
		}
		return publicKeys, nil
	case config.AuthTypeToken:
		if authCfg.Token == "" {
			return nil, errors.NewError(errors.CategoryAuth, "token authentication requires a token").UserAction().Build()
		}
		// Forges accept any non-empty username with a token password.
		return &http.BasicAuth{Username: "token", Password: authCfg.Token}, nil
	case config.AuthTypeBasic:
		if authCfg.Username == "" || authCfg.Password == "" {
			return nil, errors.NewError(errors.CategoryAuth, "basic authentication requires username and password").UserAction().Build()
		}
		return &http.BasicAuth{Username: authCfg.Username, Password: authCfg.Password}, nil
	default:
		return nil, errors.ConfigError("unsupported auth type").WithContext("type", authCfg.Type).Build()
	}
}

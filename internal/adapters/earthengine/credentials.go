package earthengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested for every credential form.
var Scopes = []string{
	"https://www.googleapis.com/auth/earthengine",
	"https://www.googleapis.com/auth/cloud-platform",
}

const defaultTokenURI = "https://oauth2.googleapis.com/token"

var errUnsupportedCredentials = errors.New("neither refresh_token nor service_account credentials")

// Credential is the first usable credential found by ResolveCredential.
type Credential struct {
	Source oauth2.TokenSource
	Method string
	Path   string
}

type credentialFile struct {
	Type         string `json:"type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
}

// CredentialPaths lists the files probed in order. explicit, when set, is
// tried first.
func CredentialPaths(explicit string) []string {
	var paths []string
	if explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, "/app/credentials.json", "/run/secrets/earthengine-credentials")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "earthengine", "credentials"))
	}
	return paths
}

// ResolveCredential probes paths for a refresh-token or service-account
// file and falls back to application default credentials.
func ResolveCredential(ctx context.Context, paths []string) (*Credential, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ts, method, err := tokenSourceFromJSON(ctx, data)
		if err != nil {
			slog.WarnContext(ctx, "unusable credentials file", "path", path, "error", err)
			continue
		}
		return &Credential{Source: ts, Method: method, Path: path}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("no earth engine credentials: %w", err)
	}
	return &Credential{Source: creds.TokenSource, Method: "default"}, nil
}

func tokenSourceFromJSON(ctx context.Context, data []byte) (oauth2.TokenSource, string, error) {
	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parse credentials: %w", err)
	}

	if f.RefreshToken != "" {
		tokenURI := f.TokenURI
		if tokenURI == "" {
			tokenURI = defaultTokenURI
		}
		cfg := &oauth2.Config{
			ClientID:     f.ClientID,
			ClientSecret: f.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURI},
			Scopes:       Scopes,
		}
		return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: f.RefreshToken}), "refresh_token", nil
	}

	if f.Type == "service_account" {
		jwtCfg, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, "", fmt.Errorf("service account: %w", err)
		}
		return jwtCfg.TokenSource(ctx), "service_account", nil
	}

	return nil, "", errUnsupportedCredentials
}

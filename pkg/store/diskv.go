package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// TokenKey is the store key of the session token.
const TokenKey = "access_token"

// Credentials persists the session token between runs.
type Credentials interface {
	// Token returns the stored token, "" when none is stored.
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates Credentials backed by diskv using the provided config.
func Load(cfg Config) (Credentials, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	return Open(cfg.BasePath())
}

// Open creates Credentials stored under basePath.
func Open(basePath string) (Credentials, error) {
	if basePath == "" {
		return nil, errors.New("store: base path unknown")
	}
	return &credentials{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: flatTransform,
		InverseTransform:  flatInverseTransform,
		CacheSizeMax:      0, // other processes write the token too
		PathPerm:          0o700,
		FilePerm:          0o600,
	}), basePath: basePath}, nil
}

type credentials struct {
	d        *diskv.Diskv
	basePath string
}

func (c *credentials) Token() (string, error) {
	if !c.d.Has(TokenKey) {
		return "", nil
	}
	val, err := c.d.Read(TokenKey)
	if err != nil {
		return "", fmt.Errorf("store: read token: %w", err)
	}
	return strings.TrimSpace(string(val)), nil
}

func (c *credentials) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return c.ClearToken()
	}
	if err := c.d.Write(TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("store: write token: %w", err)
	}
	return nil
}

func (c *credentials) ClearToken() error {
	if !c.d.Has(TokenKey) {
		return nil
	}
	if err := c.d.Erase(TokenKey); err != nil {
		return fmt.Errorf("store: erase token: %w", err)
	}
	return nil
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{
		Path:     []string{},
		FileName: key,
	}
}

func flatInverseTransform(pathKey *diskv.PathKey) string {
	return pathKey.FileName
}

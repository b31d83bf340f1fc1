package backend

import (
	"fmt"
	"time"

	"savings/internal/config"
)

// Type names a record store backend.
type Type string

const (
	MemoryBackend Type = "memory"
	RemoteBackend Type = "remote"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, RemoteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	// Remote specific
	RecordStoreURL     string
	RecordStoreTimeout time.Duration

	// Memory specific
	SeedFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:               backendType,
		RecordStoreURL:     appConfig.RecordStoreURL,
		RecordStoreTimeout: appConfig.RecordStoreTimeout,
		SeedFile:           appConfig.SeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case RemoteBackend:
		if c.RecordStoreURL == "" {
			return fmt.Errorf("record store URL is required for remote backend")
		}
		if c.RecordStoreTimeout < 0 {
			return fmt.Errorf("record store timeout must not be negative")
		}
	case MemoryBackend:
		// An empty seed file starts from an empty store
	}

	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, RemoteBackend}
}

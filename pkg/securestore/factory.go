package securestore

import (
	"fmt"
)

// StoreConfig contains configuration for creating a secure store
type StoreConfig struct {
	// DataDir is required for file-based stores
	DataDir string
	// Options for the secure store (passphrase, etc.)
	// If not provided, DefaultStoreOptions() will be used
	Options *StoreOptions
}

// NewSecureStore creates a new secure store based on the persistence type
func NewSecureStore(persistenceType string, config StoreConfig) (SecureStore, error) {
	options := DefaultStoreOptions()
	if config.Options != nil {
		options = *config.Options
	}

	switch persistenceType {
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file store")
		}
		return NewFileSecureStore(config.DataDir, options)
	case "inmem", "memory":
		return NewInMemSecureStore(), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: file, inmem)", persistenceType)
	}
}

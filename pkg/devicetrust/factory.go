package devicetrust

import (
	"fmt"
)

// RepositoryConfig contains configuration for creating a trust repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories (DBTX interface)
	DB DBTX
	// DataDir is required for file-based repositories
	DataDir string
	// Options for the trust repository
	// If not provided, DefaultTrustRepositoryOptions() will be used
	Options *TrustRepositoryOptions
}

// NewTrustRepository creates a new trust repository based on the persistence type
func NewTrustRepository(persistenceType string, config RepositoryConfig) (TrustRepository, error) {
	// Get options or use defaults
	options := DefaultTrustRepositoryOptions()
	if config.Options != nil {
		options = *config.Options
	}

	switch persistenceType {
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresTrustRepositoryWithOptions(config.DB, options), nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file repository")
		}
		return NewFileTrustRepository(config.DataDir, options)
	case "inmem", "memory":
		return NewInMemTrustRepositoryWithOptions(options), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: postgres, file, inmem)", persistenceType)
	}
}

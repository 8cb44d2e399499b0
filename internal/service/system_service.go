package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ndewijer/Personal-Finance-Backend/internal/database"
	"github.com/ndewijer/Personal-Finance-Backend/internal/model"
)

// Version is the application version reported by the version endpoint.
// Overridden at build time with -ldflags "-X github.com/ndewijer/Personal-Finance-Backend/internal/service.Version=...".
var Version = "dev"

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version and whether the database schema is behind the binary.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, latest, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion: Version,
		DbVersion:  strconv.FormatInt(current, 10),
	}
	if current < latest {
		msg := fmt.Sprintf("database schema is at version %d, run migrations to reach %d", current, latest)
		info.MigrationNeeded = true
		info.MigrationMessage = &msg
	}

	return info, nil
}

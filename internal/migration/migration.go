package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	contentdomain "github.com/quillhq/quill/internal/content/domain"
	notificationdomain "github.com/quillhq/quill/internal/notification/domain"
	tierdomain "github.com/quillhq/quill/internal/tier/domain"
	usagedomain "github.com/quillhq/quill/internal/usage/domain"
	userdomain "github.com/quillhq/quill/internal/user/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations. Postgres only; other
// dialects go through AutoMigrate instead.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema via gorm for the non-postgres dialects
// (sqlite for local development, mysql).
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(
		&tierdomain.Tier{},
		&userdomain.User{},
		&usagedomain.UsageRecord{},
		&notificationdomain.NotificationRecord{},
		&contentdomain.Category{},
		&contentdomain.Prompt{},
		&contentdomain.Note{},
		&contentdomain.Bookmark{},
		&contentdomain.Document{},
		&contentdomain.Video{},
	)
}

package repository

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.mongodb.org/mongo-driver/mongo"
)

const migrationsCollection = "schema_migrations"

// RunMigrations applies the index migrations found in migrationsPath to db.
// Each migration file is a JSON array of database commands (createIndexes, dropIndexes).
func RunMigrations(db *mongo.Database, migrationsPath string) error {
	driver, err := mongodb.WithInstance(db.Client(), &mongodb.Config{
		DatabaseName:         db.Name(),
		MigrationsCollection: migrationsCollection,
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"mongodb",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

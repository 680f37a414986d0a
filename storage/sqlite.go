package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"schoollicense.app/renewal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	storage := &SQLiteStorage{
		db:   db,
		path: path,
	}

	if err := storage.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLiteStorage) FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error) {
	query := `SELECT id, school_code, school_name, contact_email, expiry_date, is_active FROM licenses WHERE school_code = ?`

	var license models.LicenseRecord
	err := s.db.QueryRowContext(ctx, query, schoolCode).Scan(
		&license.ID,
		&license.SchoolCode,
		&license.SchoolName,
		&license.ContactEmail,
		&license.ExpiryDate,
		&license.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}

	license.ExpiryDate = license.ExpiryDate.UTC()
	return &license, nil
}

func (s *SQLiteStorage) UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error {
	query := `UPDATE licenses SET expiry_date = ?, is_active = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		update.ExpiryDate.UTC(),
		update.IsActive,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("license %s not found", id)
	}
	return nil
}

func (s *SQLiteStorage) SaveLicense(ctx context.Context, record *models.LicenseRecord) error {
	if err := validateForSave(record); err != nil {
		return err
	}

	query := `INSERT INTO licenses (id, school_code, school_name, contact_email, expiry_date, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		school_code = excluded.school_code,
		school_name = excluded.school_name,
		contact_email = excluded.contact_email,
		expiry_date = excluded.expiry_date,
		is_active = excluded.is_active,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.SchoolCode,
		record.SchoolName,
		record.ContactEmail,
		record.ExpiryDate,
		record.IsActive,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save license: %w", err)
	}

	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

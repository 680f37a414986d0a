package storage

//go:generate mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"schoollicense.app/renewal/models"
)

// Store is the narrow view of the license document store a renewal needs.
// FindBySchoolCode returns nil, nil when no record exists.
type Store interface {
	FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error)
	UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error
	Ping(ctx context.Context) error
	Close() error
}

// Seeder is implemented by stores this service is allowed to populate
// locally. Hosted stores own their records and do not implement it.
type Seeder interface {
	SaveLicense(ctx context.Context, record *models.LicenseRecord) error
}

type MemoryStorage struct {
	mu       sync.RWMutex
	Licenses map[string]models.LicenseRecord // keyed by record ID
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Licenses: make(map[string]models.LicenseRecord)}
}

func (m *MemoryStorage) FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, license := range m.Licenses {
		if license.SchoolCode == schoolCode {
			return &license, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	license, exists := m.Licenses[id]
	if !exists {
		return fmt.Errorf("license %s not found", id)
	}
	license.Apply(update)
	m.Licenses[id] = license
	return nil
}

func (m *MemoryStorage) SaveLicense(ctx context.Context, record *models.LicenseRecord) error {
	if err := validateForSave(record); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Licenses == nil {
		m.Licenses = make(map[string]models.LicenseRecord)
	}
	for id, existing := range m.Licenses {
		if existing.SchoolCode == record.SchoolCode && id != record.ID {
			return fmt.Errorf("school code %s already belongs to license %s", record.SchoolCode, id)
		}
	}

	m.Licenses[record.ID] = *record
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStorage) Close() error {
	return nil
}

// validateForSave normalizes a record before it is written by a Seeder,
// assigning an ID when the caller did not provide one.
func validateForSave(record *models.LicenseRecord) error {
	record.SchoolCode = strings.TrimSpace(record.SchoolCode)
	if record.SchoolCode == "" {
		return fmt.Errorf("school code is required")
	}
	if record.ID == "" {
		record.ID = uuid.Must(uuid.NewRandom()).String()
	}
	record.ExpiryDate = record.ExpiryDate.UTC()
	return nil
}

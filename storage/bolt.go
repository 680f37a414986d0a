package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"schoollicense.app/renewal/models"
)

const (
	bucketLicenses    = "licenses"
	bucketSchoolCodes = "school_codes"
)

var errLicenseNotFound = errors.New("license not found")

// BoltStorage keeps one JSON document per license plus a school-code index.
type BoltStorage struct {
	db *bbolt.DB
}

func NewBoltStorage(path string) (*BoltStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	st := &BoltStorage{db: db}
	if err := st.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketLicenses)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSchoolCodes))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *BoltStorage) FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error) {
	var found *models.LicenseRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(bucketSchoolCodes)).Get([]byte(schoolCode))
		if id == nil {
			return nil
		}
		lic, err := getLicense(tx, string(id))
		if err != nil {
			return err
		}
		found = &lic
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}
	return found, nil
}

func (s *BoltStorage) UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		lic, err := getLicense(tx, id)
		if err != nil {
			return fmt.Errorf("license %s: %w", id, err)
		}
		lic.Apply(update)
		return putLicense(tx, lic)
	})
}

func (s *BoltStorage) SaveLicense(ctx context.Context, record *models.LicenseRecord) error {
	if err := validateForSave(record); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(bucketSchoolCodes))
		if owner := index.Get([]byte(record.SchoolCode)); owner != nil && string(owner) != record.ID {
			return fmt.Errorf("school code %s already belongs to license %s", record.SchoolCode, owner)
		}
		if previous, err := getLicense(tx, record.ID); err == nil && previous.SchoolCode != record.SchoolCode {
			if err := index.Delete([]byte(previous.SchoolCode)); err != nil {
				return err
			}
		}
		if err := index.Put([]byte(record.SchoolCode), []byte(record.ID)); err != nil {
			return err
		}
		return putLicense(tx, *record)
	})
}

func (s *BoltStorage) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(bucketLicenses)) == nil {
			return fmt.Errorf("bucket %s missing", bucketLicenses)
		}
		return nil
	})
}

func (s *BoltStorage) Close() error { return s.db.Close() }

func getLicense(tx *bbolt.Tx, id string) (models.LicenseRecord, error) {
	v := tx.Bucket([]byte(bucketLicenses)).Get([]byte(id))
	if v == nil {
		return models.LicenseRecord{}, errLicenseNotFound
	}
	var lic models.LicenseRecord
	if err := json.Unmarshal(v, &lic); err != nil {
		return models.LicenseRecord{}, err
	}
	return lic, nil
}

func putLicense(tx *bbolt.Tx, lic models.LicenseRecord) error {
	buf, err := json.Marshal(lic)
	if err != nil {
		return err
	}
	return tx.Bucket([]byte(bucketLicenses)).Put([]byte(lic.ID), buf)
}

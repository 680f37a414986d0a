package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/databases"
	"github.com/appwrite/sdk-for-go/query"

	"schoollicense.app/renewal/models"
)

type AppwriteConfig struct {
	Endpoint     string // e.g. https://cloud.appwrite.io/v1
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
}

type appwriteDocument struct {
	ID           string    `json:"$id"`
	SchoolCode   string    `json:"schoolCode"`
	SchoolName   string    `json:"schoolName"`
	ContactEmail string    `json:"contactEmail"`
	ExpiryDate   time.Time `json:"expiryDate"`
	IsActive     bool      `json:"isActive"`
}

type appwriteDocumentList struct {
	Total     int                `json:"total"`
	Documents []appwriteDocument `json:"documents"`
}

// appwriteDocuments is the part of the Appwrite databases service the store uses.
type appwriteDocuments interface {
	List(databaseID, collectionID string, queries []string) (*appwriteDocumentList, error)
	Update(databaseID, collectionID, documentID string, data map[string]interface{}) error
}

type sdkDocuments struct {
	srv *databases.Databases
}

func (s sdkDocuments) List(databaseID, collectionID string, queries []string) (*appwriteDocumentList, error) {
	resp, err := s.srv.ListDocuments(databaseID, collectionID, s.srv.WithListDocumentsQueries(queries))
	if err != nil {
		return nil, err
	}
	var list appwriteDocumentList
	if err := resp.Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return &list, nil
}

func (s sdkDocuments) Update(databaseID, collectionID, documentID string, data map[string]interface{}) error {
	_, err := s.srv.UpdateDocument(databaseID, collectionID, documentID, s.srv.WithUpdateDocumentData(data))
	return err
}

// AppwriteStorage reads and updates license documents in an Appwrite database.
// The SDK takes no context, so a cancelled ctx returns early while the
// request itself runs on to the SDK client's timeout.
type AppwriteStorage struct {
	cfg  AppwriteConfig
	docs appwriteDocuments
}

func NewAppwriteStorage(cfg AppwriteConfig) *AppwriteStorage {
	client := appwrite.NewClient(
		appwrite.WithEndpoint(cfg.Endpoint),
		appwrite.WithProject(cfg.ProjectID),
		appwrite.WithKey(cfg.APIKey),
	)
	return &AppwriteStorage{
		cfg:  cfg,
		docs: sdkDocuments{srv: appwrite.NewDatabases(client)},
	}
}

func (a *AppwriteStorage) FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error) {
	var list *appwriteDocumentList
	err := callWithContext(ctx, func() (err error) {
		list, err = a.docs.List(a.cfg.DatabaseID, a.cfg.CollectionID, []string{
			query.Equal("schoolCode", schoolCode),
			query.Limit(1),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}

	doc := list.Documents[0]
	return &models.LicenseRecord{
		ID:           doc.ID,
		SchoolCode:   doc.SchoolCode,
		SchoolName:   doc.SchoolName,
		ContactEmail: doc.ContactEmail,
		ExpiryDate:   doc.ExpiryDate.UTC(),
		IsActive:     doc.IsActive,
	}, nil
}

func (a *AppwriteStorage) UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error {
	data := map[string]interface{}{
		"expiryDate": update.ExpiryDate.UTC().Format(time.RFC3339Nano),
		"isActive":   update.IsActive,
	}
	err := callWithContext(ctx, func() error {
		return a.docs.Update(a.cfg.DatabaseID, a.cfg.CollectionID, id, data)
	})
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}
	return nil
}

func (a *AppwriteStorage) Ping(ctx context.Context) error {
	return callWithContext(ctx, func() error {
		_, err := a.docs.List(a.cfg.DatabaseID, a.cfg.CollectionID, []string{query.Limit(1)})
		return err
	})
}

func (a *AppwriteStorage) Close() error { return nil }

func callWithContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	errc := make(chan error, 1)
	go func() { errc <- fn() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

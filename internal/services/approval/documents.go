package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/saga"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
)

const MaxDocumentSize = 10 << 20 // 10 MB per file

var (
	ErrNoDocuments  = errors.New("at least one document is required")
	ErrNotPDF       = errors.New("only PDF documents are accepted")
	ErrDocTooLarge  = errors.New("document exceeds 10 MB")
	ErrDocNameEmpty = errors.New("document name is required")
)

// DocumentError names the file that failed validation.
type DocumentError struct {
	Name string
	Err  error
}

func (e *DocumentError) Error() string { return e.Name + ": " + e.Err.Error() }
func (e *DocumentError) Unwrap() error { return e.Err }

type DocumentFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ValidateDocuments checks every file before anything is stored.
func ValidateDocuments(files []DocumentFile) error {
	if len(files) == 0 {
		return ErrNoDocuments
	}
	for _, f := range files {
		name := filepath.Base(strings.TrimSpace(f.Name))
		if name == "" || name == "." || name == "/" {
			return &DocumentError{Name: f.Name, Err: ErrDocNameEmpty}
		}
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			return &DocumentError{Name: f.Name, Err: ErrNotPDF}
		}
		if f.ContentType != "" && f.ContentType != "application/pdf" && f.ContentType != "application/octet-stream" {
			return &DocumentError{Name: f.Name, Err: ErrNotPDF}
		}
		if f.Size > MaxDocumentSize {
			return &DocumentError{Name: f.Name, Err: ErrDocTooLarge}
		}
	}
	return nil
}

type Documents struct {
	DB      *gorm.DB
	Storage storage.Storage
	Log     logrus.FieldLogger
}

func NewDocuments(db *gorm.DB, st storage.Storage, log logrus.FieldLogger) *Documents {
	return &Documents{DB: db, Storage: st, Log: log}
}

// Upload stores each file under documents/<application id>/<random>-<name> and
// records it with name as the display name. If any file or row fails, everything
// stored by this call is removed again; files from earlier calls are never touched.
func (d *Documents) Upload(ctx context.Context, appID uuid.UUID, files []DocumentFile) ([]models.Document, error) {
	if err := ValidateDocuments(files); err != nil {
		return nil, err
	}

	var count int64
	if err := d.DB.WithContext(ctx).Model(&models.FreelancerApplication{}).Where("id = ?", appID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	docs := make([]models.Document, len(files))
	sg := saga.New("upload_documents", d.Log)

	for i, f := range files {
		i, f := i, f
		name := filepath.Base(strings.TrimSpace(f.Name))
		var key string

		sg.Add(saga.Step{
			Name: "store " + name,
			Do: func(ctx context.Context) error {
				rc, err := f.Open()
				if err != nil {
					return err
				}
				defer rc.Close()

				key, err = d.Storage.Upload(ctx, storage.BucketDocuments, appID.String()+"/"+uuid.NewString()+"-"+name, rc)
				return err
			},
			Compensate: func(ctx context.Context) error {
				if key == "" {
					return nil
				}
				return d.Storage.Delete(ctx, key)
			},
		}).Add(saga.Step{
			Name: "record " + name,
			Do: func(ctx context.Context) error {
				docs[i] = models.Document{
					ApplicationID: appID,
					MediaName:     name,
					FilePath:      key,
					DocumentURL:   d.Storage.PublicURL(key),
				}
				return d.DB.WithContext(ctx).Create(&docs[i]).Error
			},
			Compensate: func(ctx context.Context) error {
				return d.DB.WithContext(ctx).Delete(&models.Document{}, "id = ?", docs[i].ID).Error
			},
		})
	}

	if err := sg.Run(ctx); err != nil {
		return nil, fmt.Errorf("upload documents: %w", err)
	}

	d.Log.WithFields(logrus.Fields{"application_id": appID, "count": len(docs)}).Info("documents uploaded")
	return docs, nil
}

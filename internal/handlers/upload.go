package handlers

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
)

const maxImageSize = 2 << 20

var (
	errImageType = errors.New("image must be jpg/jpeg/png")
	errImageSize = errors.New("image max size is 2MB")
)

func checkImage(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", errImageType
	}
	if file.Size > maxImageSize {
		return "", errImageSize
	}
	return ext, nil
}

// storeImage saves an uploaded image under bucket/<owner>/<random>.<ext> and
// returns its object key.
func storeImage(c *fiber.Ctx, st storage.Storage, bucket string, owner uuid.UUID, file *multipart.FileHeader) (string, error) {
	ext, err := checkImage(file)
	if err != nil {
		return "", err
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return st.Upload(c.UserContext(), bucket, owner.String()+"/"+uuid.NewString()+ext, f)
}

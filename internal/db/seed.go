package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

// EnsureAdmin creates the admin account for email when no user holds that email
// yet. It reports whether a new account was created; an existing user is left
// untouched.
func EnsureAdmin(gdb *gorm.DB, name, email, passwordHash string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || passwordHash == "" {
		return false, errors.New("admin email and password are required")
	}

	created := false
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		u := models.User{Name: strings.TrimSpace(name), Email: email, Password: passwordHash, Role: models.RoleAdmin, IsActive: true}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Admin{ID: u.ID, Name: u.Name, Email: u.Email}).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

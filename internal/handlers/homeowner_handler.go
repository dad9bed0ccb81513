package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

type HomeownerHandler struct {
	DB  *gorm.DB
	Log logrus.FieldLogger
}

func NewHomeownerHandler(db *gorm.DB, log logrus.FieldLogger) *HomeownerHandler {
	return &HomeownerHandler{DB: db, Log: log}
}

func (h *HomeownerHandler) Routes(r fiber.Router, homeowner fiber.Handler) {
	g := r.Group("/homeowner", homeowner)
	g.Get("/profile", h.GetProfile)
	g.Put("/profile", h.UpdateProfile)
}

func (h *HomeownerHandler) load(c *fiber.Ctx) (*models.Homeowner, error) {
	userID, err := getAuth(c)
	if err != nil {
		return nil, err
	}
	var ho models.Homeowner
	if err := h.DB.First(&ho, "id = ?", userID).Error; err != nil {
		if isNotFound(err) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}
		return nil, err
	}
	return &ho, nil
}

func (h *HomeownerHandler) GetProfile(c *fiber.Ctx) error {
	ho, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": ho})
}

type UpdateHomeownerReq struct {
	FirstName   string `json:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" validate:"required,max=80"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=8,max=30"`
	Address     string `json:"address" validate:"max=500"`
}

func (h *HomeownerHandler) UpdateProfile(c *fiber.Ctx) error {
	ho, err := h.load(c)
	if err != nil {
		return err
	}

	var req UpdateHomeownerReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.PhoneNumber = normalizePhone(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)
	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	ho.FirstName = req.FirstName
	ho.LastName = req.LastName
	ho.Phone = req.PhoneNumber
	ho.Address = req.Address

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ho).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", ho.ID).Update("name", ho.FullName()).Error
	})
	if err != nil {
		h.Log.WithError(err).WithField("homeowner_id", ho.ID).Error("update homeowner profile")
		return fail500(c, "Failed to update profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    ho,
	})
}

package handlers

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

// CategoryHandler lists the service categories (skills) offered by approved freelancers.
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	var rows []datatypes.JSONSlice[string]

	err := h.DB.
		Model(&models.FreelancerApplication{}).
		Where("status = ?", models.ApplicationApproved).
		Pluck("skills", &rows).
		Error
	if err != nil {
		return fail500(c, "Failed to load categories")
	}

	seen := map[string]bool{}
	categories := []string{}
	for _, skills := range rows {
		for _, s := range skills {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			categories = append(categories, s)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i]) < strings.ToLower(categories[j])
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

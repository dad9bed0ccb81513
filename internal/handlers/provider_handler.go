package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/availability"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
)

// ProviderHandler serves the public freelancer directory used by the booking flow.
type ProviderHandler struct {
	DB       *gorm.DB
	Bookings *booking.Service
	Log      logrus.FieldLogger
}

func NewProviderHandler(db *gorm.DB, svc *booking.Service, log logrus.FieldLogger) *ProviderHandler {
	return &ProviderHandler{DB: db, Bookings: svc, Log: log}
}

func (h *ProviderHandler) Routes(r fiber.Router) {
	g := r.Group("/providers")
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Get("/:id/service-days", h.ServiceDays)
	g.Get("/:id/slots", h.Slots)
	g.Get("/:id/reviews", h.Reviews)
}

// ProviderResponse joins the approved provider with the application it came from.
type ProviderResponse struct {
	ID                uuid.UUID `json:"freelancer_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number"`
	YearsOfExperience int       `json:"years_of_experience"`
	Skills            []string  `json:"skill"`
	ZipCodes          []string  `json:"zip_codes"`
	HourlyPay         float64   `json:"hourly_pay"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	ServiceDays       []string  `json:"service_days"`
	PhotoURL          string    `json:"profile_photo"`
	AverageRating     float64   `json:"average_rating"`
	ReviewCount       int64     `json:"review_count"`
}

func toProviderResponse(f *models.ApprovedFreelancer) ProviderResponse {
	resp := ProviderResponse{
		ID:          f.ID,
		Email:       f.Email,
		HourlyPay:   f.HourlyPay,
		StartTime:   f.StartTime,
		EndTime:     f.EndTime,
		ServiceDays: nonNil(f.ServiceDays),
		PhotoURL:    f.PhotoURL,
		Skills:      []string{},
		ZipCodes:    []string{},
	}
	if a := f.Application; a != nil {
		resp.FirstName = a.FirstName
		resp.LastName = a.LastName
		resp.PhoneNumber = a.PhoneNumber
		resp.YearsOfExperience = a.YearsOfExperience
		resp.Skills = nonNil(a.Skills)
		resp.ZipCodes = nonNil(a.ZipCodes)
	}
	return resp
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// matchesFilter reports whether f offers a skill containing skill and serves postal.
// Empty filters match everything.
func matchesFilter(f *models.ApprovedFreelancer, skill, postal string) bool {
	if f.Application == nil {
		return skill == "" && postal == ""
	}
	if skill != "" {
		found := false
		for _, s := range f.Application.Skills {
			if strings.Contains(strings.ToLower(s), skill) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if postal != "" {
		found := false
		for _, z := range f.Application.ZipCodes {
			if strings.TrimSpace(z) == postal {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type ratingRow struct {
	FreelancerID uuid.UUID
	Avg          float64
	N            int64
}

func (h *ProviderHandler) ratings(ids []uuid.UUID) (map[uuid.UUID]ratingRow, error) {
	out := map[uuid.UUID]ratingRow{}
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ratingRow
	err := h.DB.Model(&models.ServiceReview{}).
		Select("freelancer_id, AVG(rating) AS avg, COUNT(*) AS n").
		Where("freelancer_id IN ?", ids).
		Group("freelancer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.FreelancerID] = r
	}
	return out, nil
}

// List returns approved providers filtered by skill keyword and postal code.
func (h *ProviderHandler) List(c *fiber.Ctx) error {
	skill := strings.ToLower(strings.TrimSpace(c.Query("skill")))
	postal := strings.TrimSpace(c.Query("postal_code"))
	page, limit := pageQuery(c)

	// skills and postal codes are JSON columns, so matching happens here
	var all []models.ApprovedFreelancer
	if err := h.DB.Preload("Application").Order("created_at DESC").Find(&all).Error; err != nil {
		h.Log.WithError(err).Error("list providers")
		return fail500(c, "Failed to load freelancers")
	}

	matched := make([]*models.ApprovedFreelancer, 0, len(all))
	for i := range all {
		if matchesFilter(&all[i], skill, postal) {
			matched = append(matched, &all[i])
		}
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+limit, len(matched))
	pageItems := matched[start:end]

	ids := make([]uuid.UUID, len(pageItems))
	for i, f := range pageItems {
		ids[i] = f.ID
	}
	rates, err := h.ratings(ids)
	if err != nil {
		h.Log.WithError(err).Error("load provider ratings")
		return fail500(c, "Failed to load freelancers")
	}

	out := make([]ProviderResponse, len(pageItems))
	for i, f := range pageItems {
		out[i] = toProviderResponse(f)
		if r, ok := rates[f.ID]; ok {
			out[i].AverageRating = pricing.Round2(r.Avg)
			out[i].ReviewCount = r.N
		}
	}
	return c.JSON(paged(out, page, limit, total))
}

func (h *ProviderHandler) provider(c *fiber.Ctx) (*models.ApprovedFreelancer, error) {
	id, err := paramUUID(c, "id")
	if err != nil {
		return nil, err
	}
	f, err := h.Bookings.Provider(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, booking.ErrProviderNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Freelancer not found")
		}
		h.Log.WithError(err).Error("load provider")
		return nil, err
	}
	return f, nil
}

func (h *ProviderHandler) Get(c *fiber.Ctx) error {
	f, err := h.provider(c)
	if err != nil {
		return err
	}
	resp := toProviderResponse(f)
	rates, err := h.ratings([]uuid.UUID{f.ID})
	if err != nil {
		return fail500(c, "Failed to load freelancer")
	}
	if r, ok := rates[f.ID]; ok {
		resp.AverageRating = pricing.Round2(r.Avg)
		resp.ReviewCount = r.N
	}
	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// ServiceDays returns the weekdays the provider works.
func (h *ProviderHandler) ServiceDays(c *fiber.Ctx) error {
	f, err := h.provider(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"service_days": nonNil(f.ServiceDays),
			"start_time":   f.StartTime,
			"end_time":     f.EndTime,
		},
	})
}

// Slots lists the provider's time slots on ?date=YYYY-MM-DD.
func (h *ProviderHandler) Slots(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	date := strings.TrimSpace(c.Query("date"))

	slots, err := h.Bookings.Slots(c.UserContext(), id, date)
	if err != nil {
		var dayErr *availability.DayUnavailableError
		switch {
		case errors.As(err, &dayErr):
			return fail200(c, dayErr.Error(), fiber.Map{"data": fiber.Map{
				"day":          dayErr.Day,
				"service_days": nonNil(dayErr.Allowed),
			}})
		case errors.Is(err, availability.ErrInvalidDate):
			errs := FieldErrors{}
			errs.Add("date", "Invalid date, expected YYYY-MM-DD")
			return validationFail(c, errs)
		case errors.Is(err, booking.ErrProviderNotFound):
			return fail404(c, "Freelancer not found")
		}
		h.Log.WithError(err).WithField("freelancer_id", id).Error("generate slots")
		return fail500(c, "Failed to load time slots")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"date":  date,
			"slots": slots,
		},
	})
}

func (h *ProviderHandler) Reviews(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	reviews, err := h.Bookings.FreelancerReviews(c.UserContext(), id, limitQuery(c, 20))
	if err != nil {
		return fail500(c, "Failed to load reviews")
	}
	return c.JSON(fiber.Map{"success": true, "data": reviews})
}

package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/availability"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
)

type FreelancerDashboardHandler struct {
	DB       *gorm.DB
	Bookings *booking.Service
	Wallet   *wallet.WalletService
	Storage  storage.Storage
	Log      logrus.FieldLogger
}

func NewFreelancerDashboardHandler(db *gorm.DB, svc *booking.Service, w *wallet.WalletService, st storage.Storage, log logrus.FieldLogger) *FreelancerDashboardHandler {
	return &FreelancerDashboardHandler{DB: db, Bookings: svc, Wallet: w, Storage: st, Log: log}
}

// Routes mounts the dashboard; freelancer must restrict to the freelancer role.
func (h *FreelancerDashboardHandler) Routes(r fiber.Router, freelancer fiber.Handler) {
	g := r.Group("/freelancer", freelancer)
	g.Get("/dashboard/stats", h.GetDashboardStats)
	g.Get("/earnings", h.GetEarnings)
	g.Get("/profile", h.GetProfile)
	g.Put("/profile", h.UpdateProfile)
	g.Post("/profile/photo", h.UpdatePhoto)
}

func (h *FreelancerDashboardHandler) loadProfile(c *fiber.Ctx) (*models.ApprovedFreelancer, error) {
	userID, err := getAuth(c)
	if err != nil {
		return nil, err
	}
	f, err := h.Bookings.Provider(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, booking.ErrProviderNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}
		h.Log.WithError(err).WithField("user_id", userID).Error("load freelancer profile")
		return nil, err
	}
	return f, nil
}

// GetDashboardStats returns the summary shown on the freelancer dashboard.
func (h *FreelancerDashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	st, err := h.Bookings.Stats(c.UserContext(), userID)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Error("dashboard stats")
		return fail500(c, "Failed to load dashboard")
	}
	unread, err := h.Bookings.UnreadCount(c.UserContext(), userID)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Warn("count unread messages")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"stats":           st,
			"unread_messages": unread,
		},
	})
}

// GetEarnings returns the wallet balance and the latest ledger entries.
func (h *FreelancerDashboardHandler) GetEarnings(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	balance, err := h.Wallet.Balance(c.UserContext(), userID)
	if err != nil {
		return fail500(c, "Failed to load earnings")
	}
	history, err := h.Wallet.History(c.UserContext(), userID, limitQuery(c, 50))
	if err != nil {
		return fail500(c, "Failed to load earnings")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"balance":      balance,
			"transactions": history,
		},
	})
}

func (h *FreelancerDashboardHandler) GetProfile(c *fiber.Ctx) error {
	f, err := h.loadProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toProviderResponse(f)})
}

type UpdateFreelancerProfileReq struct {
	HourlyPay   float64  `json:"hourly_pay" validate:"gt=0"`
	StartTime   string   `json:"start_time" validate:"required"`
	EndTime     string   `json:"end_time" validate:"required"`
	ServiceDays []string `json:"service_days"`
}

// UpdateProfile sets the rate, working window and service days.
func (h *FreelancerDashboardHandler) UpdateProfile(c *fiber.Ctx) error {
	f, err := h.loadProfile(c)
	if err != nil {
		return err
	}

	var req UpdateFreelancerProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)

	errs := validateStruct(&req)
	if errs == nil {
		errs = FieldErrors{}
	}
	if _, ok := errs["start_time"]; !ok {
		if v, err := availability.NormalizeClock(req.StartTime); err != nil {
			errs.Add("start_time", "Use HH:MM")
		} else {
			req.StartTime = v
		}
	}
	if _, ok := errs["end_time"]; !ok {
		if v, err := availability.NormalizeClock(req.EndTime); err != nil {
			errs.Add("end_time", "Use HH:MM")
		} else {
			req.EndTime = v
		}
	}
	if len(errs) == 0 {
		if err := availability.ValidateWindow(req.StartTime, req.EndTime); err != nil {
			errs.Add("end_time", "End time must be after start time")
		}
	}
	days, err := availability.NormalizeDays(req.ServiceDays)
	if err != nil {
		errs.Add("service_days", "Use weekday names, e.g. Monday")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	err = h.DB.Model(f).Updates(map[string]any{
		"hourly_pay":   req.HourlyPay,
		"start_time":   req.StartTime,
		"end_time":     req.EndTime,
		"service_days": datatypes.JSONSlice[string](days),
	}).Error
	if err != nil {
		h.Log.WithError(err).WithField("freelancer_id", f.ID).Error("update freelancer profile")
		return fail500(c, "Failed to update profile")
	}

	f.HourlyPay = req.HourlyPay
	f.StartTime = req.StartTime
	f.EndTime = req.EndTime
	f.ServiceDays = days

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    toProviderResponse(f),
	})
}

// UpdatePhoto replaces the profile photo from multipart field "photo".
func (h *FreelancerDashboardHandler) UpdatePhoto(c *fiber.Ctx) error {
	f, err := h.loadProfile(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return fail200(c, "photo is required (multipart field: photo)")
	}

	key, err := storeImage(c, h.Storage, storage.BucketProfilePhotos, f.ID, file)
	if err != nil {
		if errors.Is(err, errImageType) || errors.Is(err, errImageSize) {
			errs := FieldErrors{}
			errs.Add("photo", err.Error())
			return validationFail(c, errs)
		}
		h.Log.WithError(err).Error("store profile photo")
		return fail500(c, "Failed to save file")
	}

	publicURL := h.Storage.PublicURL(key)
	if err := h.DB.Model(f).Update("photo_url", publicURL).Error; err != nil {
		_ = h.Storage.Delete(c.UserContext(), key)
		return fail500(c, "Failed to update profile photo")
	}
	f.PhotoURL = publicURL

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Photo updated successfully",
		"data":    toProviderResponse(f),
	})
}

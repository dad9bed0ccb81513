package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/feed"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
)

type AdminHandler struct {
	DB       *gorm.DB
	Bookings *booking.Service
	Feed     *feed.Service
	Fees     *pricing.FeeService
	Log      logrus.FieldLogger
}

func NewAdminHandler(db *gorm.DB, svc *booking.Service, fs *feed.Service, fees *pricing.FeeService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{DB: db, Bookings: svc, Feed: fs, Fees: fees, Log: log}
}

// Routes mounts the admin dashboard; r must already be restricted to admins.
func (h *AdminHandler) Routes(r fiber.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/homeowners", h.Homeowners)
	r.Get("/freelancers", h.Freelancers)
	r.Get("/bookings/upcoming", h.UpcomingBookings)
	r.Get("/bookings/completed", h.CompletedBookings)
	r.Get("/posts", h.Posts)
	r.Get("/platform-fee", h.GetFee)
	r.Put("/platform-fee", h.UpdateFee)
}

type AdminSummary struct {
	PendingApplications int64 `json:"pending_applications"`
	Homeowners          int64 `json:"homeowners"`
	Freelancers         int64 `json:"freelancers"`
	UpcomingBookings    int64 `json:"upcoming_bookings"`
	CompletedBookings   int64 `json:"completed_bookings"`
	Posts               int64 `json:"posts"`
}

// Summary issues the dashboard counts concurrently.
func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	var sum AdminSummary
	g, ctx := errgroup.WithContext(c.UserContext())

	count := func(dst *int64, model any, where ...any) {
		g.Go(func() error {
			q := h.DB.WithContext(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		})
	}
	count(&sum.PendingApplications, &models.FreelancerApplication{}, "status = ?", models.ApplicationPending)
	count(&sum.Homeowners, &models.Homeowner{})
	count(&sum.Freelancers, &models.ApprovedFreelancer{})
	count(&sum.UpcomingBookings, &models.ServiceBooking{}, "status IN ?", models.ActiveBookingStatuses)
	count(&sum.CompletedBookings, &models.ServiceBooking{}, "status = ?", models.BookingCompleted)
	count(&sum.Posts, &models.Post{})

	if err := g.Wait(); err != nil {
		h.Log.WithError(err).Error("admin summary")
		return fail500(c, "Failed to load dashboard")
	}
	return c.JSON(fiber.Map{"success": true, "data": sum})
}

func (h *AdminHandler) Homeowners(c *fiber.Ctx) error {
	page, limit := pageQuery(c)

	var total int64
	if err := h.DB.Model(&models.Homeowner{}).Count(&total).Error; err != nil {
		return fail500(c, "Failed to load homeowners")
	}
	var out []models.Homeowner
	if err := h.DB.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&out).Error; err != nil {
		return fail500(c, "Failed to load homeowners")
	}
	return c.JSON(paged(out, page, limit, total))
}

func (h *AdminHandler) Freelancers(c *fiber.Ctx) error {
	page, limit := pageQuery(c)

	var total int64
	if err := h.DB.Model(&models.ApprovedFreelancer{}).Count(&total).Error; err != nil {
		return fail500(c, "Failed to load freelancers")
	}
	var rows []models.ApprovedFreelancer
	if err := h.DB.Preload("Application").Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return fail500(c, "Failed to load freelancers")
	}

	out := make([]ProviderResponse, len(rows))
	for i := range rows {
		out[i] = toProviderResponse(&rows[i])
	}
	return c.JSON(paged(out, page, limit, total))
}

func (h *AdminHandler) bookings(c *fiber.Ctx, statuses []models.BookingStatus) error {
	page, limit := pageQuery(c)
	bs, total, err := h.Bookings.ByStatus(c.UserContext(), statuses, booking.Page{Page: page, Limit: limit})
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(paged(toBookingResponses(bs), page, limit, total))
}

func (h *AdminHandler) UpcomingBookings(c *fiber.Ctx) error {
	return h.bookings(c, models.ActiveBookingStatuses)
}

func (h *AdminHandler) CompletedBookings(c *fiber.Ctx) error {
	return h.bookings(c, []models.BookingStatus{models.BookingCompleted})
}

func (h *AdminHandler) Posts(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	posts, total, err := h.Feed.ListPosts(c.UserContext(), feed.ListFilter{Page: page, Limit: limit})
	if err != nil {
		h.Log.WithError(err).Error("admin list posts")
		return fail500(c, "Failed to load posts")
	}
	return c.JSON(paged(posts, page, limit, total))
}

func (h *AdminHandler) GetFee(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.Fees.Current(c.UserContext())})
}

type updateFeeReq struct {
	FeePercentage float64 `json:"fee_percentage" validate:"gte=0,lte=100"`
}

// UpdateFee replaces the active platform fee.
func (h *AdminHandler) UpdateFee(c *fiber.Ctx) error {
	var req updateFeeReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	fee, err := h.Fees.Update(c.UserContext(), req.FeePercentage)
	if err != nil {
		h.Log.WithError(err).Error("update platform fee")
		return fail500(c, "Failed to update platform fee")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Platform fee updated",
		"data":    fee,
	})
}

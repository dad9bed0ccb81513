package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/availability"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
)

type BookingHandler struct {
	Bookings *booking.Service
	Fees     *pricing.FeeService
	Log      logrus.FieldLogger
}

func NewBookingHandler(svc *booking.Service, fees *pricing.FeeService, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{Bookings: svc, Fees: fees, Log: log}
}

// Routes mounts booking endpoints on a router that already requires a session.
func (h *BookingHandler) Routes(r fiber.Router, homeowner, freelancer fiber.Handler) {
	g := r.Group("/bookings")
	g.Get("/estimate", h.Estimate)
	g.Post("/", homeowner, h.Create)
	g.Get("/upcoming", homeowner, h.HomeownerUpcoming)
	g.Get("/history", homeowner, h.HomeownerHistory)
	g.Get("/reviewable", homeowner, h.Reviewable)
	g.Get("/:id", h.Get)
	g.Patch("/:id/accept", freelancer, h.Accept)
	g.Patch("/:id/decline", freelancer, h.Decline)
	g.Patch("/:id/start", freelancer, h.Start)
	g.Patch("/:id/request-payment", freelancer, h.RequestPayment)
	g.Patch("/:id/cancel", homeowner, h.Cancel)
	g.Post("/:id/pay", homeowner, h.Pay)
	g.Post("/:id/review", homeowner, h.Review)

	f := r.Group("/freelancer/jobs", freelancer)
	f.Get("/", h.FreelancerUpcoming)
	f.Get("/completed", h.FreelancerCompleted)
}

// BookingResponse is the booking as shown to either party.
type BookingResponse struct {
	ID                  uuid.UUID `json:"booking_id"`
	Reference           string    `json:"reference"`
	HomeownerID         uuid.UUID `json:"homeowner_id"`
	FreelancerID        uuid.UUID `json:"freelancer_id"`
	HomeownerName       string    `json:"homeowner_name"`
	FreelancerName      string    `json:"freelancer_name,omitempty"`
	ServiceTypes        []string  `json:"service_type"`
	BookingDate         string    `json:"booking_date"`
	BookingTime         string    `json:"booking_time"`
	BookingEndTime      string    `json:"booking_end_time"`
	ServiceAddress      string    `json:"service_address"`
	SpecialInstructions string    `json:"special_instructions"`
	HourlyRate          float64   `json:"hourly_rate"`
	EstimatedDuration   string    `json:"estimated_duration"`
	Subtotal            float64   `json:"subtotal"`
	FeePercentage       float64   `json:"fee_percentage"`
	PlatformFee         float64   `json:"platform_fee"`
	TaxPercentage       float64   `json:"tax_percentage"`
	Tax                 float64   `json:"tax"`
	TotalEstimate       float64   `json:"total_estimate"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}

func toBookingResponse(b *models.ServiceBooking) BookingResponse {
	resp := BookingResponse{
		ID:                  b.ID,
		Reference:           b.Reference,
		HomeownerID:         b.HomeownerID,
		FreelancerID:        b.FreelancerID,
		HomeownerName:       strings.TrimSpace(b.FirstName + " " + b.LastName),
		ServiceTypes:        []string(b.ServiceTypes),
		BookingDate:         b.BookingDate,
		BookingTime:         b.BookingTime,
		BookingEndTime:      b.BookingEndTime,
		ServiceAddress:      b.ServiceAddress,
		SpecialInstructions: b.SpecialInstructions,
		HourlyRate:          b.HourlyRate,
		EstimatedDuration:   b.EstimatedDuration,
		Subtotal:            b.Subtotal,
		FeePercentage:       b.FeePercentage,
		PlatformFee:         b.PlatformFee,
		TaxPercentage:       b.TaxPercentage,
		Tax:                 b.Tax,
		TotalEstimate:       b.TotalEstimate,
		Status:              string(b.Status),
		CreatedAt:           b.CreatedAt,
	}
	if resp.ServiceTypes == nil {
		resp.ServiceTypes = []string{}
	}
	if b.Freelancer != nil && b.Freelancer.Application != nil {
		resp.FreelancerName = b.Freelancer.Application.FirstName + " " + b.Freelancer.Application.LastName
	}
	return resp
}

func toBookingResponses(bs []models.ServiceBooking) []BookingResponse {
	out := make([]BookingResponse, len(bs))
	for i := range bs {
		out[i] = toBookingResponse(&bs[i])
	}
	return out
}

// bookingFail maps booking service errors onto responses.
func bookingFail(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	var ve booking.ValidationError
	var dayErr *availability.DayUnavailableError
	var te *booking.TransitionError

	switch {
	case errors.As(err, &ve):
		return validationFail(c, fromServiceErrors(ve))
	case errors.As(err, &dayErr):
		errs := FieldErrors{}
		errs.Add("booking_date", dayErr.Error())
		return validationFail(c, errs)
	case errors.Is(err, availability.ErrInvalidDate):
		errs := FieldErrors{}
		errs.Add("booking_date", "Invalid date, expected YYYY-MM-DD")
		return validationFail(c, errs)
	case errors.Is(err, availability.ErrSlotUnavailable):
		errs := FieldErrors{}
		errs.Add("booking_time", "This time slot is not offered on the selected date")
		return validationFail(c, errs)
	case errors.Is(err, booking.ErrSlotTaken):
		return fail200(c, "This time slot was just booked. Please pick another one")
	case errors.Is(err, booking.ErrNoHourlyRate):
		return fail200(c, "This freelancer is not taking bookings yet")
	case errors.As(err, &te):
		return fail200(c, "Booking is "+string(te.From)+" and cannot be moved to "+string(te.To))
	case errors.Is(err, booking.ErrNotReviewable):
		return fail200(c, "Only completed bookings can be reviewed")
	case errors.Is(err, booking.ErrAlreadyReviewed):
		return fail200(c, "You have already reviewed this booking")
	case errors.Is(err, booking.ErrEmptyMessage):
		errs := FieldErrors{}
		errs.Add("content", err.Error())
		return validationFail(c, errs)
	case errors.Is(err, booking.ErrNotFound):
		return fail404(c, "Booking not found")
	case errors.Is(err, booking.ErrProviderNotFound):
		return fail404(c, "Freelancer not found")
	case errors.Is(err, booking.ErrHomeownerNotFound):
		return fail404(c, "Homeowner profile not found")
	case errors.Is(err, booking.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have access to this booking",
		})
	}

	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error("booking request failed")
	return fail500(c, "Something went wrong, please try again")
}

// Estimate prices a booking with the given freelancer before it is made.
func (h *BookingHandler) Estimate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Query("provider_id"))
	if err != nil {
		errs := FieldErrors{}
		errs.Add("provider_id", "This field is required")
		return validationFail(c, errs)
	}

	f, err := h.Bookings.Provider(c.UserContext(), id)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"estimated_duration": pricing.EstimatedDuration,
			"breakdown":          h.Fees.Estimate(c.UserContext(), f.HourlyPay).Rounded(),
		},
	})
}

type CreateBookingReq struct {
	FreelancerID        string   `json:"freelancer_id"`
	ServiceTypes        []string `json:"service_type"`
	BookingDate         string   `json:"booking_date"`
	BookingTime         string   `json:"booking_time"`
	ServiceAddress      string   `json:"service_address"`
	SpecialInstructions string   `json:"special_instructions"`
}

func (h *BookingHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	var req CreateBookingReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	// an unparsable id is reported by the service as a missing freelancer
	fid, _ := uuid.Parse(strings.TrimSpace(req.FreelancerID))

	b, err := h.Bookings.Create(c.UserContext(), userID, booking.CreateInput{
		FreelancerID:        fid,
		ServiceTypes:        req.ServiceTypes,
		BookingDate:         strings.TrimSpace(req.BookingDate),
		BookingTime:         req.BookingTime,
		ServiceAddress:      req.ServiceAddress,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		return bookingFail(c, h.Log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Booking confirmed",
		"data":    toBookingResponse(b),
	})
}

func (h *BookingHandler) Get(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	b, err := h.Bookings.Get(c.UserContext(), id, actor)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": toBookingResponse(b)})
}

// transition runs a status change and returns the updated booking.
func (h *BookingHandler) transition(c *fiber.Ctx, message string, fn func(ctx *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error)) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	b, err := fn(c, id, actor)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    toBookingResponse(b),
	})
}

func (h *BookingHandler) Accept(c *fiber.Ctx) error {
	return h.transition(c, "Booking accepted", func(c *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error) {
		return h.Bookings.Accept(c.UserContext(), id, a)
	})
}

func (h *BookingHandler) Decline(c *fiber.Ctx) error {
	return h.transition(c, "Booking declined", func(c *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error) {
		return h.Bookings.Decline(c.UserContext(), id, a)
	})
}

func (h *BookingHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, "Job started", func(c *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error) {
		return h.Bookings.Start(c.UserContext(), id, a)
	})
}

func (h *BookingHandler) RequestPayment(c *fiber.Ctx) error {
	return h.transition(c, "Payment requested", func(c *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error) {
		return h.Bookings.RequestPayment(c.UserContext(), id, a)
	})
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, "Booking cancelled", func(c *fiber.Ctx, id uuid.UUID, a booking.Actor) (*models.ServiceBooking, error) {
		return h.Bookings.Cancel(c.UserContext(), id, a)
	})
}

type PayReq struct {
	NameOnAccount string `json:"name_on_account"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
	AccountType   string `json:"account_type"`
}

// Pay records the simulated payment and completes the booking.
func (h *BookingHandler) Pay(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req PayReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	b, p, err := h.Bookings.Pay(c.UserContext(), id, actor, booking.PaymentInput{
		NameOnAccount: req.NameOnAccount,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		AccountType:   req.AccountType,
	})
	if err != nil {
		return bookingFail(c, h.Log, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment successful",
		"data": fiber.Map{
			"booking": toBookingResponse(b),
			"payment": p,
		},
	})
}

func (h *BookingHandler) HomeownerUpcoming(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	bs, err := h.Bookings.HomeownerUpcoming(c.UserContext(), userID)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": toBookingResponses(bs)})
}

func (h *BookingHandler) HomeownerHistory(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	page, limit := pageQuery(c)
	bs, total, err := h.Bookings.HomeownerHistory(c.UserContext(), userID, booking.Page{Page: page, Limit: limit})
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(paged(toBookingResponses(bs), page, limit, total))
}

func (h *BookingHandler) FreelancerUpcoming(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	bs, err := h.Bookings.FreelancerUpcoming(c.UserContext(), userID)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": toBookingResponses(bs)})
}

func (h *BookingHandler) FreelancerCompleted(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	page, limit := pageQuery(c)
	bs, total, err := h.Bookings.FreelancerCompleted(c.UserContext(), userID, booking.Page{Page: page, Limit: limit})
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(paged(toBookingResponses(bs), page, limit, total))
}

// Reviewable lists completed bookings the homeowner has not reviewed yet.
func (h *BookingHandler) Reviewable(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}
	bs, err := h.Bookings.Reviewable(c.UserContext(), userID)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": toBookingResponses(bs)})
}

type ReviewReq struct {
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	ReviewText string `json:"review_text" validate:"max=2000"`
}

func (h *BookingHandler) Review(c *fiber.Ctx) error {
	actor, err := getActor(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req ReviewReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.ReviewText = strings.TrimSpace(req.ReviewText)
	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	r, err := h.Bookings.SubmitReview(c.UserContext(), id, actor, req.Rating, req.ReviewText)
	if err != nil {
		return bookingFail(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Thanks for your review",
		"data":    r,
	})
}

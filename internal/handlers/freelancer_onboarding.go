package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/approval"
)

// ApplicationHandler takes provider applications from the public form and lets
// admins approve or reject them.
type ApplicationHandler struct {
	DB        *gorm.DB
	Approval  *approval.Service
	Documents *approval.Documents
	Log       logrus.FieldLogger
}

func NewApplicationHandler(db *gorm.DB, ap *approval.Service, docs *approval.Documents, log logrus.FieldLogger) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Approval: ap, Documents: docs, Log: log}
}

// Routes mounts the public apply form.
func (h *ApplicationHandler) Routes(r fiber.Router) {
	g := r.Group("/applications")
	g.Post("/", h.Apply)
	g.Post("/:id/documents", h.UploadDocuments)
}

// AdminRoutes mounts moderation; r must already be restricted to admins.
func (h *ApplicationHandler) AdminRoutes(r fiber.Router) {
	r.Get("/applications", h.Pending)
	r.Patch("/applications/:id", h.Review)
}

type paymentDetailsReq struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,min=4,max=17"`
	RoutingNumber string `json:"routing_number" validate:"required,numeric,len=9"`
}

type ApplyReq struct {
	FirstName         string            `json:"first_name" validate:"required,max=80"`
	LastName          string            `json:"last_name" validate:"required,max=80"`
	DateOfBirth       string            `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Email             string            `json:"email" validate:"required,email,max=150"`
	PhoneNumber       string            `json:"phone_number" validate:"required,min=8,max=30"`
	Address           string            `json:"address" validate:"required,max=500"`
	YearsOfExperience int               `json:"years_of_experience" validate:"gte=0,lte=80"`
	Skills            []string          `json:"skill" validate:"required,min=1,dive,required,max=60"`
	ZipCodes          []string          `json:"zip_codes" validate:"required,min=1,dive,required,max=10"`
	IdentityNumber    string            `json:"identity_number" validate:"required,min=4,max=20"`
	PaymentDetails    paymentDetailsReq `json:"payment_details"`
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

// Apply records a pending provider application.
func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	var req ApplyReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)
	req.PhoneNumber = normalizePhone(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)
	req.IdentityNumber = strings.TrimSpace(req.IdentityNumber)
	req.Skills = trimAll(req.Skills)
	req.ZipCodes = trimAll(req.ZipCodes)
	req.PaymentDetails.AccountNumber = strings.TrimSpace(req.PaymentDetails.AccountNumber)
	req.PaymentDetails.RoutingNumber = strings.TrimSpace(req.PaymentDetails.RoutingNumber)

	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	errs := FieldErrors{}
	taken, err := emailTaken(h.DB, req.Email)
	if err != nil {
		return fail500(c, "Something went wrong, please try again")
	}
	if taken {
		errs.Add("email", "Email is already registered")
	}
	var pending int64
	if err := h.DB.Model(&models.FreelancerApplication{}).
		Where("email = ? AND status = ?", req.Email, models.ApplicationPending).
		Count(&pending).Error; err != nil {
		return fail500(c, "Something went wrong, please try again")
	}
	if pending > 0 {
		errs.Add("email", "An application with this email is already under review")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	app := models.FreelancerApplication{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
		YearsOfExperience: req.YearsOfExperience,
		Skills:            datatypes.JSONSlice[string](req.Skills),
		ZipCodes:          datatypes.JSONSlice[string](req.ZipCodes),
		IdentityNumber:    req.IdentityNumber,
		PaymentDetails: datatypes.NewJSONType(models.PaymentDetails{
			AccountNumber: req.PaymentDetails.AccountNumber,
			RoutingNumber: req.PaymentDetails.RoutingNumber,
		}),
		Status: models.ApplicationPending,
	}
	if err := h.DB.Create(&app).Error; err != nil {
		h.Log.WithError(err).Error("create application")
		return fail500(c, "Failed to submit application")
	}

	h.Log.WithField("application_id", app.ID).Info("application submitted")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Application submitted",
		"data":    app,
	})
}

func documentFile(fh *multipart.FileHeader) approval.DocumentFile {
	return approval.DocumentFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UploadDocuments stores the PDFs sent in the multipart field "documents".
func (h *ApplicationHandler) UploadDocuments(c *fiber.Ctx) error {
	appID, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail200(c, "documents are required (multipart field: documents)")
	}

	var files []approval.DocumentFile
	for _, fh := range form.File["documents"] {
		files = append(files, documentFile(fh))
	}

	docs, err := h.Documents.Upload(c.UserContext(), appID, files)
	if err != nil {
		var de *approval.DocumentError
		switch {
		case errors.Is(err, approval.ErrNoDocuments):
			errs := FieldErrors{}
			errs.Add("documents", err.Error())
			return validationFail(c, errs)
		case errors.As(err, &de):
			errs := FieldErrors{}
			errs.Add("documents", de.Error())
			return validationFail(c, errs)
		case errors.Is(err, approval.ErrNotFound):
			return fail404(c, "Application not found")
		}
		h.Log.WithError(err).WithField("application_id", appID).Error("upload documents")
		return fail500(c, "Failed to upload documents")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Documents uploaded",
		"data":    docs,
	})
}

// Pending lists applications waiting for review.
func (h *ApplicationHandler) Pending(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	apps, total, err := h.Approval.Pending(c.UserContext(), page, limit)
	if err != nil {
		h.Log.WithError(err).Error("list pending applications")
		return fail500(c, "Failed to load applications")
	}
	return c.JSON(paged(apps, page, limit, total))
}

type reviewReq struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Review approves or rejects a pending application.
func (h *ApplicationHandler) Review(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req reviewReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	res, err := h.Approval.Transition(c.UserContext(), id, models.ApplicationStatus(req.Status))
	if err != nil {
		var te *approval.TransitionError
		switch {
		case errors.Is(err, approval.ErrNotFound):
			return fail404(c, "Application not found")
		case errors.Is(err, approval.ErrInvalidTarget):
			errs := FieldErrors{}
			errs.Add("status", err.Error())
			return validationFail(c, errs)
		case errors.As(err, &te):
			msg := "Failed to update application, it has been left " + string(te.Current)
			if errors.Is(err, approval.ErrInvalidTransition) {
				msg = "Application is already " + string(te.Current)
			}
			return fail200(c, msg, fiber.Map{"data": fiber.Map{"status": te.Current}})
		}
		return fail500(c, "Failed to update application")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Application " + req.Status,
		"data":    res,
	})
}

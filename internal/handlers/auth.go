package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

type AuthHandler struct {
	DB       *gorm.DB
	Sessions *session.Manager
	Log      logrus.FieldLogger
}

func NewAuthHandler(db *gorm.DB, sessions *session.Manager, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{DB: db, Sessions: sessions, Log: log}
}

func setSessionCookie(c *fiber.Ctx, token string, expiresMin int) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   expiresMin * 60,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})
}

func userPayload(u *models.User) fiber.Map {
	return fiber.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

// startSession signs u in and sets the session cookie.
func (h *AuthHandler) startSession(c *fiber.Ctx, u *models.User) error {
	_, token, err := h.Sessions.Init(c.UserContext(), u)
	if err != nil {
		h.Log.WithError(err).WithField("user_id", u.ID).Error("init session")
		return err
	}
	setSessionCookie(c, token, h.Sessions.ExpiresMin)
	return nil
}

type SignupReq struct {
	FirstName   string `json:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" validate:"required,max=80"`
	Email       string `json:"email" validate:"required,email,max=150"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=8,max=30"`
	Address     string `json:"address" validate:"max=500"`
}

// Signup registers a homeowner and signs them in.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = normalizeEmail(req.Email)
	req.PhoneNumber = normalizePhone(req.PhoneNumber)
	req.Address = strings.TrimSpace(req.Address)

	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	taken, err := emailTaken(h.DB, req.Email)
	if err != nil {
		h.Log.WithError(err).Error("check email")
		return fail500(c, "Something went wrong, please try again")
	}
	if taken {
		errs := FieldErrors{}
		errs.Add("email", "Email is already registered")
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return fail500(c, "Failed to process password")
	}

	u := models.User{
		Name:     req.FirstName + " " + req.LastName,
		Email:    req.Email,
		Password: pw,
		Role:     models.RoleHomeowner,
		IsActive: true,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Homeowner{
			ID:        u.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.PhoneNumber,
			Address:   req.Address,
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			errs := FieldErrors{}
			errs.Add("email", "Email is already registered")
			return validationFail(c, errs)
		}
		h.Log.WithError(err).Error("create homeowner")
		return fail500(c, "Failed to create account")
	}

	if err := h.startSession(c, &u); err != nil {
		return fail500(c, "Account created, but sign in failed")
	}

	h.Log.WithField("user_id", u.ID).Info("homeowner signed up")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created",
		"data":    fiber.Map{"user": userPayload(&u)},
	})
}

type LoginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return fail200(c, "Invalid body")
	}

	req.Email = normalizeEmail(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		if !isNotFound(err) {
			h.Log.WithError(err).Error("load user")
			return fail500(c, "Something went wrong, please try again")
		}
		return fail200(c, "Invalid email or password")
	}

	if !u.IsActive {
		return fail200(c, "Account is disabled")
	}
	if !utils.CheckPassword(u.Password, req.Password) {
		return fail200(c, "Invalid email or password")
	}

	if err := h.startSession(c, &u); err != nil {
		return fail500(c, "Failed to sign in")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Signed in",
		"data":    fiber.Map{"user": userPayload(&u)},
	})
}

// Logout ends the current session, if any, and clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if s := session.From(c); s != nil {
		if err := h.Sessions.Teardown(c.UserContext(), s); err != nil {
			h.Log.WithError(err).WithField("session_id", s.ID).Error("teardown session")
			return fail500(c, "Failed to sign out")
		}
	}
	clearSessionCookie(c)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Signed out",
	})
}

// Session returns the signed-in user.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	s := session.From(c)
	if s == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    s,
	})
}

type CreateAdminReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// CreateAdmin adds another administrator.
func (h *AuthHandler) CreateAdmin(c *fiber.Ctx) error {
	var req CreateAdminReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if errs := validateStruct(&req); len(errs) > 0 {
		return validationFail(c, errs)
	}

	taken, err := emailTaken(h.DB, req.Email)
	if err != nil {
		return fail500(c, "Something went wrong, please try again")
	}
	if taken {
		errs := FieldErrors{}
		errs.Add("email", "Email is already registered")
		return validationFail(c, errs)
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return fail500(c, "Failed to process password")
	}

	u := models.User{Name: req.Name, Email: req.Email, Password: pw, Role: models.RoleAdmin, IsActive: true}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Admin{ID: u.ID, Name: u.Name, Email: u.Email}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			errs := FieldErrors{}
			errs.Add("email", "Email is already registered")
			return validationFail(c, errs)
		}
		h.Log.WithError(err).Error("create admin")
		return fail500(c, "Failed to create admin")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Admin created",
		"data":    userPayload(&u),
	})
}

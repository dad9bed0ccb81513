package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	DB              *gorm.DB
	Sessions        *session.Manager
	Log             logrus.FieldLogger
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func tempCookie(name, value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   maxAge,
	}
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	next := c.Query("next", "/dashboard")
	st := randomState(32)

	c.Cookie(tempCookie("oauth_state", st, 10*60))
	c.Cookie(tempCookie("oauth_next", next, 10*60))

	authURL := h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline)
	return c.Redirect(authURL, http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code/state")
	}

	stCookie := c.Cookies("oauth_state")
	next := c.Cookies("oauth_next")
	if stCookie == "" || stCookie != state {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state")
	}

	tok, err := h.oauthCfg().Exchange(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to exchange code")
	}

	client := h.oauthCfg().Client(c.Context(), tok)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to fetch userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to decode userinfo")
	}

	email := normalizeEmail(gu.Email)
	if email == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Email not found from Google")
	}

	u, err := h.upsertHomeowner(email, gu)
	if err != nil {
		h.Log.WithError(err).WithField("email", email).Error("google sign-in")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create account")
	}

	if !u.IsActive {
		return c.Redirect(h.FrontendBaseURL+"/auth/login?err="+url.QueryEscape("Account is disabled"), http.StatusTemporaryRedirect)
	}

	_, token, err := h.Sessions.Init(c.UserContext(), u)
	if err != nil {
		h.Log.WithError(err).Error("init session")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to sign in")
	}
	setSessionCookie(c, token, h.Sessions.ExpiresMin)

	c.Cookie(tempCookie("oauth_state", "", -1))
	c.Cookie(tempCookie("oauth_next", "", -1))

	// only same-site paths
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	return c.Redirect(h.FrontendBaseURL+next, http.StatusTemporaryRedirect)
}

// upsertHomeowner returns the user for email, creating a homeowner account on
// first sign-in.
func (h *GoogleOAuthHandler) upsertHomeowner(email string, gu googleUserInfo) (*models.User, error) {
	var u models.User
	err := h.DB.Where("email = ?", email).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	first, last := strings.TrimSpace(gu.GivenName), strings.TrimSpace(gu.FamilyName)
	if first == "" {
		first, last, _ = strings.Cut(strings.TrimSpace(gu.Name), " ")
	}
	if first == "" {
		first = strings.Split(email, "@")[0]
	}

	// not usable for password sign-in
	hashed, err := utils.HashPassword(randomState(24))
	if err != nil {
		return nil, err
	}

	u = models.User{
		Name:     strings.TrimSpace(first + " " + last),
		Email:    email,
		Password: hashed,
		Role:     models.RoleHomeowner,
		IsActive: true,
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&models.Homeowner{ID: u.ID, FirstName: first, LastName: last, Email: email}).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

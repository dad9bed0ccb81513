package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/db/dbtest"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/logger"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/approval"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/booking"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/feed"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/pricing"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/wallet"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/utils"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := dbtest.New(t)
	log := logger.Discard()

	store, err := storage.NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	sessions := session.NewManager(session.NewMemoryStore(), nil, log, "test-secret", 60)
	fees := pricing.NewFeeService(gdb, nil, log, 10, 7)
	wallets := wallet.NewWalletService(gdb)
	bookings := booking.NewService(gdb, fees, wallets, nil, log)
	posts := feed.NewService(gdb, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	r := &Router{
		Sessions:     sessions,
		Log:          log,
		Auth:         NewAuthHandler(gdb, sessions, log),
		Categories:   NewCategoryHandler(gdb),
		Providers:    NewProviderHandler(gdb, bookings, log),
		Applications: NewApplicationHandler(gdb, approval.NewService(gdb, log), approval.NewDocuments(gdb, store, log), log),
		Bookings:     NewBookingHandler(bookings, fees, log),
		Messages:     NewMessageHandler(bookings, log),
		Feed:         NewFeedHandler(posts, store, log),
		Freelancer:   NewFreelancerDashboardHandler(gdb, bookings, wallets, store, log),
		Homeowner:    NewHomeownerHandler(gdb, log),
		Admin:        NewAdminHandler(gdb, bookings, posts, fees, log),
	}
	r.Mount(app)
	return &testEnv{app: app, db: gdb, sessions: sessions}
}

type apiResp struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) (*http.Response, apiResp) {
	t.Helper()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	body, _ := io.ReadAll(resp.Body)
	var out apiResp
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, body, err)
		}
	}
	return resp, out
}

func (e *testEnv) call(t *testing.T, method, path string, body any, token string) (*http.Response, apiResp) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return e.do(t, req, token)
}

func (e *testEnv) multipart(t *testing.T, path string, fields map[string]string, fileField, fileName string, content []byte, token string) (*http.Response, apiResp) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(content)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, token)
}

func (e *testEnv) login(t *testing.T, u *models.User) string {
	t.Helper()
	_, tok, err := e.sessions.Init(context.Background(), u)
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	return tok
}

func (e *testEnv) createAdmin(t *testing.T) string {
	t.Helper()
	pw, _ := utils.HashPassword("admin-password")
	u := models.User{Name: "Ada Admin", Email: "admin@example.com", Password: pw, Role: models.RoleAdmin, IsActive: true}
	if err := e.db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	if err := e.db.Create(&models.Admin{ID: u.ID, Name: u.Name, Email: u.Email}).Error; err != nil {
		t.Fatal(err)
	}
	return e.login(t, &u)
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c.Value
		}
	}
	return ""
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// nextWeekday returns the first date after today falling on wd.
func nextWeekday(wd time.Weekday) string {
	d := time.Now().UTC().AddDate(0, 0, 1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

var signupBody = map[string]any{
	"first_name":   "Hana",
	"last_name":    "Owner",
	"email":        "Hana@Example.com",
	"password":     "secret123",
	"phone_number": "555-123-4567",
	"address":      "1 Main St",
}

func TestSignupLoginLogout(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.call(t, http.MethodPost, "/api/auth/signup", signupBody, "")
	if resp.StatusCode != fiber.StatusCreated || !body.Success {
		t.Fatalf("signup: %d %+v", resp.StatusCode, body)
	}
	tok := sessionCookie(resp)
	if tok == "" {
		t.Fatal("signup did not set the session cookie")
	}

	var ho models.Homeowner
	if err := e.db.First(&ho, "email = ?", "hana@example.com").Error; err != nil {
		t.Fatalf("homeowner profile not created: %v", err)
	}

	_, dup := e.call(t, http.MethodPost, "/api/auth/signup", signupBody, "")
	if dup.Success || len(dup.Errors["email"]) == 0 {
		t.Fatalf("duplicate signup should fail on email, got %+v", dup)
	}

	_, bad := e.call(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "hana@example.com", "password": "wrong"}, "")
	if bad.Success {
		t.Fatal("login with wrong password succeeded")
	}

	resp, ok := e.call(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "hana@example.com", "password": "secret123"}, "")
	if !ok.Success || sessionCookie(resp) == "" {
		t.Fatalf("login: %+v", ok)
	}
	tok = sessionCookie(resp)

	resp, sess := e.call(t, http.MethodGet, "/api/auth/session", nil, tok)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("session: %d", resp.StatusCode)
	}
	if s := decode[session.Session](t, sess.Data); s.Role != models.RoleHomeowner {
		t.Fatalf("session role = %s", s.Role)
	}

	e.call(t, http.MethodPost, "/api/auth/logout", nil, tok)
	if resp, _ := e.call(t, http.MethodGet, "/api/auth/session", nil, tok); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("session after logout: %d", resp.StatusCode)
	}
}

func TestSignupValidation(t *testing.T) {
	e := newTestEnv(t)

	_, body := e.call(t, http.MethodPost, "/api/auth/signup", map[string]any{"email": "not-an-email", "password": "123"}, "")
	if body.Success || body.Message != "Validation error" {
		t.Fatalf("expected validation error, got %+v", body)
	}
	for _, field := range []string{"first_name", "last_name", "email", "password"} {
		if len(body.Errors[field]) == 0 {
			t.Errorf("missing error for %s: %v", field, body.Errors)
		}
	}
}

func TestRoleGates(t *testing.T) {
	e := newTestEnv(t)
	ho := models.User{ID: uuid.New(), Name: "H", Role: models.RoleHomeowner}
	tok := e.login(t, &ho)

	if resp, _ := e.call(t, http.MethodGet, "/api/admin/summary", nil, ""); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous admin summary: %d", resp.StatusCode)
	}
	if resp, _ := e.call(t, http.MethodGet, "/api/admin/summary", nil, tok); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("homeowner admin summary: %d", resp.StatusCode)
	}
	if resp, _ := e.call(t, http.MethodGet, "/api/freelancer/profile", nil, tok); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("homeowner freelancer profile: %d", resp.StatusCode)
	}
}

func applyBody(email string) map[string]any {
	return map[string]any{
		"first_name":          "Pat",
		"last_name":           "Plumber",
		"date_of_birth":       "1990-04-01",
		"email":               email,
		"phone_number":        "555 987 6543",
		"address":             "9 Pipe Rd",
		"years_of_experience": 7,
		"skill":               []string{"Plumbing", "Drain Cleaning"},
		"zip_codes":           []string{"94110", "94103"},
		"identity_number":     "123-45-6789",
		"payment_details": map[string]string{
			"account_number": "000123456",
			"routing_number": "021000021",
		},
	}
}

func TestApplyValidation(t *testing.T) {
	e := newTestEnv(t)

	b := applyBody("pat@example.com")
	delete(b, "skill")
	b["payment_details"] = map[string]string{"account_number": "12", "routing_number": "12ab"}

	_, body := e.call(t, http.MethodPost, "/api/applications", b, "")
	if body.Success {
		t.Fatal("expected validation failure")
	}
	for _, field := range []string{"skill", "account_number", "routing_number"} {
		if len(body.Errors[field]) == 0 {
			t.Errorf("missing error for %s: %v", field, body.Errors)
		}
	}
}

func TestApplicationDocuments(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.call(t, http.MethodPost, "/api/applications", applyBody("pat@example.com"), "")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("apply: %d %+v", resp.StatusCode, body)
	}
	app := decode[models.FreelancerApplication](t, body.Data)

	_, bad := e.multipart(t, "/api/applications/"+app.ID.String()+"/documents", nil, "documents", "license.txt", []byte("text"), "")
	if bad.Success || len(bad.Errors["documents"]) == 0 {
		t.Fatalf("non-PDF accepted: %+v", bad)
	}

	resp, ok := e.multipart(t, "/api/applications/"+app.ID.String()+"/documents", nil, "documents", "license.pdf", []byte("%PDF-1.4"), "")
	if resp.StatusCode != fiber.StatusCreated || !ok.Success {
		t.Fatalf("upload: %d %+v", resp.StatusCode, ok)
	}
	docs := decode[[]models.Document](t, ok.Data)
	if len(docs) != 1 || docs[0].MediaName != "license.pdf" {
		t.Fatalf("docs = %+v", docs)
	}

	resp, _ = e.multipart(t, "/api/applications/"+uuid.NewString()+"/documents", nil, "documents", "license.pdf", []byte("%PDF-1.4"), "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown application: %d", resp.StatusCode)
	}
}

// approvedFreelancer runs the apply and approve flow and signs the new
// provider in with the initial password.
func approvedFreelancer(t *testing.T, e *testEnv, adminTok string) (uuid.UUID, string) {
	t.Helper()

	_, body := e.call(t, http.MethodPost, "/api/applications", applyBody("pat@example.com"), "")
	app := decode[models.FreelancerApplication](t, body.Data)

	_, list := e.call(t, http.MethodGet, "/api/admin/applications", nil, adminTok)
	if pending := decode[[]models.FreelancerApplication](t, list.Data); len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}

	_, res := e.call(t, http.MethodPatch, "/api/admin/applications/"+app.ID.String(), map[string]string{"status": "approved"}, adminTok)
	if !res.Success {
		t.Fatalf("approve: %+v", res)
	}
	result := decode[approval.Result](t, res.Data)
	if result.Freelancer == nil || result.Application.Status != models.ApplicationApproved {
		t.Fatalf("approve result = %+v", result)
	}

	_, again := e.call(t, http.MethodPatch, "/api/admin/applications/"+app.ID.String(), map[string]string{"status": "rejected"}, adminTok)
	if again.Success {
		t.Fatal("approved application was rejected afterwards")
	}

	resp, login := e.call(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "pat@example.com",
		"password": approval.InitialPassword("123-45-6789"),
	}, "")
	if !login.Success {
		t.Fatalf("freelancer login: %+v", login)
	}
	return result.Freelancer.ID, sessionCookie(resp)
}

func TestBookingFlow(t *testing.T) {
	e := newTestEnv(t)
	adminTok := e.createAdmin(t)
	fid, fTok := approvedFreelancer(t, e, adminTok)

	monday, tuesday := nextWeekday(time.Monday), nextWeekday(time.Tuesday)

	_, bad := e.call(t, http.MethodPut, "/api/freelancer/profile", map[string]any{
		"hourly_pay": 0, "start_time": "17:00", "end_time": "09:00", "service_days": []string{"Funday"},
	}, fTok)
	if bad.Success || len(bad.Errors["hourly_pay"]) == 0 || len(bad.Errors["service_days"]) == 0 {
		t.Fatalf("bad profile accepted: %+v", bad)
	}

	_, prof := e.call(t, http.MethodPut, "/api/freelancer/profile", map[string]any{
		"hourly_pay": 50, "start_time": "09:00", "end_time": "17:00", "service_days": []string{"monday"},
	}, fTok)
	if !prof.Success {
		t.Fatalf("update profile: %+v", prof)
	}

	_, list := e.call(t, http.MethodGet, "/api/providers?skill=drain&postal_code=94110", nil, "")
	if providers := decode[[]ProviderResponse](t, list.Data); len(providers) != 1 || providers[0].ID != fid {
		t.Fatalf("provider search = %+v", providers)
	}
	_, none := e.call(t, http.MethodGet, "/api/providers?postal_code=10001", nil, "")
	if providers := decode[[]ProviderResponse](t, none.Data); len(providers) != 0 {
		t.Fatalf("postal filter ignored: %+v", providers)
	}

	resp, _ := e.call(t, http.MethodPost, "/api/auth/signup", signupBody, "")
	hoTok := sessionCookie(resp)

	_, est := e.call(t, http.MethodGet, "/api/bookings/estimate?provider_id="+fid.String(), nil, hoTok)
	breakdown := decode[struct {
		Breakdown pricing.Breakdown `json:"breakdown"`
	}](t, est.Data).Breakdown
	if breakdown.Subtotal != 100 || breakdown.PlatformFee != 10 || breakdown.Tax != 7 || breakdown.Total != 117 {
		t.Fatalf("estimate = %+v", breakdown)
	}

	_, slots := e.call(t, http.MethodGet, "/api/providers/"+fid.String()+"/slots?date="+tuesday, nil, "")
	if slots.Success {
		t.Fatal("slots offered on a non-service day")
	}

	newBooking := map[string]any{
		"freelancer_id":   fid.String(),
		"service_type":    []string{"Plumbing"},
		"booking_date":    monday,
		"booking_time":    "12:00 PM",
		"service_address": "1 Main St",
	}
	resp, created := e.call(t, http.MethodPost, "/api/bookings", newBooking, hoTok)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create booking: %d %+v", resp.StatusCode, created)
	}
	b := decode[BookingResponse](t, created.Data)
	if b.Status != string(models.BookingPending) || b.TotalEstimate != 117 || b.HomeownerName != "Hana Owner" {
		t.Fatalf("booking = %+v", b)
	}

	_, dup := e.call(t, http.MethodPost, "/api/bookings", newBooking, hoTok)
	if dup.Success {
		t.Fatal("double booking accepted")
	}

	_, slots = e.call(t, http.MethodGet, "/api/providers/"+fid.String()+"/slots?date="+monday, nil, "")
	for _, s := range decode[struct {
		Slots []struct {
			Start     string `json:"start"`
			Available bool   `json:"available"`
		} `json:"slots"`
	}](t, slots.Data).Slots {
		if s.Start == "12:00 PM" && s.Available {
			t.Fatal("booked slot still shown as available")
		}
	}

	bid := b.ID.String()
	payment := map[string]string{
		"name_on_account": "Hana Owner",
		"account_number":  "000111222333",
		"routing_number":  "021000021",
		"account_type":    "checking",
	}
	if _, early := e.call(t, http.MethodPost, "/api/bookings/"+bid+"/pay", payment, hoTok); early.Success {
		t.Fatal("pending booking paid before the provider asked for payment")
	}
	if _, r := e.call(t, http.MethodPatch, "/api/bookings/"+bid+"/accept", nil, hoTok); r.Success {
		t.Fatal("homeowner accepted their own booking")
	}
	for _, step := range []string{"accept", "start", "request-payment"} {
		if _, r := e.call(t, http.MethodPatch, "/api/bookings/"+bid+"/"+step, nil, fTok); !r.Success {
			t.Fatalf("%s: %+v", step, r)
		}
	}

	_, msg := e.call(t, http.MethodPost, "/api/bookings/"+bid+"/messages", map[string]string{"content": "Ready to pay"}, hoTok)
	if !msg.Success {
		t.Fatalf("send message: %+v", msg)
	}
	_, unread := e.call(t, http.MethodGet, "/api/messages/unread", nil, fTok)
	if n := decode[map[string]int64](t, unread.Data)["unread"]; n != 1 {
		t.Fatalf("unread = %d", n)
	}

	_, pay := e.call(t, http.MethodPost, "/api/bookings/"+bid+"/pay", payment, hoTok)
	if !pay.Success {
		t.Fatalf("pay: %+v", pay)
	}
	paid := decode[struct {
		Booking BookingResponse `json:"booking"`
		Payment models.Payment  `json:"payment"`
	}](t, pay.Data)
	if paid.Booking.Status != string(models.BookingCompleted) || paid.Payment.AccountLast4 != "2333" {
		t.Fatalf("paid = %+v", paid)
	}

	_, reviewable := e.call(t, http.MethodGet, "/api/bookings/reviewable", nil, hoTok)
	if n := len(decode[[]BookingResponse](t, reviewable.Data)); n != 1 {
		t.Fatalf("reviewable = %d", n)
	}
	_, rv := e.call(t, http.MethodPost, "/api/bookings/"+bid+"/review", map[string]any{"rating": 5, "review_text": "Great"}, hoTok)
	if !rv.Success {
		t.Fatalf("review: %+v", rv)
	}
	_, rv = e.call(t, http.MethodPost, "/api/bookings/"+bid+"/review", map[string]any{"rating": 4}, hoTok)
	if rv.Success {
		t.Fatal("second review accepted")
	}

	_, stats := e.call(t, http.MethodGet, "/api/freelancer/dashboard/stats", nil, fTok)
	st := decode[struct {
		Stats booking.FreelancerStats `json:"stats"`
	}](t, stats.Data).Stats
	if st.TotalJobsCompleted != 1 || st.TotalEarnings != 100 || st.AverageRating != 5 || st.TotalHoursWorked != 2 {
		t.Fatalf("stats = %+v", st)
	}

	_, sum := e.call(t, http.MethodGet, "/api/admin/summary", nil, adminTok)
	s := decode[AdminSummary](t, sum.Data)
	if s.Homeowners != 1 || s.Freelancers != 1 || s.CompletedBookings != 1 || s.PendingApplications != 0 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestFeed(t *testing.T) {
	e := newTestEnv(t)
	adminTok := e.createAdmin(t)
	_, fTok := approvedFreelancer(t, e, adminTok)

	resp, _ := e.call(t, http.MethodPost, "/api/auth/signup", signupBody, "")
	hoTok := sessionCookie(resp)

	_, empty := e.multipart(t, "/api/posts", map[string]string{"content": "  "}, "", "", nil, fTok)
	if empty.Success {
		t.Fatal("empty post accepted")
	}

	resp, created := e.multipart(t, "/api/posts", map[string]string{"content": "Fixed a leak today"}, "image", "leak.png", []byte("png"), fTok)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create post: %d %+v", resp.StatusCode, created)
	}
	post := decode[models.Post](t, created.Data)
	if post.ImageURL == "" {
		t.Fatal("image url not set")
	}

	if resp, _ := e.multipart(t, "/api/posts", map[string]string{"content": "hi"}, "", "", nil, hoTok); resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("homeowner created a post: %d", resp.StatusCode)
	}

	pid := post.ID.String()
	_, like := e.call(t, http.MethodPost, "/api/posts/"+pid+"/like", nil, hoTok)
	if l := decode[map[string]any](t, like.Data); l["liked"] != true || l["like_count"] != float64(1) {
		t.Fatalf("like = %v", l)
	}
	_, cm := e.call(t, http.MethodPost, "/api/posts/"+pid+"/comments", map[string]string{"comment_content": "Nice work"}, hoTok)
	if !cm.Success {
		t.Fatalf("comment: %+v", cm)
	}

	_, list := e.call(t, http.MethodGet, "/api/posts", nil, hoTok)
	views := decode[[]feed.PostView](t, list.Data)
	if len(views) != 1 || !views[0].LikedByMe || views[0].CommentCount != 1 {
		t.Fatalf("feed = %+v", views)
	}
	for _, secret := range []string{"payment_details", "021000021", "000123456", "1990-04-01", "9 Pipe Rd"} {
		if strings.Contains(string(list.Data), secret) {
			t.Errorf("feed response contains %q", secret)
		}
	}

	if _, d := e.call(t, http.MethodDelete, "/api/posts/"+pid, nil, fTok); !d.Success {
		t.Fatalf("delete: %+v", d)
	}
	var n int64
	e.db.Model(&models.Comment{}).Where("post_id = ?", pid).Count(&n)
	if n != 0 {
		t.Fatalf("comments left after delete: %d", n)
	}
	if resp, _ := e.call(t, http.MethodDelete, "/api/posts/"+pid, nil, adminTok); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("delete missing post: %d", resp.StatusCode)
	}
}

func TestPlatformFeeUpdate(t *testing.T) {
	e := newTestEnv(t)
	adminTok := e.createAdmin(t)

	_, bad := e.call(t, http.MethodPut, "/api/admin/platform-fee", map[string]any{"fee_percentage": 150}, adminTok)
	if bad.Success {
		t.Fatal("fee above 100 accepted")
	}
	_, ok := e.call(t, http.MethodPut, "/api/admin/platform-fee", map[string]any{"fee_percentage": 12.5}, adminTok)
	if !ok.Success {
		t.Fatalf("update fee: %+v", ok)
	}
	_, cur := e.call(t, http.MethodGet, "/api/admin/platform-fee", nil, adminTok)
	if r := decode[pricing.Rates](t, cur.Data); r.FeePercentage != 12.5 || r.TaxPercentage != 7 {
		t.Fatalf("rates = %+v", r)
	}
}

func TestFreelancerProfileTimes(t *testing.T) {
	e := newTestEnv(t)
	adminTok := e.createAdmin(t)
	fid, fTok := approvedFreelancer(t, e, adminTok)

	_, bad := e.call(t, http.MethodPut, "/api/freelancer/profile", map[string]any{
		"hourly_pay": 40, "start_time": "08:00:30", "end_time": "16:00", "service_days": []string{"Friday"},
	}, fTok)
	if bad.Success || len(bad.Errors["start_time"]) == 0 {
		t.Fatalf("start time with seconds accepted: %+v", bad)
	}

	_, ok := e.call(t, http.MethodPut, "/api/freelancer/profile", map[string]any{
		"hourly_pay": 40, "start_time": "8:00:00", "end_time": "16:00:00", "service_days": []string{"Friday"},
	}, fTok)
	if !ok.Success {
		t.Fatalf("update profile: %+v", ok)
	}

	var f models.ApprovedFreelancer
	if err := e.db.First(&f, "id = ?", fid).Error; err != nil {
		t.Fatal(err)
	}
	if f.StartTime != "08:00" || f.EndTime != "16:00" {
		t.Errorf("stored window = %q-%q", f.StartTime, f.EndTime)
	}
}

func TestLimitQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(limitQuery(c, 20)))
	})

	cases := map[string]string{
		"":            "20",
		"?limit=5":    "5",
		"?limit=0":    "20",
		"?limit=-1":   "20",
		"?limit=5000": "100",
		"?limit=abc":  "20",
	}
	for q, want := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+q, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != want {
			t.Errorf("limit for %q = %s, want %s", q, body, want)
		}
	}
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/starbooks/monitoring-api/api"
	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services"
	"github.com/starbooks/monitoring-api/services/dispatch"
	"github.com/starbooks/monitoring-api/services/filestore"
	"github.com/starbooks/monitoring-api/utils/auth"
	"github.com/starbooks/monitoring-api/utils/cache"
)

const testPassword = "kiosk-password"

// switchDispatcher fails while err is set
type switchDispatcher struct {
	err  error
	sent int
}

func (d *switchDispatcher) Channel() string { return "test" }

func (d *switchDispatcher) Dispatch(context.Context, dispatch.Payload) error {
	if d.err != nil {
		return fmt.Errorf("%w via test: %v", dispatch.ErrDispatchFailed, d.err)
	}
	d.sent++
	return nil
}

type testServer struct {
	app        *fiber.App
	store      *database.MemoryStore
	dispatcher *switchDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	store := database.NewMemoryStore()
	for _, u := range []model.User{
		{Username: "admin", Name: "Admin", Role: model.RoleAdmin},
		{Username: "coordinator1", Name: "Coordinator", Role: model.RoleCoordinator},
	} {
		hash, err := auth.HashPasswordWithCost(testPassword, bcrypt.MinCost)
		require.NoError(t, err)
		u.PasswordHash = hash
		require.NoError(t, store.CreateUser(ctx, &u))
	}

	c := cache.NewMemoryCache()
	registry := schema.NewRegistry(schema.Options{
		Now: func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) },
	})
	d := &switchDispatcher{}

	server := api.NewAPIServer(":0", log)
	SetupRoutes(server.GetEngine(), Deps{
		Store:      store,
		Cache:      c,
		Registry:   registry,
		JWTManager: auth.NewJWTManager(auth.JWTConfig{Secret: "router-secret", Issuer: "test"}),
		Log:        log,

		Institutions:  services.NewInstitutionService(store, registry, c, log),
		MOU:           services.NewMOUService(store, filestore.NewMemoryStore(), c, log),
		Trainings:     services.NewTrainingService(store, registry, c, log),
		Notifications: services.NewNotificationService(store, registry, d, log),
		Dashboards:    services.NewDashboardService(store, c, log),
		Reports:       services.NewReportService(store, c, log),
		Exports:       services.NewExportService(store, log),
	})

	return &testServer{app: server.GetEngine(), store: store, dispatcher: d}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Fields     json.RawMessage `json:"fields"`
	Pagination struct {
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
		PerPage    int `json:"per_page"`
	} `json:"pagination"`
	Meta json.RawMessage `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (*http.Response, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func (s *testServer) json(t *testing.T, method, path, token string, payload any) (*http.Response, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return s.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

func (s *testServer) login(t *testing.T, username string) auth.TokenPair {
	t.Helper()
	resp, env := s.json(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair
}

func institutionBody(code, province string) map[string]any {
	return map[string]any{
		"institutionName":   "School " + code,
		"institutionalCode": code,
		"institutionType":   "Public",
		"dateOfDeployment":  "2024-02-10",
		"yearDistributed":   2024,
		"completeAddress":   "Poblacion",
		"municipality":      "Town",
		"province":          province,
		"email":             "school@deped.gov.ph",
		"phone":             "077-000-0000",
		"recipientName":     "Principal",
		"unitStatus":        "Active",
	}
}

// buildPDF writes a minimal one-page PDF with a valid xref table
func buildPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func multipartFile(t *testing.T, name string, content []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/ping", "", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env := s.do(t, http.MethodGet, "/api/v1/health", "", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	resp, env := s.do(t, http.MethodGet, "/api/v2/nothing", "", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/api/v1/institutions", "", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginAndProfile(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.json(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "coordinator1", "password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	pair := s.login(t, "coordinator1")

	resp, env := s.do(t, http.MethodGet, "/api/v1/profile", pair.AccessToken, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"username":"coordinator1"`)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	pair := s.login(t, "coordinator1")

	resp, _ := s.json(t, http.MethodPost, "/api/v1/auth/logout", pair.AccessToken,
		map[string]string{"refresh_token": pair.RefreshToken})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/profile", pair.AccessToken, nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.json(t, http.MethodPost, "/api/v1/auth/refresh", "",
		map[string]string{"refresh_token": pair.RefreshToken})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotatesToken(t *testing.T) {
	s := newTestServer(t)
	pair := s.login(t, "coordinator1")

	body := map[string]string{"refresh_token": pair.RefreshToken}
	resp, env := s.json(t, http.MethodPost, "/api/v1/auth/refresh", "", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var next auth.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.NotEmpty(t, next.RefreshToken)

	// the old refresh token is single use
	resp, _ = s.json(t, http.MethodPost, "/api/v1/auth/refresh", "", body)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterIsAdminOnly(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"username": "province.lu", "password": "another-pass1", "name": "La Union Coordinator"}

	resp, _ := s.json(t, http.MethodPost, "/api/v1/auth/register", s.login(t, "coordinator1").AccessToken, body)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	admin := s.login(t, "admin").AccessToken
	resp, _ = s.json(t, http.MethodPost, "/api/v1/auth/register", admin, body)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, _ = s.json(t, http.MethodPost, "/api/v1/auth/register", admin, body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.json(t, http.MethodPost, "/api/v1/auth/register", admin, map[string]string{"username": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestInstitutionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken

	resp, env := s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created model.Institution
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Region I", created.Region)

	resp, _ = s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "Pangasinan"))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("PG-001", "Pangasinan"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/v1/institutions?province=La+Union", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.Pagination.Total)

	resp, env = s.do(t, http.MethodGet, "/api/v1/institutions?limit=1&page=2", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.Contains(t, string(env.Data), "LU-001", "oldest record lands on the second page")

	resp, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/institutions/%d", created.ID), token, nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/institutions/999", token, nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/api/v1/institutions/abc", token, nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHugePageNumberIsAnEmptyPage(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken
	s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))

	resp, env := s.do(t, http.MethodGet, "/api/v1/institutions?page=9223372036854775807", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(env.Data))
	assert.Equal(t, 1, env.Pagination.Total)

	resp, env = s.do(t, http.MethodGet, "/api/v1/dashboard?page=9223372036854775807", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var d services.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Empty(t, d.RecentDeployments.Items)
	assert.Equal(t, 2, d.RecentDeployments.PageNumber)
}

func TestCreateInstitutionReportsEveryField(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken

	body := institutionBody("AB*123", "La Union")
	body["yearDistributed"] = 1800
	delete(body, "institutionName")

	resp, env := s.json(t, http.MethodPost, "/api/v1/institutions", token, body)

	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	var fields []schema.FieldError
	require.NoError(t, json.Unmarshal(env.Fields, &fields))
	require.Len(t, fields, 3)
	assert.Equal(t, "institutionName", fields[0].Field)
	assert.Equal(t, schema.MissingField, fields[0].Code)
	assert.Equal(t, "institutionalCode", fields[1].Field)
	assert.Equal(t, "yearDistributed", fields[2].Field)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/institutions", token, strings.NewReader("[1,2]"), fiber.MIMEApplicationJSON)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidateEndpointStoresNothing(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken

	resp, _ := s.json(t, http.MethodPost, "/api/v1/institutions/validate", token, institutionBody("LU-009", "La Union"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	list, err := s.store.ListInstitutions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReferenceSchema(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken

	resp, env := s.do(t, http.MethodGet, "/api/v1/reference/schema/institution", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"institutionalCode"`)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/reference/schema/kiosk", token, nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/v1/reference/provinces", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "Pangasinan")
}

func TestSendNotification(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken
	s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))

	body := map[string]any{
		"type":       "Announcement",
		"recipients": "La Union",
		"subject":    "Kiosk maintenance",
		"message":    "Technicians will visit next week.",
	}

	s.dispatcher.err = fmt.Errorf("smtp down")
	resp, _ := s.json(t, http.MethodPost, "/api/v1/notifications", token, body)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	resp, env := s.do(t, http.MethodGet, "/api/v1/notifications", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, env.Pagination.Total, "failed sends are not recorded")

	s.dispatcher.err = nil
	resp, env = s.json(t, http.MethodPost, "/api/v1/notifications", token, body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var n model.Notification
	require.NoError(t, json.Unmarshal(env.Data, &n))
	assert.Equal(t, 1, n.RecipientCount)
	assert.Equal(t, "coordinator1", n.SentBy)

	resp, env = s.do(t, http.MethodGet, "/api/v1/notifications/recipients?recipients=pending-mou", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"count":1`)

	delete(body, "message")
	resp, _ = s.json(t, http.MethodPost, "/api/v1/notifications", token, body)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMOUUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken
	_, env := s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))
	var inst model.Institution
	require.NoError(t, json.Unmarshal(env.Data, &inst))
	path := fmt.Sprintf("/api/v1/institutions/%d/mou", inst.ID)

	resp, _ := s.do(t, http.MethodGet, path, token, nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, contentType := multipartFile(t, "mou.pdf", []byte("not a pdf"))
	resp, env = s.do(t, http.MethodPost, path, token, body, contentType)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_FILE", env.Error.Code)

	body, contentType = multipartFile(t, "signed mou.pdf", buildPDF())
	resp, _ = s.do(t, http.MethodPost, path, token, body, contentType)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, path+"?expires=60", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"url":"memory://mou/`)
	assert.Contains(t, string(env.Data), `"expiresIn":60`)

	resp, env = s.do(t, http.MethodGet, "/api/v1/mou-documents?status=Available", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.Pagination.Total)
	assert.Contains(t, string(env.Meta), `"available":1`)

	body, contentType = multipartFile(t, "signed.pdf", buildPDF())
	resp, _ = s.do(t, http.MethodPost, "/api/v1/institutions/999/mou", token, body, contentType)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTrainingsDashboardAndReport(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken
	s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))

	resp, _ := s.json(t, http.MethodPost, "/api/v1/trainings", token, map[string]any{
		"institutionName": "School LU-001",
		"trainingDate":    "2024-03-01",
		"province":        "La Union",
		"trainers":        "STII team",
		"trainingType":    "orientation",
		"trainingMode":    "on-site",
		"male":            4,
		"female":          6,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, env := s.do(t, http.MethodGet, "/api/v1/trainings", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Meta), `"total":10`)

	resp, env = s.do(t, http.MethodGet, "/api/v1/dashboard?year=2024", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var d services.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, 1, d.Stats.TotalInstitutions)
	assert.Equal(t, 10, d.Stats.TotalParticipants)
	assert.Len(t, d.MonthlyTrend, 12)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/dashboard?year=soon", token, nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/v1/reports/summary?province=La+Union", token, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report services.SummaryReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.TotalInstitutions)
	assert.Equal(t, 1, report.Trainings.Count)
}

func TestExportInstitutions(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "coordinator1").AccessToken
	s.json(t, http.MethodPost, "/api/v1/institutions", token, institutionBody("LU-001", "La Union"))

	resp, _ := s.do(t, http.MethodGet, "/api/v1/institutions/export", token, nil, "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, services.XLSXContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "starbooks-institutions-")
}

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rogpool/pool-service-api/config"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/router"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/store"
	"github.com/rogpool/pool-service-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	store  *store.GormStore
	tokens *services.TokenService
	s3     *services.MockS3Service
	events *services.MockEventPublisher
	clock  *testutil.Clock
	cfg    *config.Config
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		GoEnv:           "test",
		JWTSecret:       testutil.TestJWTSecret,
		AdminUsername:   "admin",
		BcryptCost:      4,
		StaticDir:       t.TempDir(),
		LoginRateLimit:  10,
		LoginRateWindow: time.Minute,
	}
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{
		t:      t,
		store:  testutil.NewTestStore(t),
		s3:     services.NewMockS3Service(),
		events: services.NewMockEventPublisher(),
		clock:  testutil.NewClock(),
		cfg:    testConfig(t),
	}
	api.tokens = testutil.NewTokenService(api.clock.Now)
	api.engine = router.New(router.Options{
		Config:    api.cfg,
		Store:     api.store,
		S3:        api.s3,
		Publisher: api.events,
		Now:       api.clock.Now,
	})
	return api
}

func (api *testAPI) request(method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	api.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(api.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", testutil.BearerHeader(api.t, api.tokens, user))
	}
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	return w
}

func (api *testAPI) upload(path, field, filename string, content []byte, fields map[string]string, user *models.User) *httptest.ResponseRecorder {
	api.t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(api.t, err)
	_, err = part.Write(content)
	require.NoError(api.t, err)
	for k, v := range fields {
		require.NoError(api.t, writer.WriteField(k, v))
	}
	require.NoError(api.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", testutil.BearerHeader(api.t, api.tokens, user))
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "Response should be valid JSON: %s", w.Body.String())
	return body
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return errBody["code"].(string)
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	list, ok := decode(t, w)["data"].([]interface{})
	require.True(t, ok, "expected data list, got %s", w.Body.String())
	return list
}

func TestHealthEndpoints(t *testing.T) {
	api := setupAPI(t)

	w := api.request(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "disabled", body["redis"])

	w = api.request(http.MethodGet, "/api/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pool Maintenance API", decode(t, w)["message"])

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w = api.request(method, "/api/health", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s should not be routed", method)
	}
}

func TestLogin(t *testing.T) {
	api := setupAPI(t)
	users := services.NewUserService(api.store, api.tokens, 4)
	created, err := users.EnsureUser(context.Background(), services.NewUserInput{Username: "admin", Password: "admin123", Role: "administrator"})
	require.NoError(t, err)
	require.True(t, created)

	w := api.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "admin123"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "admin", user["username"])
	assert.Equal(t, "administrator", user["role"])
	assert.NotContains(t, user, "password_hash")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body["access_token"].(string))
	me := httptest.NewRecorder()
	api.engine.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)

	w = api.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "Admin", "password": "admin123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "usernames are case-sensitive")

	w = api.request(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := setupAPI(t)

	w := api.request(http.MethodGet, "/api/reports", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", errorCodeOf(t, w))
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCodeOf(t, w))
}

func TestCORS(t *testing.T) {
	api := setupAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReportVisibility(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee1 := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)
	employee2 := testutil.CreateTestUser(t, api.store, "employee2", models.RoleEmployee)
	client := testutil.CreateTestClient(t, api.store, "Smith", "1 Ocean Dr", employee1)

	w := api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "Green water"}, employee1)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "reported", first["status"])
	assert.Equal(t, "NORMAL", first["priority"])
	assert.Equal(t, "Smith", first["client_name"])
	assert.Equal(t, "employee1", first["employee_name"])

	api.clock.Advance(time.Minute)
	w = api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "Pump noise", "priority": "URGENT"}, employee2)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode(t, w)["data"].(map[string]interface{})

	api.clock.Advance(time.Minute)
	w = api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "Filter check"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	third := decode(t, w)["data"].(map[string]interface{})
	assert.Nil(t, third["employee_id"])

	own := dataList(t, api.request(http.MethodGet, "/api/reports", nil, employee1))
	require.Len(t, own, 1)
	assert.Equal(t, first["id"], own[0].(map[string]interface{})["id"])

	all := dataList(t, api.request(http.MethodGet, "/api/reports", nil, admin))
	require.Len(t, all, 3)
	assert.Equal(t, third["id"], all[0].(map[string]interface{})["id"], "newest first")
	assert.Equal(t, second["id"], all[1].(map[string]interface{})["id"])

	w = api.request(http.MethodGet, "/api/reports/"+second["id"].(string), nil, employee1)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.request(http.MethodPut, "/api/reports/"+second["id"].(string), map[string]interface{}{"status": "scheduled"}, employee1)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.request(http.MethodGet, "/api/reports/missing", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "REPORT_NOT_FOUND", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": "missing", "description": "x"}, employee1)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CLIENT_NOT_FOUND", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "x", "priority": "SOON"}, employee1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRIORITY", errorCodeOf(t, w))
}

func TestReportUpdateAndHistory(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)
	client := testutil.CreateTestClient(t, api.store, "Smith", "1 Ocean Dr", employee)

	w := api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "Green water"}, employee)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)
	path := "/api/reports/" + id

	api.clock.Advance(time.Hour)
	w = api.request(http.MethodPut, path, map[string]interface{}{"status": "scheduled", "employee_notes": "Visiting Tuesday"}, employee)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.request(http.MethodPut, path, map[string]interface{}{"completion_date": "2024-06-01T12:00:00Z"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_COMPLETION_DATE", errorCodeOf(t, w))

	w = api.request(http.MethodPut, path, map[string]interface{}{"total_cost": 150.0}, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ADMIN_ONLY_FIELD", errorCodeOf(t, w))

	w = api.request(http.MethodPut, path, map[string]interface{}{"status": "bogus"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATUS", errorCodeOf(t, w))

	api.clock.Advance(time.Hour)
	w = api.request(http.MethodPut, path, map[string]interface{}{"status": "completed", "total_cost": 150.0, "parts_cost": 40.0, "admin_notes": "Replaced pump seal"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "completed", report["status"])
	assert.InDelta(t, 110.0, report["gross_profit"], 0.001)
	assert.NotNil(t, report["completion_date"])

	// Repeating the same values is not a modification
	w = api.request(http.MethodPut, path, map[string]interface{}{"total_cost": 150.0}, admin)
	require.Equal(t, http.StatusOK, w.Code)

	history := decode(t, w)["data"].(map[string]interface{})["modification_history"].([]interface{})
	require.Len(t, history, 2)
	firstEntry := history[0].(map[string]interface{})
	assert.Equal(t, "employee1", firstEntry["modified_by"])
	assert.Equal(t, []interface{}{"status: reported -> scheduled", "employee_notes"}, firstEntry["changes"])
	secondEntry := history[1].(map[string]interface{})
	assert.Equal(t, "administrator", secondEntry["modified_by_role"])
	assert.Equal(t, []interface{}{"status: scheduled -> completed", "admin_notes", "total_cost", "parts_cost", "gross_profit"}, secondEntry["changes"])

	events := api.events.Events()
	require.Len(t, events, 3)
	assert.Equal(t, services.EventReportCreated, events[0].Type)
	assert.Equal(t, services.EventReportUpdated, events[2].Type)
	assert.Equal(t, "scheduled", events[2].PreviousStatus)

	w = api.request(http.MethodDelete, path, nil, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.request(http.MethodDelete, path, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.request(http.MethodGet, path, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClientRegistry(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)

	w := api.request(http.MethodPost, "/api/clients", map[string]interface{}{"name": "Zed", "address": "9 Pier St"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = api.request(http.MethodPost, "/api/clients", map[string]interface{}{"name": "Adams", "address": "3 Dune Ln", "employee_id": employee.ID}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.request(http.MethodPost, "/api/clients", map[string]interface{}{"name": "Bad", "address": "x", "employee_id": "missing"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_EMPLOYEE", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/clients", map[string]interface{}{"name": "Nope", "address": "x"}, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)

	all := dataList(t, api.request(http.MethodGet, "/api/clients", nil, admin))
	require.Len(t, all, 2)
	assert.Equal(t, "Adams", all[0].(map[string]interface{})["name"], "sorted by name")

	assigned := dataList(t, api.request(http.MethodGet, "/api/clients", nil, employee))
	require.Len(t, assigned, 1)
	assert.Equal(t, "Adams", assigned[0].(map[string]interface{})["name"])

	w = api.request(http.MethodGet, "/api/clients/all", nil, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Len(t, dataList(t, api.request(http.MethodGet, "/api/clients/all", nil, admin)), 2)

	id := all[1].(map[string]interface{})["id"].(string)
	w = api.request(http.MethodDelete, "/api/clients/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.request(http.MethodDelete, "/api/clients/"+id, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func buildWorkbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportExcel(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)

	workbook := buildWorkbook(t,
		[]interface{}{"NAME", "Address", "Email"},
		[]interface{}{"Smith", "1 Ocean Dr", "smith@example.com"},
		[]interface{}{"Jones", "2 Bay Rd", ""},
		[]interface{}{"Smith", "1 Ocean Dr", ""},
		[]interface{}{"", "No name"},
	)

	w := api.upload("/api/clients/import-excel", "file", "clients.xlsx", workbook, map[string]string{"employee_id": employee.ID}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["importedCount"])
	assert.Equal(t, "Successfully imported 2 clients", body["message"])

	assert.Len(t, dataList(t, api.request(http.MethodGet, "/api/clients", nil, employee)), 2)

	w = api.upload("/api/clients/import-excel", "file", "clients.xlsx", workbook, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["importedCount"])

	w = api.upload("/api/clients/import-excel", "file", "clients.csv", []byte("name,address\n"), nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCodeOf(t, w))

	w = api.upload("/api/clients/import-excel", "file", "clients.xlsx", []byte("not a workbook"), nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SPREADSHEET", errorCodeOf(t, w))

	w = api.upload("/api/clients/import-excel", "file", "clients.xlsx", buildWorkbook(t, []interface{}{"Client", "Street"}), nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_COLUMNS", errorCodeOf(t, w))

	w = api.upload("/api/clients/import-excel", "file", "clients.xlsx", workbook, nil, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMediaUploadAndRedirect(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)
	client := testutil.CreateTestClient(t, api.store, "Smith", "1 Ocean Dr", nil)

	w := api.upload("/api/media", "file", "pool.png", []byte("fake png"), nil, employee)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	obj := decode(t, w)["data"].(map[string]interface{})
	key := obj["key"].(string)
	path := obj["path"].(string)
	assert.True(t, strings.HasPrefix(key, "reports/"))
	assert.Equal(t, "/api/media/"+key, path)
	assert.True(t, api.s3.FileExists(key))

	w = api.request(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), key)

	w = api.upload("/api/media", "file", "notes.txt", []byte("text"), nil, employee)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/reports", map[string]interface{}{"client_id": client.ID, "description": "Cracked tile", "photos": []string{path}}, employee)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["data"].(map[string]interface{})["id"].(string)

	w = api.request(http.MethodDelete, "/api/reports/"+id, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.s3.FileExists(key), "deleting a report removes its stored photos")
}

func TestNew_GinModeFollowsEnvironment(t *testing.T) {
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })
	s := testutil.NewTestStore(t)

	tests := []struct {
		env, level, want string
	}{
		{"test", "debug", gin.TestMode},
		{"development", "info", gin.DebugMode},
		{"production", "info", gin.ReleaseMode},
		{"production", "debug", gin.DebugMode},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.GoEnv = tt.env
			cfg.LogLevel = tt.level
			router.New(router.Options{Config: cfg, Store: s})
			assert.Equal(t, tt.want, gin.Mode())
		})
	}
}

func TestMediaDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := testutil.NewTestStore(t)
	tokens := testutil.NewTokenService(nil)
	engine := router.New(router.Options{Config: testConfig(t), Store: s})
	employee := testutil.CreateTestUser(t, s, "employee1", models.RoleEmployee)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "pool.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", testutil.BearerHeader(t, tokens, employee))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "MEDIA_UNAVAILABLE", errorCodeOf(t, w))
}

func TestUserManagement(t *testing.T) {
	api := setupAPI(t)
	admin := testutil.CreateTestUser(t, api.store, "admin", models.RoleAdministrator)
	employee := testutil.CreateTestUser(t, api.store, "employee1", models.RoleEmployee)

	w := api.request(http.MethodGet, "/api/users", nil, employee)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.request(http.MethodPost, "/api/users", map[string]string{"username": "employee2", "password": "pw", "role": "employee"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]interface{})
	assert.NotContains(t, created, "password_hash")

	w = api.request(http.MethodPost, "/api/users", map[string]string{"username": "employee2", "password": "pw"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USERNAME_EXISTS", errorCodeOf(t, w))

	w = api.request(http.MethodPost, "/api/users", map[string]string{"username": "x", "password": "pw", "role": "owner"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Len(t, dataList(t, api.request(http.MethodGet, "/api/users", nil, admin)), 3)

	w = api.request(http.MethodDelete, "/api/users/"+admin.ID, nil, admin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "CANNOT_DELETE_ADMIN", errorCodeOf(t, w))

	w = api.request(http.MethodDelete, "/api/users/"+employee.ID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	// Tokens issued before deletion stop resolving
	w = api.request(http.MethodGet, "/api/auth/me", nil, employee)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDegradedMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cfg.AllowDegraded = true
	engine := router.New(router.Options{
		Config: cfg,
		Store:  store.Offline{Reason: errors.New("connection refused")},
	})
	tokens := testutil.NewTokenService(nil)
	admin := &models.User{Username: "admin", Role: models.RoleAdministrator}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", testutil.BearerHeader(t, tokens, admin))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	for _, path := range []string{"/api/reports", "/api/clients", "/api/clients/all", "/api/users"} {
		w := do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		body := decode(t, w)
		assert.Equal(t, true, body["degraded"], path)
		assert.Empty(t, body["data"], path)
	}

	w := do(http.MethodPost, "/api/clients", `{"name":"Smith","address":"1 Ocean Dr"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCodeOf(t, w))

	w = do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"admin123"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", decode(t, w)["database"])
}

func TestSPAFallback(t *testing.T) {
	api := setupAPI(t)
	require.NoError(t, os.WriteFile(filepath.Join(api.cfg.StaticDir, "index.html"), []byte("<html>pool app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(api.cfg.StaticDir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(api.cfg.StaticDir, "assets", "app.js"), []byte("console.log('pool')"), 0o644))

	w := api.request(http.MethodGet, "/reports/42", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pool app")

	w = api.request(http.MethodGet, "/assets/app.js", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = api.request(http.MethodGet, "/api/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCodeOf(t, w))
}

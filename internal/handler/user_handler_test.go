package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"usermgmt/internal/config"
	"usermgmt/internal/handler"
	"usermgmt/internal/model"
	"usermgmt/internal/ratelimit"
	"usermgmt/internal/repository"
	"usermgmt/internal/router"
	"usermgmt/internal/service"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func setupRouter(t *testing.T, db *gorm.DB) *echo.Echo {
	t.Helper()
	e := echo.New()
	cfg := &config.Config{StaticDir: t.TempDir()}
	limiter := ratelimit.New(nil, 0, time.Minute)
	userHandler := handler.NewUserHandler(service.NewUserService(repository.NewUserRepository(db)))
	router.Register(e, cfg, limiter, userHandler)
	return e
}

func doJSON(e *echo.Echo, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestUserCRUDLifecycle(t *testing.T) {
	db := setupTestDB(t)
	e := setupRouter(t, db)

	// create first user
	rec := doJSON(e, http.MethodPost, "/api/users", map[string]string{
		"name": "Ann", "email": "ann@x.com", "role": "User",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var created model.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint(1), created.ID)
	assert.Equal(t, model.RoleUser, created.Role)

	// duplicate email is rejected and the count does not grow
	rec = doJSON(e, http.MethodPost, "/api/users", map[string]string{
		"name": "Other", "email": "ann@x.com", "role": "Admin",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	rec = doJSON(e, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 1)

	// promote to Admin
	rec = doJSON(e, http.MethodPut, "/api/users/1", map[string]string{
		"name": "Ann", "email": "ann@x.com", "role": "Admin",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	var updated model.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	// delete and verify the list is empty
	rec = doJSON(e, http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	users = nil
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Empty(t, users)

	// the deleted id is gone
	rec = doJSON(e, http.MethodGet, "/api/users/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name         string
		payload      map[string]string
		expectedCode int
		errorCode    string
	}{
		{
			name:         "role outside the enum",
			payload:      map[string]string{"name": "Ann", "email": "ann@x.com", "role": "Superuser"},
			expectedCode: http.StatusBadRequest,
			errorCode:    "INVALID_ROLE",
		},
		{
			name:         "missing name",
			payload:      map[string]string{"email": "ann@x.com", "role": "User"},
			expectedCode: http.StatusBadRequest,
			errorCode:    "VALIDATION_FAILED",
		},
		{
			name:         "missing email",
			payload:      map[string]string{"name": "Ann", "role": "User"},
			expectedCode: http.StatusBadRequest,
			errorCode:    "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			e := setupRouter(t, db)

			rec := doJSON(e, http.MethodPost, "/api/users", tt.payload)
			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, tt.errorCode, errorCode(t, rec))

			// nothing was stored
			var count int64
			db.Model(&model.User{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

func TestUpdateUserErrors(t *testing.T) {
	db := setupTestDB(t)
	e := setupRouter(t, db)

	seed := []model.User{
		{Name: "Ann", Email: "ann@x.com", Role: model.RoleUser},
		{Name: "Bob", Email: "bob@x.com", Role: model.RoleUser},
	}
	for i := range seed {
		assert.NoError(t, db.Create(&seed[i]).Error)
	}

	// unknown id
	rec := doJSON(e, http.MethodPut, "/api/users/99", map[string]string{
		"name": "Ann", "email": "ann@x.com", "role": "User",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))

	// email collision with the other record
	rec = doJSON(e, http.MethodPut, "/api/users/1", map[string]string{
		"name": "Ann", "email": "bob@x.com", "role": "User",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	// role outside the enum leaves the record unchanged
	rec = doJSON(e, http.MethodPut, "/api/users/1", map[string]string{
		"name": "Ann", "email": "ann@x.com", "role": "Root",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ROLE", errorCode(t, rec))

	var stored model.User
	assert.NoError(t, db.First(&stored, 1).Error)
	assert.Equal(t, model.RoleUser, stored.Role)
}

func TestDeleteUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	e := setupRouter(t, db)

	rec := doJSON(e, http.MethodDelete, "/api/users/5", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))
}

func TestInvalidIDParam(t *testing.T) {
	db := setupTestDB(t)
	e := setupRouter(t, db)

	for _, path := range []string{"/api/users/abc", "/api/users/0", "/api/users/-1"} {
		rec := doJSON(e, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "INVALID_ID", errorCode(t, rec))
	}
}

func TestHealthz(t *testing.T) {
	db := setupTestDB(t)
	e := setupRouter(t, db)

	rec := doJSON(e, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

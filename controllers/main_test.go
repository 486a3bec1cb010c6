package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"worknest/config"
	"worknest/models"
	"worknest/routes"
	"worknest/utils"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	// The JWT middleware reads these process-wide handles
	config.DB = db
	config.AppConfig.JWTSecret = "test-secret"

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := fiber.New()
	routes.SetupRoutes(app, db, logger, nil, nil)
	return app, db
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}, dest interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)

	if dest != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, dest), "body: %s", raw)
	}
	return resp
}

type authResponse struct {
	AccessToken  string               `json:"access_token"`
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization"`
	Department   *models.Department   `json:"department"`
}

func registerOrg(t *testing.T, app *fiber.App, orgName, deptName, userName, email string) authResponse {
	t.Helper()

	var resp authResponse
	res := doJSON(t, app, "POST", "/organizations", "", fiber.Map{
		"organization_name": orgName,
		"department_name":   deptName,
		"name":              userName,
		"email":             email,
		"password":          "pw123",
	}, &resp)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	return resp
}

func seedUserWithToken(t *testing.T, db *gorm.DB, orgID uint, name string, role models.Role, deptID *uint) (*models.User, string) {
	t.Helper()

	user := models.User{
		Name:           name,
		Email:          name + "-" + strings.ReplaceAll(t.Name(), "/", "_") + "@example.com",
		PasswordHash:   "x",
		OrganizationID: orgID,
		DepartmentID:   deptID,
		Role:           role,
		IsActive:       true,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := utils.GenerateToken(&user)
	require.NoError(t, err)
	return &user, token
}

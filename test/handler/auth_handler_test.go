package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignupLoginRoundTrip(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	token, userID := signupAndLogin(t, router, "alice@example.com")
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
}

func TestSignupValidation(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]string{
		"email":    "not-an-email",
		"name":     "",
		"password": "abc",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var envelope struct {
		Violations []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Violations)
}

func TestSignupDuplicateEmailIs422(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	body := map[string]string{"email": "dup@example.com", "name": "a", "password": "secret"}
	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestLoginFailuresAreUniform401(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	signupAndLogin(t, router, "bob@example.com")

	// Wrong password on an existing account and an unknown account give
	// the same status.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestStatusRoundTrip(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	token, _ := signupAndLogin(t, router, "carol@example.com")

	resp := doJSON(t, router, http.MethodGet, "/api/v1/auth/status", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "I am new!", decodeData(t, resp)["status"])

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/auth/status", token, map[string]string{"status": "building things"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodGet, "/api/v1/auth/status", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "building things", decodeData(t, resp)["status"])
}

func TestStatusRequiresAuth(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	resp := doJSON(t, router, http.MethodGet, "/api/v1/auth/status", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doJSON(t, router, http.MethodPatch, "/api/v1/auth/status", "", map[string]string{"status": "x"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestUpdateStatusRejectsEmpty(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	token, _ := signupAndLogin(t, router, "dave@example.com")
	resp := doJSON(t, router, http.MethodPatch, "/api/v1/auth/status", token, map[string]string{"status": ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

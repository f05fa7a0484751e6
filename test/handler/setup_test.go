package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"snapfeed/internal/config"
	"snapfeed/internal/filestore"
	"snapfeed/internal/handler"
	"snapfeed/internal/notify"
	"snapfeed/internal/repo"
	"snapfeed/internal/service"
	"snapfeed/test/testutil"
)

var testJWTSecret = []byte("test-secret")

// pngBytes is a minimal payload that sniffs as image/png.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func setupRouter(t *testing.T) (http.Handler, *notify.Hub, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)

	userRepo := repo.NewUserRepo(db)
	postRepo := repo.NewPostRepo(db)
	uploadRepo := repo.NewUploadRepo(db)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := notify.New(nil)
	go hub.Run(ctx)

	authService := service.NewAuthService(userRepo, testJWTSecret, time.Hour)
	uploadService := service.NewUploadService(uploadRepo, store)
	postService := service.NewPostService(postRepo, userRepo, uploadRepo, store, hub, 2)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Posts:           handler.NewPostHandler(postService, uploadService, store),
		Files:           handler.NewFileHandler(store),
		Notifier:        hub,
		JWTSecret:       testJWTSecret,
		RateLimitWindow: -1,
	})

	return router, hub, func() {
		cancel()
		cleanup()
	}
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

// signupAndLogin provisions a fresh user and returns its token and id.
func signupAndLogin(t *testing.T, router http.Handler, email string) (string, string) {
	t.Helper()
	resp := doJSON(t, router, http.MethodPut, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"name":     "tester",
		"password": "secret",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	token, _ := data["token"].(string)
	userID, _ := data["user_id"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)
	return token, userID
}

func createPost(t *testing.T, router http.Handler, token, title, content string) string {
	t.Helper()
	resp := doMultipartPost(t, router, http.MethodPost, "/api/v1/feed/posts", token, title, content, true)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	data := decodeData(t, resp)
	post, _ := data["post"].(map[string]interface{})
	id, _ := post["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func doMultipartPost(t *testing.T, router http.Handler, method, path, token, title, content string, withImage bool) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("content", content))
	if withImage {
		part, err := writer.CreateFormFile("image", "test.png")
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

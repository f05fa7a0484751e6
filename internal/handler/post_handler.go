package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"snapfeed/internal/filestore"
	appErr "snapfeed/internal/pkg/errors"
	"snapfeed/internal/pkg/response"
	"snapfeed/internal/service"
)

type PostHandler struct {
	posts   *service.PostService
	uploads *service.UploadService
	store   filestore.Store
}

func NewPostHandler(posts *service.PostService, uploads *service.UploadService, store filestore.Store) *PostHandler {
	return &PostHandler{posts: posts, uploads: uploads, store: store}
}

type postRequest struct {
	Title   string `form:"title" binding:"required,min=5"`
	Content string `form:"content" binding:"required,min=5"`
	Image   string `form:"image"`
}

func (h *PostHandler) List(c *gin.Context) {
	page := 1
	if value := c.Query("page"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			page = parsed
		}
	}
	posts, total, err := h.posts.List(c.Request.Context(), page)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"posts": posts, "total_items": total})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c, err)
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		response.ValidationError(c, http.StatusUnprocessableEntity, "no image provided",
			[]response.Violation{{Field: "image", Message: "an image file is required"}})
		return
	}
	imageKey, err := h.saveImage(c, file)
	if err != nil {
		handleError(c, err)
		return
	}
	post, err := h.posts.Create(c.Request.Context(), getUserID(c), req.Title, req.Content, imageKey)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"post": post, "creator": post.Creator})
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}

func (h *PostHandler) Update(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c, err)
		return
	}
	imageKey := req.Image
	if file, err := c.FormFile("image"); err == nil {
		key, err := h.saveImage(c, file)
		if err != nil {
			handleError(c, err)
			return
		}
		imageKey = key
	}
	if imageKey == "" {
		response.ValidationError(c, http.StatusUnprocessableEntity, "no image picked",
			[]response.Violation{{Field: "image", Message: "an image is required"}})
		return
	}
	post, err := h.posts.Update(c.Request.Context(), getUserID(c), c.Param("id"), req.Title, req.Content, imageKey)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"post": post})
}

func (h *PostHandler) Delete(c *gin.Context) {
	postID := c.Param("id")
	if err := h.posts.Delete(c.Request.Context(), getUserID(c), postID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": postID})
}

// saveImage streams the uploaded file into the file store under a fresh key
// and records it in the upload ledger.
func (h *PostHandler) saveImage(c *gin.Context, file *multipart.FileHeader) (string, error) {
	opened, err := file.Open()
	if err != nil {
		return "", err
	}
	defer opened.Close()

	contentType, err := sniffContentType(opened)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", appErr.ErrInvalid
	}

	userID := getUserID(c)
	key := buildImageKey(userID, file.Filename)
	if err := h.store.Save(c.Request.Context(), key, opened, file.Size); err != nil {
		return "", err
	}
	if err := h.uploads.Record(c.Request.Context(), userID, key); err != nil {
		return "", err
	}
	return key, nil
}

func sniffContentType(file filestore.ReadSeekCloser) (string, error) {
	buf := make([]byte, 512)
	read, err := file.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:read]), nil
}

func buildImageKey(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := randomHex(8)
	if userID != "" {
		base = userID + "_" + base
	}
	return base + ext
}

func randomHex(size int) string {
	buf := make([]byte, size)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

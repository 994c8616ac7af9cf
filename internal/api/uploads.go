package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsphere/skillsphere/internal/database"
)

// MaxUploadSize caps profile pictures at 5MB.
const MaxUploadSize = 5 << 20

// allowedImageTypes is the MIME allowlist for profile pictures.
var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/jpg":     true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// UploadHandler stores profile pictures on local disk and records the
// served path on the user document.
type UploadHandler struct {
	Store database.Store
	Dir   string
}

// NewUploadHandler creates a new upload handler writing into dir.
func NewUploadHandler(store database.Store, dir string) *UploadHandler {
	return &UploadHandler{Store: store, Dir: dir}
}

// UploadProfilePicture accepts a single multipart image under the
// "profilePicture" field, at most 5MB and of an allowed image type.
func (h *UploadHandler) UploadProfilePicture(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	file, err := c.FormFile("profilePicture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "No file selected. Please choose an image file.",
		})
		return
	}

	if file.Size > MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "File too large. Maximum size is 5MB.",
		})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid file type. Only image uploads are allowed.",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := "profile-" + uuid.New().String() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.Dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	servedPath := "/uploads/" + name
	if err := h.Store.SetProfilePicture(c.Request.Context(), userID, servedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile picture updated",
		"data":    gin.H{"avatarUrl": servedPath},
	})
}

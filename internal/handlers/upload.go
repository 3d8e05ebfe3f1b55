// internal/handlers/upload.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printforge/printforge-backend/internal/services"
	"github.com/printforge/printforge-backend/internal/utils"
)

type UploadHandler struct {
	storageService *services.StorageService
}

func NewUploadHandler(storageService *services.StorageService) *UploadHandler {
	return &UploadHandler{storageService: storageService}
}

// UploadFile handles POST /uploads. The category query parameter selects the
// upload policy (final_designs, previews, reference_images, products).
func (h *UploadHandler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	defer file.Close()

	category := c.DefaultQuery("category", "reference_images")
	options := h.storageService.GetDefaultUploadOptions(category)

	result, err := h.storageService.UploadFile(file, header, options)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}

// GetDownloadURL handles GET /uploads/presign. Final design files stay
// private in the bucket, so downloads go through a short-lived link.
func (h *UploadHandler) GetDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		utils.BadRequestResponse(c, "Missing file key", nil)
		return
	}

	url, err := h.storageService.GeneratePresignedURL(key, 15*time.Minute)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate download URL")
		return
	}

	utils.SuccessResponse(c, gin.H{"url": url})
}

package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/logger"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/services"
	"github.com/SaiCharanMahadevan/HealthTrackerApp/utils"

	"github.com/gin-gonic/gin"
)

type HealthEntryController struct {
	Svc *services.EntryService
}

func NewHealthEntryController(svc *services.EntryService) *HealthEntryController {
	return &HealthEntryController{Svc: svc}
}

// CreateEntry accepts a multipart form: entry_text, optional image file and
// optional target_date (YYYY-MM-DD).
func (h *HealthEntryController) CreateEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entryText := c.PostForm("entry_text")
	targetDate := c.PostForm("target_date")

	var imageBytes []byte
	var imageMIME, imageURL string
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err == nil {
			imageBytes, _ = io.ReadAll(f)
			f.Close()
			imageMIME = fh.Header.Get("Content-Type")

			// storage failure must not block the entry itself
			url, upErr := utils.UploadEntryImage(imageBytes, fh.Filename)
			if upErr != nil {
				logger.Warn("image upload failed, continuing without attachment", "err", upErr)
			} else {
				imageURL = url
			}
		}
	}

	entry, err := h.Svc.Create(c.Request.Context(), userID, entryText, imageBytes, imageMIME, targetDate, imageURL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *HealthEntryController) ListEntries(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.Svc.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *HealthEntryController) GetEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := h.Svc.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondEntryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type UpdateEntryInput struct {
	EntryText string `json:"entry_text"`
}

func (h *HealthEntryController) UpdateEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var input UpdateEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Svc.Update(c.Request.Context(), id, userID, input.EntryText)
	if err != nil {
		respondEntryError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *HealthEntryController) DeleteEntry(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := entryIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), id, userID); err != nil {
		respondEntryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

// respondEntryError maps service errors to transport responses. NotFound and
// Forbidden produce an identical denial body so the boundary leaks nothing
// about whether the entry exists.
func respondEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEntryNotFound), errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func entryIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id), err
}

func userIDFromCtx(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nexushq/nexus-server/internal/middleware"
	"github.com/nexushq/nexus-server/internal/model"
	"github.com/nexushq/nexus-server/internal/storage"
	"github.com/nexushq/nexus-server/internal/store"
	"github.com/nexushq/nexus-server/pkg/logger"
	"github.com/nexushq/nexus-server/prometheus"
)

// MaxUploadSize is the fixed upload payload cap.
const MaxUploadSize = 10 << 20 // 10 MiB

// FileHandler serves file metadata and blob transfer.
type FileHandler struct {
	store   store.Store
	backend storage.Backend
}

// NewFileHandler builds the file endpoints.
func NewFileHandler(st store.Store, backend storage.Backend) *FileHandler {
	return &FileHandler{store: st, backend: backend}
}

func fileView(f *model.File) echo.Map {
	view := echo.Map{
		"id":            f.ID,
		"file_name":     f.FileName,
		"original_name": f.OriginalName,
		"mime_type":     f.MimeType,
		"size":          f.Size,
		"category":      f.Category,
		"download_url":  fmt.Sprintf("/api/files/%d/download", f.ID),
		"created_at":    f.CreatedAt,
	}
	if f.UploadedBy.ID != 0 {
		view["uploaded_by"] = echo.Map{
			"id":    f.UploadedBy.ID,
			"name":  f.UploadedBy.Name,
			"email": f.UploadedBy.Email,
		}
	}
	return view
}

// List returns the company's file metadata, optionally filtered by
// category.
func (h *FileHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordFileOperation("list")
	principal := middleware.GetPrincipal(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	files, err := h.store.ListFiles(c.Request().Context(), principal.CompanyID, c.QueryParam("category"))
	if err != nil {
		log.Error("Failed to list files", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch files"})
	}

	views := make([]echo.Map, 0, len(files))
	for i := range files {
		views = append(views, fileView(&files[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"files": views})
}

// Upload stores a blob and its metadata row. Nothing is written when
// the payload exceeds the size cap, and a blob whose metadata insert
// fails is removed again.
func (h *FileHandler) Upload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordFileOperation("upload")
	principal := middleware.GetPrincipal(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no file provided"})
	}
	category := c.FormValue("category")

	if fileHeader.Size > MaxUploadSize {
		prometheus.RecordAuthError("upload_too_large")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File size exceeds 10MB limit"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upload file"})
	}
	defer src.Close()

	// The declared size is client-controlled; cap the actual read too.
	content, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		log.Error("Failed to read uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upload file"})
	}
	if len(content) > MaxUploadSize {
		prometheus.RecordAuthError("upload_too_large")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "File size exceeds 10MB limit"})
	}

	ctx := c.Request().Context()
	result, err := h.backend.Put(ctx, principal.CompanyID, fileHeader.Filename, content, category)
	if err != nil {
		log.Error("Failed to store blob", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upload file"})
	}

	file := model.File{
		CompanyID:    principal.CompanyID,
		UploadedByID: principal.UserID,
		FileName:     result.StoredName,
		OriginalName: fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Size:         result.Size,
		StoragePath:  result.Handle,
		Category:     category,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateFile(ctx, &file); err != nil {
		log.Error("Failed to record file metadata", zap.Error(err))
		// Remove the blob so a failed insert leaves no orphan.
		if delErr := h.backend.Delete(ctx, result.Handle); delErr != nil {
			log.Warn("Failed to clean up orphaned blob",
				zap.String("handle", result.Handle), zap.Error(delErr))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to upload file"})
	}

	prometheus.UploadSizeBytes.Observe(float64(result.Size))
	log.Info("File uploaded",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("file_id", file.ID),
		zap.Int64("size", file.Size))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "File uploaded successfully",
		"file":    fileView(&file),
	})
}

// Download streams a file's bytes back with its original name.
func (h *FileHandler) Download(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordFileOperation("download")
	principal := middleware.GetPrincipal(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file ID"})
	}

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	file, err := h.store.GetFile(ctx, principal.CompanyID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		log.Error("Failed to fetch file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to download file"})
	}

	content, err := h.backend.Get(ctx, file.StoragePath)
	if err != nil {
		log.Error("Failed to read blob",
			zap.Uint("file_id", file.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to download file"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	mime := file.MimeType
	if mime == "" {
		mime = echo.MIMEOctetStream
	}
	return c.Blob(http.StatusOK, mime, content)
}

// Delete removes the metadata row and the blob. A missing physical
// blob does not block the metadata cleanup.
func (h *FileHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordFileOperation("delete")
	principal := middleware.GetPrincipal(c)

	idParam := c.QueryParam("id")
	if idParam == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file ID required"})
	}
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid file ID"})
	}

	ctx := c.Request().Context()

	defer prometheus.TrackDBOperation("query")(time.Now())
	file, err := h.store.GetFile(ctx, principal.CompanyID, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
		}
		log.Error("Failed to fetch file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete file"})
	}

	if err := h.backend.Delete(ctx, file.StoragePath); err != nil {
		log.Warn("Failed to delete blob, continuing with metadata cleanup",
			zap.String("handle", file.StoragePath), zap.Error(err))
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.store.DeleteFile(ctx, principal.CompanyID, uint(id)); err != nil {
		log.Error("Failed to delete file metadata", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete file"})
	}

	log.Info("File deleted",
		zap.Uint("company_id", principal.CompanyID),
		zap.Uint("file_id", uint(id)))

	return c.JSON(http.StatusOK, echo.Map{"message": "File deleted successfully"})
}

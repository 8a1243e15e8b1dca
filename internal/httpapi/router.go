// Package httpapi exposes the studio tools over HTTP with gin. Every MCP tool
// is reachable as POST /api/v1/tools/<name> with the tool arguments as the
// JSON body; source images can be uploaded and stored files served back.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-studio-mcp/internal/filters"
	"github.com/ironsheep/image-studio-mcp/internal/imaging"
	"github.com/ironsheep/image-studio-mcp/internal/overlay"
	"github.com/ironsheep/image-studio-mcp/internal/paint"
	"github.com/ironsheep/image-studio-mcp/internal/server"
	"github.com/ironsheep/image-studio-mcp/internal/storage"
	"github.com/ironsheep/image-studio-mcp/internal/studio"
	"github.com/ironsheep/image-studio-mcp/internal/versions"
)

// maxBodyBytes bounds tool arguments and uploads.
const maxBodyBytes = 32 << 20

// ToolCaller executes a tool by name, as server.Server does.
type ToolCaller interface {
	Call(ctx context.Context, name string, args json.RawMessage) (interface{}, error)
}

// Options configures the router. Uploader may be nil, which disables the
// upload and file routes.
type Options struct {
	Tools    ToolCaller
	Uploader *storage.Uploader
	Token    string
	Timeout  time.Duration
	Logger   logrus.FieldLogger
}

type handler struct {
	tools    ToolCaller
	uploader *storage.Uploader
}

// NewRouter builds the gin engine.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	h := &handler{tools: opts.Tools, uploader: opts.Uploader}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(Logger(opts.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.uploader != nil {
		router.GET("/files/*name", h.getFile)
	}

	api := router.Group("/api/v1", BearerAuth(opts.Token), Timeout(opts.Timeout))
	{
		api.GET("/tools", h.listTools)
		api.POST("/tools/:name", h.callTool)
		if h.uploader != nil {
			api.POST("/uploads", h.uploadImage)
			api.DELETE("/uploads/*name", h.deleteUpload)
		}
	}
	return router
}

func (h *handler) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": server.GetToolDefinitions()})
}

func (h *handler) callTool(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid JSON"})
		return
	}

	result, err := h.tools.Call(c.Request.Context(), c.Param("name"), body)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// statusFor maps tool errors onto HTTP status codes. Anything not listed is
// treated as rejected input.
func statusFor(err error) int {
	switch {
	case errors.Is(err, server.ErrUnknownTool),
		errors.Is(err, studio.ErrSessionNotFound),
		errors.Is(err, overlay.ErrElementNotFound),
		errors.Is(err, filters.ErrEntryNotFound),
		errors.Is(err, versions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrCommitInProgress),
		errors.Is(err, overlay.ErrGestureActive),
		errors.Is(err, paint.ErrStrokeInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, imaging.ErrLoadFailure),
		errors.Is(err, studio.ErrUploadFailure),
		errors.Is(err, studio.ErrVersioningFailure),
		errors.Is(err, studio.ErrInpaintFailure):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func isValidImageType(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// uploadImage stores a source image so it can be opened by URL.
func (h *handler) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if !isValidImageType(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image type. Supported: jpg, jpeg, png, gif, webp, bmp, tiff"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := path.Join("sources", uuid.NewString()+strings.ToLower(ext))
	url, err := h.uploader.Upload(c.Request.Context(), name, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name, "url": url})
}

// deleteUpload removes a stored upload or committed output by name.
func (h *handler) deleteUpload(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	store := h.uploader.Storage()
	if !store.Exists(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err := store.Delete(name); err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

// getFile serves a stored upload, so public_base_url can point at this server.
func (h *handler) getFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("name"), "/")
	rc, err := h.uploader.Storage().Get(name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

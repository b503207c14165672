package ranking

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/llm"
	"resume-ranker/internal/shared/server/middleware"
	"resume-ranker/internal/shared/server/respond"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/usage"
)

const (
	formJobDescription = "job_description"
	formResumes        = "resumes"
	defaultMaxUpload   = 50 << 20
)

// Handler exposes the ranking endpoints.
type Handler struct {
	Svc            *Service
	Models         llm.ModelLister
	MaxUploadBytes int64
	IndexFile      string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, models llm.ModelLister, maxUploadBytes int64, indexFile string) *Handler {
	return &Handler{Svc: svc, Models: models, MaxUploadBytes: maxUploadBytes, IndexFile: indexFile}
}

// RegisterRoutes attaches ranking routes.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/", h.index)
	rg.POST("/rank", h.rank)
	rg.GET("/list_models", h.listModels)
}

func (h *Handler) index(c *gin.Context) {
	if h.IndexFile != "" {
		if info, err := os.Stat(h.IndexFile); err == nil && !info.IsDir() {
			c.File(h.IndexFile)
			return
		}
		telemetry.Warn("index.file_missing", map[string]any{"path": h.IndexFile})
	}
	limit := 0
	if h.Svc != nil && h.Svc.Usage != nil {
		limit = h.Svc.Usage.Limit()
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"service":   "resume-ranker",
		"freeLimit": limit,
		"endpoints": []string{"GET /usage", "POST /rank", "GET /list_models"},
	})
}

func (h *Handler) rank(c *gin.Context) {
	maxBytes := h.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	jobDescription, uploads, err := readRankForm(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Upload exceeds the maximum allowed size", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid multipart form", nil)
		return
	}

	token := middleware.ClientTokenFromContext(c)
	out, err := h.Svc.Rank(c.Request.Context(), token, jobDescription, uploads)
	if err != nil {
		h.rankError(c, err)
		return
	}

	c.Set("rankScored", len(out.Results))
	c.Set("rankSkipped", len(out.Skipped))
	respond.Success(c, gin.H{
		"results":   out.Results,
		"skipped":   out.Skipped,
		"used":      out.Used,
		"limit":     out.Limit,
		"remaining": out.Remaining,
	})
}

func (h *Handler) rankError(c *gin.Context, err error) {
	var inputErr *InputError
	var quotaErr *usage.QuotaExceededError
	switch {
	case errors.As(err, &inputErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", inputErr.Message, nil)
	case errors.As(err, &quotaErr):
		respond.Error(c, http.StatusPaymentRequired, "quota_exceeded", quotaErr.Error(), map[string]any{
			"used":      quotaErr.Used,
			"limit":     quotaErr.Limit,
			"remaining": quotaErr.Remaining,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "Request canceled", nil)
	default:
		telemetry.Error("rank.failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	}
}

// readRankForm pulls the job description and uploaded files from the request.
// A body that is not multipart is treated as carrying no files.
func readRankForm(c *gin.Context) (string, []Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return c.PostForm(formJobDescription), nil, nil
		}
		return "", nil, err
	}
	defer func() { _ = form.RemoveAll() }()

	jobDescription := ""
	if vals := form.Value[formJobDescription]; len(vals) > 0 {
		jobDescription = vals[0]
	}

	headers := form.File[formResumes]
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		if strings.TrimSpace(fh.Filename) == "" {
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			return "", nil, err
		}
		uploads = append(uploads, Upload{Filename: fh.Filename, Data: data})
	}
	return jobDescription, uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) listModels(c *gin.Context) {
	if h.Models == nil {
		respond.Error(c, http.StatusInternalServerError, "provider_error", llm.ErrNotConfigured.Error(), nil)
		return
	}
	names, err := h.Models.ListModels(c.Request.Context())
	if err != nil {
		telemetry.Warn("list_models.failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "provider_error", "Could not list models", nil)
		return
	}
	if names == nil {
		names = []string{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"models": names})
}

package costs

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/ingest"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/respond"
	"github.com/vaniusmax/projeto-finops/internal/shared/telemetry"
)

const maxImportBytes = 20 << 20

// Handler exposes the imports HTTP surface.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches import routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/imports", h.createImport)
	rg.GET("/imports", h.listImports)
	rg.GET("/imports/:id", h.getImport)
}

func (h *Handler) createImport(c *gin.Context) {
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}

	imp, err := h.Svc.Import(c.Request.Context(), filename, data)
	if errors.Is(err, ErrDuplicateImport) {
		c.Set("importId", imp.ID)
		respond.Error(c, http.StatusConflict, "duplicate_import", "file was already imported", gin.H{
			"importId": imp.ID,
		})
		return
	}
	if err != nil {
		h.respondImportError(c, err)
		return
	}

	c.Set("importId", imp.ID)
	respond.Created(c, toImportResponse(imp))
}

func (h *Handler) listImports(c *gin.Context) {
	imports, err := h.Svc.List(c.Request.Context())
	if err != nil {
		telemetry.Error("costs.list.failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list imports", nil)
		return
	}

	out := importListResponse{Imports: make([]importResponse, 0, len(imports))}
	for _, imp := range imports {
		out.Imports = append(out.Imports, toImportResponse(imp))
	}
	respond.OK(c, out)
}

func (h *Handler) getImport(c *gin.Context) {
	id := c.Param("id")
	imp, err := h.Svc.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "import not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load import", nil)
		return
	}
	c.Set("importId", imp.ID)
	respond.OK(c, toImportResponse(imp))
}

// readUpload accepts either a multipart "file" field or a raw CSV body.
func readUpload(c *gin.Context) (string, []byte, bool) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file field is required", nil)
			return "", nil, false
		}
		if fileHeader.Size > maxImportBytes {
			respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds size limit", nil)
			return "", nil, false
		}
		f, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
			return "", nil, false
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxImportBytes+1))
		if err != nil || int64(len(data)) > maxImportBytes {
			respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read file", nil)
			return "", nil, false
		}
		return fileHeader.Filename, data, true
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil || int64(len(data)) > maxImportBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "failed to read request body", nil)
		return "", nil, false
	}
	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		filename = "import.csv"
	}
	return filename, data, true
}

func (h *Handler) respondImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ingest.ErrEmptyInput):
		respond.Error(c, http.StatusBadRequest, "empty_input", "file has no data rows", nil)
	case errors.Is(err, ingest.ErrUnreadableEncoding):
		respond.Error(c, http.StatusBadRequest, "unreadable_encoding", "file encoding is not supported", nil)
	case errors.Is(err, ingest.ErrMalformedStructure):
		respond.Error(c, http.StatusBadRequest, "malformed_structure", "file is not valid tabular data", nil)
	default:
		telemetry.Error("costs.import.failed", map[string]any{
			"err":        err.Error(),
			"request_id": c.GetString("requestId"),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to import file", nil)
	}
}

package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"addrparser/internal/domain"
	"addrparser/internal/service"
)

// ExportHandler handles workbook export endpoints.
type ExportHandler struct {
	sessionService service.SessionService
	exportService  service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(sessionService service.SessionService, exportService service.ExportService) *ExportHandler {
	return &ExportHandler{sessionService: sessionService, exportService: exportService}
}

// ExportSession handles GET /api/v1/sessions/:id/export
// @Summary      Download parsed results as xlsx
// @Description  Only items with a parse result are included. Responds 204 when there is nothing to export.
// @Tags         exports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Session ID"
// @Success      200 {file} file
// @Success      204
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id}/export [get]
func (h *ExportHandler) ExportSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	file, err := h.sessionService.Export(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToExport) {
			c.Status(http.StatusNoContent)
			return
		}
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName}))
	c.Header("X-Export-Rows", strconv.Itoa(file.RowCount))
	if file.ArchiveID != nil {
		c.Header("X-Export-ID", file.ArchiveID.String())
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// List handles GET /api/v1/exports
// @Summary      List archived exports
// @Description  Newest first, each with a temporary download link. Requires the export archive to be enabled.
// @Tags         exports
// @Produce      json
// @Param        offset query int false "Pagination offset" default(0)
// @Param        limit query int false "Pagination limit" default(20)
// @Success      200 {object} APIResponse{data=[]service.ExportEntry,meta=PagMeta}
// @Failure      404 {object} APIResponse
// @Router       /exports [get]
func (h *ExportHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	entries, total, err := h.exportService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

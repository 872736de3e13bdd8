package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"addrparser/internal/domain"
	"addrparser/internal/handler"
	"addrparser/internal/service"
	"addrparser/mocks"
)

func newExportRouter() (*gin.Engine, *mocks.MockSessionService, *mocks.MockExportService) {
	sessionSvc := new(mocks.MockSessionService)
	exportSvc := new(mocks.MockExportService)
	h := handler.NewExportHandler(sessionSvc, exportSvc)
	r := gin.New()
	r.GET("/sessions/:id/export", h.ExportSession)
	r.GET("/exports", h.List)
	return r, sessionSvc, exportSvc
}

func TestExportHandler_ExportSession(t *testing.T) {
	r, sessionSvc, _ := newExportRouter()

	id := uuid.New()
	archiveID := uuid.New()
	file := &service.ExportFile{
		FileName:    "dia_chi_chuan_hoa_2024-03-15.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		RowCount:    3,
		Data:        []byte("PK\x03\x04workbook"),
		ArchiveID:   &archiveID,
	}
	sessionSvc.On("Export", mock.Anything, id).Return(file, nil)

	w := doJSON(r, http.MethodGet, "/sessions/"+id.String()+"/export", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, file.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=dia_chi_chuan_hoa_2024-03-15.xlsx`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", w.Header().Get("X-Export-Rows"))
	assert.Equal(t, archiveID.String(), w.Header().Get("X-Export-ID"))
	assert.Equal(t, file.Data, w.Body.Bytes())
}

func TestExportHandler_ExportSession_NothingToExport(t *testing.T) {
	r, sessionSvc, _ := newExportRouter()

	id := uuid.New()
	sessionSvc.On("Export", mock.Anything, id).Return(nil, domain.ErrNothingToExport)

	w := doJSON(r, http.MethodGet, "/sessions/"+id.String()+"/export", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestExportHandler_ExportSession_NotFound(t *testing.T) {
	r, sessionSvc, _ := newExportRouter()

	id := uuid.New()
	sessionSvc.On("Export", mock.Anything, id).Return(nil, domain.ErrSessionNotFound)

	w := doJSON(r, http.MethodGet, "/sessions/"+id.String()+"/export", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandler_List(t *testing.T) {
	r, _, exportSvc := newExportRouter()

	entries := []service.ExportEntry{
		{ExportRecord: domain.ExportRecord{ID: uuid.New(), FileName: "a.xlsx"}, DownloadURL: "https://signed/a"},
	}
	exportSvc.On("List", mock.Anything, 10, 5).Return(entries, 11, nil)

	w := doJSON(r, http.MethodGet, "/exports?offset=10&limit=5", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	if assert.NotNil(t, resp.Meta) {
		assert.Equal(t, handler.PagMeta{Total: 11, Offset: 10, Limit: 5}, *resp.Meta)
	}
}

func TestExportHandler_List_DefaultPagination(t *testing.T) {
	r, _, exportSvc := newExportRouter()

	exportSvc.On("List", mock.Anything, 0, 20).Return([]service.ExportEntry{}, 0, nil)

	w := doJSON(r, http.MethodGet, "/exports?limit=1000", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	exportSvc.AssertExpectations(t)
}

func TestExportHandler_List_ArchiveDisabled(t *testing.T) {
	r, _, exportSvc := newExportRouter()

	exportSvc.On("List", mock.Anything, 0, 20).Return(nil, 0, domain.ErrArchiveDisabled)

	w := doJSON(r, http.MethodGet, "/exports", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ARCHIVE_DISABLED", decode(t, w).Error.Code)
}

func TestExportHandler_List_Failure(t *testing.T) {
	r, _, exportSvc := newExportRouter()

	exportSvc.On("List", mock.Anything, 0, 20).Return(nil, 0, errors.New("db down"))

	w := doJSON(r, http.MethodGet, "/exports", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
}

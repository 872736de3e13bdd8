package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"addrparser/internal/batch"
	"addrparser/internal/domain"
	"addrparser/internal/service"
)

// SessionHandler handles batch session endpoints.
type SessionHandler struct {
	sessionService service.SessionService
	maxFileBytes   int64
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, maxFileBytes int64) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, maxFileBytes: maxFileBytes}
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "Mã phiên không hợp lệ")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/sessions
// @Summary      Create a batch session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body body CreateSessionRequest true "Session kind"
// @Success      201 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      400 {object} APIResponse
// @Router       /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	snap, err := h.sessionService.Create(c.Request.Context(), domain.SessionKind(req.Kind))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, snap)
}

// Get handles GET /api/v1/sessions/:id
// @Summary      Get a batch session with its items
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// Delete handles DELETE /api/v1/sessions/:id
// @Summary      Discard a batch session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "Đã xóa phiên làm việc"})
}

// Clear handles POST /api/v1/sessions/:id/clear
// @Summary      Remove every item from a session
// @Description  Results of parse calls still in flight are discarded.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id}/clear [post]
func (h *SessionHandler) Clear(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.sessionService.Clear(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// ResetResults handles POST /api/v1/sessions/:id/reset-results
// @Summary      Clear parse results but keep the items
// @Description  Every item goes back to pending so the whole list can be parsed again. Results of calls still in flight are discarded.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id}/reset-results [post]
func (h *SessionHandler) ResetResults(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.sessionService.ResetResults(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// LoadText handles POST /api/v1/sessions/:id/text
// @Summary      Load addresses from text
// @Description  One address per line; blank lines are dropped. Without append the session's items are replaced.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        body body LoadTextRequest true "Addresses"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id}/text [post]
func (h *SessionHandler) LoadText(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req LoadTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	snap, err := h.sessionService.LoadText(c.Request.Context(), id, req.Text, req.Append)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// LoadFile handles POST /api/v1/sessions/:id/file
// @Summary      Load addresses from a file
// @Description  Accepts .txt, .csv, .xlsx and .xlsm. Spreadsheets contribute every non-blank text cell of the first sheet.
// @Tags         sessions
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        file formData file true "Address file"
// @Param        append formData bool false "Append instead of replace"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      413 {object} APIResponse
// @Router       /sessions/{id}/file [post]
func (h *SessionHandler) LoadFile(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "Vui lòng chọn tệp")
		return
	}
	if h.maxFileBytes > 0 && header.Size > h.maxFileBytes {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}
	appendItems, _ := strconv.ParseBool(c.PostForm("append"))

	file, err := header.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "Không thể đọc tệp")
		return
	}
	defer file.Close()

	snap, err := h.sessionService.LoadFile(c.Request.Context(), id, header.Filename, file, appendItems)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// LoadEmployees handles POST /api/v1/sessions/:id/employees
// @Summary      Load employees into an employee session
// @Description  mode=date loads every employee with the given intake date; mode=id loads one employee. The session's items are replaced.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        body body LoadEmployeesRequest true "Lookup"
// @Success      200 {object} APIResponse{data=domain.SessionSnapshot}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      502 {object} APIResponse
// @Router       /sessions/{id}/employees [post]
func (h *SessionHandler) LoadEmployees(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req LoadEmployeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	var (
		snap *domain.SessionSnapshot
		err  error
	)
	switch req.Mode {
	case "date":
		snap, err = h.sessionService.LoadEmployeesByDate(c.Request.Context(), id, req.Date)
	case "id":
		snap, err = h.sessionService.LoadEmployeeByID(c.Request.Context(), id, personIDString(req.PersonID))
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_MODE", "Chế độ tra cứu phải là date hoặc id")
		return
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// ProcessAll handles POST /api/v1/sessions/:id/process
// @Summary      Parse every pending item
// @Description  Starts a background run that parses items one at a time in order. Poll the session to follow progress.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        body body ProcessRequest false "Run options"
// @Success      202 {object} APIResponse{data=ProcessAcceptedResponse}
// @Failure      404 {object} APIResponse
// @Failure      409 {object} APIResponse
// @Router       /sessions/{id}/process [post]
func (h *SessionHandler) ProcessAll(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	// The body is optional.
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	err := h.sessionService.ProcessAll(c.Request.Context(), id, batch.RunOptions{RetryFailed: req.RetryFailed})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, ProcessAcceptedResponse{SessionID: id.String(), Status: "processing"})
}

// ProcessItem handles POST /api/v1/sessions/:id/items/:itemId/parse
// @Summary      Parse one item
// @Description  Parses the item now and returns it. An item already being processed is returned unchanged.
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        itemId path string true "Item ID"
// @Success      200 {object} APIResponse{data=domain.BatchItem}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Router       /sessions/{id}/items/{itemId}/parse [post]
func (h *SessionHandler) ProcessItem(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "Mã mục không hợp lệ")
		return
	}

	item, err := h.sessionService.ProcessItem(c.Request.Context(), id, itemID)
	if err != nil {
		if c.Request.Context().Err() != nil {
			// Client went away.
			return
		}
		HandleError(c, err)
		return
	}

	RespondOK(c, item)
}

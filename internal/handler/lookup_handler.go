package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"addrparser/internal/domain"
	"addrparser/internal/service"
)

// LookupHandler handles the single address parse and employee lookup endpoints.
type LookupHandler struct {
	lookupService service.LookupService
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(lookupService service.LookupService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService}
}

// ParseAddress handles POST /api/v1/parse-address
// @Summary      Parse one address
// @Description  Normalizes one address with the HRIS parse procedure. When the parser is unreachable a level-0 fallback record is returned with status 502.
// @Tags         lookup
// @Accept       json
// @Produce      json
// @Param        body body ParseAddressRequest true "Address to parse"
// @Success      200 {object} APIResponse{data=domain.ParseResult}
// @Failure      400 {object} APIResponse
// @Failure      502 {object} APIResponse{data=domain.ParseResult}
// @Router       /parse-address [post]
func (h *LookupHandler) ParseAddress(c *gin.Context) {
	var req ParseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	result, err := h.lookupService.ParseAddress(c.Request.Context(), req.Address)
	if err != nil {
		if result == nil {
			HandleError(c, err)
			return
		}
		status, code, msg := MapDomainError(err)
		c.JSON(status, APIResponse{
			Success: false,
			Data:    result,
			Error:   &APIError{Code: code, Message: msg},
		})
		return
	}

	RespondOK(c, result)
}

// EmployeesByDate handles POST /api/v1/employees
// @Summary      List employees by intake date
// @Description  Returns every employee whose intake date equals the given day. No match is an empty list.
// @Tags         lookup
// @Accept       json
// @Produce      json
// @Param        body body EmployeesByDateRequest true "Intake date"
// @Success      200 {object} APIResponse{data=[]domain.Employee}
// @Failure      400 {object} APIResponse
// @Failure      502 {object} APIResponse
// @Router       /employees [post]
func (h *LookupHandler) EmployeesByDate(c *gin.Context) {
	var req EmployeesByDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	employees, err := h.lookupService.EmployeesByDate(c.Request.Context(), req.Date)
	if err != nil {
		if errors.Is(err, domain.ErrDirectoryUnavailable) {
			status, code, msg := MapDomainError(err)
			c.JSON(status, APIResponse{
				Success: false,
				Data:    []domain.Employee{},
				Error:   &APIError{Code: code, Message: msg},
			})
			return
		}
		HandleError(c, err)
		return
	}

	RespondOK(c, employees)
}

// EmployeeByID handles POST /api/v1/employee-search
// @Summary      Find one employee by id
// @Tags         lookup
// @Accept       json
// @Produce      json
// @Param        body body EmployeeSearchRequest true "Employee id"
// @Success      200 {object} APIResponse{data=domain.Employee}
// @Failure      400 {object} APIResponse
// @Failure      404 {object} APIResponse
// @Failure      502 {object} APIResponse
// @Router       /employee-search [post]
func (h *LookupHandler) EmployeeByID(c *gin.Context) {
	var req EmployeeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dữ liệu gửi lên không hợp lệ")
		return
	}

	emp, err := h.lookupService.EmployeeByID(c.Request.Context(), personIDString(req.PersonID))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, emp)
}

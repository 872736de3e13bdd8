package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"addrparser/internal/domain"
	"addrparser/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes, error codes
// and user-facing messages. Messages never carry the underlying error text.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrEmptyAddress):
		return http.StatusBadRequest, "ADDRESS_REQUIRED", "Vui lòng nhập địa chỉ"
	case errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, "INVALID_DATE", "Ngày không hợp lệ, định dạng YYYY-MM-DD"
	case errors.Is(err, domain.ErrInvalidEmployeeID):
		return http.StatusBadRequest, "INVALID_EMPLOYEE_ID", "Vui lòng nhập mã nhân viên hợp lệ"
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest, "EMPTY_INPUT", "Không có địa chỉ nào trong dữ liệu nhập"
	case errors.Is(err, domain.ErrTooManyItems):
		return http.StatusBadRequest, "TOO_MANY_ITEMS", "Số lượng địa chỉ vượt quá giới hạn"
	case errors.Is(err, domain.ErrInvalidSessionKind):
		return http.StatusBadRequest, "INVALID_SESSION_KIND", "Loại phiên không hợp lệ"
	case errors.Is(err, domain.ErrSessionKindMismatch):
		return http.StatusBadRequest, "SESSION_KIND_MISMATCH", "Thao tác không phù hợp với loại phiên"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "Định dạng tệp không được hỗ trợ; chấp nhận: txt, csv, xlsx, xlsm"
	case errors.Is(err, domain.ErrDecodeFailed):
		return http.StatusBadRequest, "DECODE_FAILED", "Không thể đọc tệp"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Tệp vượt quá dung lượng cho phép"
	case errors.Is(err, domain.ErrEmployeeNotFound):
		return http.StatusNotFound, "EMPLOYEE_NOT_FOUND", "Không tìm thấy nhân viên"
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Không tìm thấy phiên làm việc"
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "ITEM_NOT_FOUND", "Không tìm thấy mục cần xử lý"
	case errors.Is(err, domain.ErrBatchRunning):
		return http.StatusConflict, "BATCH_RUNNING", "Đang xử lý, vui lòng chờ"
	case errors.Is(err, domain.ErrArchiveDisabled):
		return http.StatusNotFound, "ARCHIVE_DISABLED", "Chức năng lưu trữ chưa được bật"
	case errors.Is(err, domain.ErrParserUnavailable), errors.Is(err, domain.ErrMalformedResult):
		return http.StatusBadGateway, "PARSER_UNAVAILABLE", "Không thể kết nối đến cơ sở dữ liệu"
	case errors.Is(err, domain.ErrDirectoryUnavailable):
		return http.StatusBadGateway, "DIRECTORY_UNAVAILABLE", "Lỗi khi tải dữ liệu nhân viên"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Đã xảy ra lỗi hệ thống"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Str("code", code).
			Msg("handler: request failed")
	}
	RespondError(c, status, code, msg)
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

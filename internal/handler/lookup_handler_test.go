package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"addrparser/internal/domain"
	"addrparser/internal/handler"
	"addrparser/mocks"
)

func newLookupRouter() (*gin.Engine, *mocks.MockLookupService) {
	mockSvc := new(mocks.MockLookupService)
	h := handler.NewLookupHandler(mockSvc)
	r := gin.New()
	r.POST("/parse-address", h.ParseAddress)
	r.POST("/employees", h.EmployeesByDate)
	r.POST("/employee-search", h.EmployeeByID)
	return r, mockSvc
}

func TestLookupHandler_ParseAddress_Success(t *testing.T) {
	r, mockSvc := newLookupRouter()

	result := &domain.ParseResult{
		OriginalAddress:   "12 Nguyễn Trãi",
		NewAddress:        "12 Nguyễn Trãi, Phường Bến Thành, TP Hồ Chí Minh",
		ParseSuccessLevel: domain.SuccessLevelMostly,
	}
	mockSvc.On("ParseAddress", mock.Anything, "12 Nguyễn Trãi").Return(result, nil)

	w := doJSON(r, http.MethodPost, "/parse-address", handler.ParseAddressRequest{Address: "12 Nguyễn Trãi"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	var got domain.ParseResult
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, *result, got)
	mockSvc.AssertExpectations(t)
}

func TestLookupHandler_ParseAddress_Empty(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("ParseAddress", mock.Anything, "").Return(nil, domain.ErrEmptyAddress)

	w := doJSON(r, http.MethodPost, "/parse-address", handler.ParseAddressRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "ADDRESS_REQUIRED", resp.Error.Code)
}

func TestLookupHandler_ParseAddress_MalformedBody(t *testing.T) {
	r, mockSvc := newLookupRouter()

	w := doJSON(r, http.MethodPost, "/parse-address", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w).Error.Code)
	mockSvc.AssertNotCalled(t, "ParseAddress", mock.Anything, mock.Anything)
}

func TestLookupHandler_ParseAddress_UnreachableCarriesFallback(t *testing.T) {
	r, mockSvc := newLookupRouter()

	fallback := domain.FallbackResult("1 Lê Lợi", "Không thể kết nối đến cơ sở dữ liệu")
	mockSvc.On("ParseAddress", mock.Anything, "1 Lê Lợi").
		Return(fallback, fmt.Errorf("%w: dial tcp", domain.ErrParserUnavailable))

	w := doJSON(r, http.MethodPost, "/parse-address", handler.ParseAddressRequest{Address: "1 Lê Lợi"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "PARSER_UNAVAILABLE", resp.Error.Code)
	var got domain.ParseResult
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "1 Lê Lợi", got.OriginalAddress)
	assert.Equal(t, domain.SuccessLevelNone, got.ParseSuccessLevel)
}

func TestLookupHandler_EmployeesByDate_Success(t *testing.T) {
	r, mockSvc := newLookupRouter()

	employees := []domain.Employee{{ID: 1, Name: "Nguyễn Văn A", StayingAddress: "1 Lý Thường Kiệt"}}
	mockSvc.On("EmployeesByDate", mock.Anything, "2024-03-15").Return(employees, nil)

	w := doJSON(r, http.MethodPost, "/employees", handler.EmployeesByDateRequest{Date: "2024-03-15"})

	assert.Equal(t, http.StatusOK, w.Code)
	var got []domain.Employee
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, employees, got)
}

func TestLookupHandler_EmployeesByDate_EmptyListIsSuccess(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("EmployeesByDate", mock.Anything, "2024-01-01").Return([]domain.Employee{}, nil)

	w := doJSON(r, http.MethodPost, "/employees", handler.EmployeesByDateRequest{Date: "2024-01-01"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestLookupHandler_EmployeesByDate_InvalidDate(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("EmployeesByDate", mock.Anything, "").Return(nil, domain.ErrInvalidDate)

	w := doJSON(r, http.MethodPost, "/employees", handler.EmployeesByDateRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE", decode(t, w).Error.Code)
}

func TestLookupHandler_EmployeesByDate_DirectoryFailure(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("EmployeesByDate", mock.Anything, "2024-03-15").
		Return(nil, fmt.Errorf("%w: login failed", domain.ErrDirectoryUnavailable))

	w := doJSON(r, http.MethodPost, "/employees", handler.EmployeesByDateRequest{Date: "2024-03-15"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "DIRECTORY_UNAVAILABLE", resp.Error.Code)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestLookupHandler_EmployeeByID_NumberOrString(t *testing.T) {
	r, mockSvc := newLookupRouter()

	emp := &domain.Employee{ID: 42, Name: "Lê Văn C", StayingAddress: "3 Trần Phú"}
	mockSvc.On("EmployeeByID", mock.Anything, "42").Return(emp, nil)

	for _, body := range []string{`{"person_id": 42}`, `{"person_id": "42"}`} {
		w := doJSON(r, http.MethodPost, "/employee-search", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		var got domain.Employee
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
		assert.Equal(t, *emp, got)
	}
	mockSvc.AssertNumberOfCalls(t, "EmployeeByID", 2)
}

func TestLookupHandler_EmployeeByID_Missing(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("EmployeeByID", mock.Anything, "").Return(nil, domain.ErrInvalidEmployeeID)

	w := doJSON(r, http.MethodPost, "/employee-search", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_EMPLOYEE_ID", decode(t, w).Error.Code)
}

func TestLookupHandler_EmployeeByID_NotFound(t *testing.T) {
	r, mockSvc := newLookupRouter()

	mockSvc.On("EmployeeByID", mock.Anything, "99999").Return(nil, domain.ErrEmployeeNotFound)

	w := doJSON(r, http.MethodPost, "/employee-search", `{"person_id": "99999"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", resp.Error.Code)
}

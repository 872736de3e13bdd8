package handler

import "strconv"

// Request bodies. Also used by swag to generate OpenAPI documentation.

// ParseAddressRequest represents the single address parse request body.
type ParseAddressRequest struct {
	Address string `json:"address" example:"123 Nguyễn Trãi, Phường 2, Quận 5, TP. Hồ Chí Minh"`
}

// EmployeesByDateRequest represents the intake-date lookup request body.
type EmployeesByDateRequest struct {
	Date string `json:"date" example:"2024-07-01"`
}

// EmployeeSearchRequest represents the employee-by-id lookup request body.
// PersonID may be sent as a JSON number or string.
type EmployeeSearchRequest struct {
	PersonID interface{} `json:"person_id" swaggertype:"string" example:"10245"`
}

// CreateSessionRequest represents the create session request body.
type CreateSessionRequest struct {
	Kind string `json:"kind" example:"manual" enums:"manual,employee"`
}

// LoadTextRequest represents the manual text load request body.
type LoadTextRequest struct {
	Text   string `json:"text" example:"123 Main St\n456 Oak Ave"`
	Append bool   `json:"append" example:"false"`
}

// LoadEmployeesRequest represents the employee load request body.
type LoadEmployeesRequest struct {
	Mode     string      `json:"mode" example:"date" enums:"date,id"`
	Date     string      `json:"date,omitempty" example:"2024-07-01"`
	PersonID interface{} `json:"person_id,omitempty" swaggertype:"string" example:"10245"`
}

// ProcessRequest represents the process-all request body.
type ProcessRequest struct {
	RetryFailed bool `json:"retry_failed" example:"false"`
}

// ProcessAcceptedResponse is returned when a process-all run was started.
type ProcessAcceptedResponse struct {
	SessionID string `json:"session_id" example:"7d9f0e0c-2b4f-4c8a-9a53-2f0a6b0b9c11"`
	Status    string `json:"status" example:"processing"`
}

// personIDString renders a person_id field for validation by the service.
// Blank, missing and non-scalar values become "".
func personIDString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

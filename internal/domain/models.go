package domain

import (
	"time"

	"github.com/google/uuid"
)

// ParseResult is the structured output of the address parse procedure.
// Empty components are "" and unresolved identifiers are 0.
type ParseResult struct {
	OriginalAddress   string       `json:"original_address"`
	AddressPart       string       `json:"address_part"`
	OriginalWard      string       `json:"original_ward"`
	OriginalDistrict  string       `json:"original_district"`
	OriginalCity      string       `json:"original_city"`
	ProvinceIDNew     int          `json:"province_id_new"`
	ProvinceNameNew   string       `json:"province_name_new"`
	WardIDNew         int          `json:"ward_id_new"`
	WardNameNew       string       `json:"ward_name_new"`
	NewAddress        string       `json:"new_address"`
	ParseSuccessLevel SuccessLevel `json:"parse_success_level"`
}

// Trustworthy reports whether NewAddress may be shown as a normalized address.
func (r *ParseResult) Trustworthy() bool {
	return r != nil && r.ParseSuccessLevel.Usable() && r.NewAddress != ""
}

// FallbackResult is returned alongside an error when the parser could not be
// reached, so callers still have a level-0 record to display.
func FallbackResult(address, message string) *ParseResult {
	return &ParseResult{
		OriginalAddress:   address,
		NewAddress:        message,
		ParseSuccessLevel: SuccessLevelNone,
	}
}

// Employee is a record from the HRIS employee directory.
type Employee struct {
	ID             int    `db:"Person_ID" json:"person_id"`
	Name           string `db:"Person_Name" json:"person_name"`
	StayingAddress string `db:"Staying_Address" json:"staying_address"`
}

// ParseRequest is one normalization request: either a raw address or an
// employee carrying an address. Immutable once created.
type ParseRequest struct {
	RawAddress string    `json:"raw_address,omitempty"`
	Employee   *Employee `json:"employee,omitempty"`
}

// Address returns the text to submit to the parser.
func (r ParseRequest) Address() string {
	if r.Employee != nil {
		return r.Employee.StayingAddress
	}
	return r.RawAddress
}

// BatchItem is one request plus its processing state within a session.
type BatchItem struct {
	ID        uuid.UUID    `json:"id"`
	Seq       int          `json:"seq"`
	Request   ParseRequest `json:"request"`
	Status    ItemStatus   `json:"status"`
	Result    *ParseResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SessionSnapshot is a point-in-time copy of a batch session.
type SessionSnapshot struct {
	ID         uuid.UUID   `json:"id"`
	Kind       SessionKind `json:"kind"`
	Running    bool        `json:"running"`
	CreatedAt  time.Time   `json:"created_at"`
	LastActive time.Time   `json:"last_active"`
	Counts     StatusCount `json:"counts"`
	Items      []BatchItem `json:"items"`
}

// StatusCount tallies items by status.
type StatusCount struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Done       int `json:"done"`
	Failed     int `json:"failed"`
}

// CountStatuses tallies items by status.
func CountStatuses(items []BatchItem) StatusCount {
	var c StatusCount
	for i := range items {
		switch items[i].Status {
		case ItemStatusPending:
			c.Pending++
		case ItemStatusProcessing:
			c.Processing++
		case ItemStatusDone:
			c.Done++
		case ItemStatusFailed:
			c.Failed++
		}
	}
	return c
}

// RunSummary describes one completed "process all" run.
type RunSummary struct {
	SessionID  uuid.UUID   `json:"session_id"`
	Kind       SessionKind `json:"kind"`
	Attempted  int         `json:"attempted"`
	Done       int         `json:"done"`
	Failed     int         `json:"failed"`
	Canceled   bool        `json:"canceled"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// ExportRecord is the audit row written for each archived export.
type ExportRecord struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	SessionID uuid.UUID   `db:"session_id" json:"session_id"`
	Kind      SessionKind `db:"kind" json:"kind"`
	FileName  string      `db:"file_name" json:"file_name"`
	RowCount  int         `db:"row_count" json:"row_count"`
	S3Bucket  string      `db:"s3_bucket" json:"-"`
	S3Key     string      `db:"s3_key" json:"-"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

package domain

import "errors"

var (
	ErrEmptyAddress         = errors.New("address is required")
	ErrInvalidDate          = errors.New("date must be YYYY-MM-DD")
	ErrInvalidEmployeeID    = errors.New("employee id must be a positive integer")
	ErrEmptyInput           = errors.New("no addresses in input")
	ErrTooManyItems         = errors.New("too many items for one session")
	ErrInvalidSessionKind   = errors.New("session kind must be manual or employee")
	ErrSessionKindMismatch  = errors.New("operation not allowed for this session kind")
	ErrSessionNotFound      = errors.New("session not found")
	ErrItemNotFound         = errors.New("batch item not found")
	ErrBatchRunning         = errors.New("a batch run is already in progress")
	ErrSessionClosed        = errors.New("session is closed")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrParserUnavailable    = errors.New("address parser unavailable")
	ErrMalformedResult      = errors.New("address parser returned no usable record")
	ErrDirectoryUnavailable = errors.New("employee directory unavailable")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrDecodeFailed         = errors.New("file could not be decoded")
	ErrNothingToExport      = errors.New("no parsed items to export")
	ErrArchiveDisabled      = errors.New("export archive is disabled")
)

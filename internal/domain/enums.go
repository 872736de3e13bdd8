package domain

// SuccessLevel is the parser's confidence indicator, 0 through 3.
// Zero means the parse failed or the parser was unreachable.
type SuccessLevel int

const (
	SuccessLevelNone    SuccessLevel = 0
	SuccessLevelPartial SuccessLevel = 1
	SuccessLevelMostly  SuccessLevel = 2
	SuccessLevelFull    SuccessLevel = 3
)

// Usable reports whether the level is high enough to trust the result.
func (l SuccessLevel) Usable() bool {
	return l > SuccessLevelNone
}

// ClampSuccessLevel maps any integer onto the 0..3 range.
func ClampSuccessLevel(v int) SuccessLevel {
	switch {
	case v < int(SuccessLevelNone):
		return SuccessLevelNone
	case v > int(SuccessLevelFull):
		return SuccessLevelFull
	default:
		return SuccessLevel(v)
	}
}

// ItemStatus is the lifecycle state of a batch item.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusProcessing ItemStatus = "processing"
	ItemStatusDone       ItemStatus = "done"
	ItemStatusFailed     ItemStatus = "failed"
)

// SessionKind selects the workflow a session belongs to. It decides which
// inputs a session accepts and the export layout.
type SessionKind string

const (
	SessionKindManual   SessionKind = "manual"
	SessionKindEmployee SessionKind = "employee"
)

// Valid reports whether k is a known kind.
func (k SessionKind) Valid() bool {
	return k == SessionKindManual || k == SessionKindEmployee
}

// FileType represents the importable file types.
type FileType string

const (
	FileTypeText        FileType = "text"
	FileTypeSpreadsheet FileType = "spreadsheet"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"txt":  FileTypeText,
	"csv":  FileTypeText,
	"xlsx": FileTypeSpreadsheet,
	"xlsm": FileTypeSpreadsheet,
}

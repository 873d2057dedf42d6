package listview

import (
	"context"
	"io"
)

// Store is the storage collaborator for one record type.
type Store[ID comparable, T any] interface {
	// Page runs the filtered, ordered query and returns the requested slice of it
	// together with the total number of matching rows.
	Page(ctx context.Context, q QuerySpec) (Page[T], error)
	// Count returns the number of rows matching q's search and filters.
	Count(ctx context.Context, q QuerySpec) (int, error)
	// MatchingIDs returns the ids of every row matching q's search and filters, in q's order.
	MatchingIDs(ctx context.Context, q QuerySpec) ([]ID, error)
	// Matching returns every row matching q's search and filters, in q's order.
	Matching(ctx context.Context, q QuerySpec) ([]T, error)
	// Existing returns the subset of ids that still exist.
	Existing(ctx context.Context, ids []ID) ([]ID, error)
	// Find returns the rows for ids, skipping ids that no longer exist.
	Find(ctx context.Context, ids []ID) ([]T, error)
	// Delete removes the rows and reports how many were affected.
	Delete(ctx context.Context, ids []ID) (int, error)
}

// Action names a permission checked by an Authorizer.
type Action string

const (
	ActionAccess  Action = "access"
	ActionShow    Action = "show"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
	ActionRestore Action = "restore"
	ActionNotify  Action = "notify"
)

// Subject is the user an operation is performed for.
type Subject struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Decision is the result of an authorization check.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Authorizer is consulted before every destructive, export or import operation.
type Authorizer interface {
	Check(ctx context.Context, resource string, action Action, subject Subject) Decision
}

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
)

// Artifact is a rendered export file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Exporter renders records into a file.
type Exporter[T any] interface {
	Export(ctx context.Context, records []T, format Format) (Artifact, error)
}

// ImportReport summarises a successful import.
type ImportReport struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
}

// Importer loads records from an uploaded file. Validation problems are returned
// as a ValidationFailed error whose Details lists every rejected row.
type Importer interface {
	Import(ctx context.Context, r io.Reader, filename string) (ImportReport, error)
}

// Notification is a fire-and-forget message for the user.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Kind     string `json:"kind"`
	Resource string `json:"resource,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// Notifier delivers notifications without making the caller wait.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

package crud

import (
	"context"
	"net/url"

	"github.com/jwalitptl/birthcare-portal/internal/apiclient"
)

// Record is a server-owned entity addressed by id.
type Record interface {
	RecordID() int64
}

// API is the remote collection a controller manages. *apiclient.Resource satisfies it.
type API[T Record] interface {
	List(ctx context.Context, filters url.Values) ([]T, error)
	Create(ctx context.Context, body interface{}) apiclient.Result[T]
	Update(ctx context.Context, id int64, body interface{}) apiclient.Result[T]
	Delete(ctx context.Context, id int64) error
}

// Schema holds everything resource specific: form fields, validation, search and export.
type Schema[T Record] interface {
	Kind() string
	// Fields copies a record's editable values into a fresh draft.
	Fields(record T) map[string]interface{}
	// Prepare validates draft fields and builds the request body. Any returned field
	// error blocks the submit.
	Prepare(fields map[string]interface{}) (body interface{}, errs map[string]string)
	SearchText(record T) []string
	Columns() []string
	Row(record T) []interface{}
}

package crud

import (
	"context"
)

// Page is a Controller without its record type, as driven by the HTTP layer.
type Page interface {
	Kind() string
	State() State
	Load(ctx context.Context) error
	Retry(ctx context.Context) error
	OpenCreate() error
	OpenEdit(id int64) error
	EditFields(values map[string]interface{}) error
	Submit(ctx context.Context) error
	CancelModal() error
	RequestDelete(id int64) error
	CancelDelete() error
	ConfirmDelete(ctx context.Context) error
	DismissAlert()
	Search(term string) error
	// Render returns the current view, filtered by term when it is not empty.
	Render(term string) interface{}
	Table() ([]string, [][]interface{})
	Close()
}

var _ Page = (*Controller[Record])(nil)

func (c *Controller[T]) Render(term string) interface{} {
	if term == "" {
		return c.View()
	}
	return c.ViewFiltered(term)
}

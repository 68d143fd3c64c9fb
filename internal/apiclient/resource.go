package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Resource is a REST collection: GET/POST on the collection, PUT/DELETE on members.
type Resource[T any] struct {
	client *Client
	name   string
	path   string
}

func NewResource[T any](client *Client, name, path string) *Resource[T] {
	return &Resource[T]{
		client: client,
		name:   name,
		path:   "/" + strings.Trim(path, "/"),
	}
}

func (r *Resource[T]) Name() string {
	return r.name
}

func (r *Resource[T]) member(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

// List fetches the collection. Any failure is returned as *APIError.
func (r *Resource[T]) List(ctx context.Context, filters url.Values) ([]T, error) {
	page, err := r.ListPage(ctx, filters)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resource[T]) ListPage(ctx context.Context, filters url.Values) (ListPage[T], error) {
	resp, err := r.client.do(ctx, r.name, http.MethodGet, r.path, nil, filters)
	if err != nil {
		status, msg := failure(resp, err)
		return ListPage[T]{}, &APIError{Status: status, Message: msg, Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		msg := parseError(resp.Body()).Message
		if msg == "" {
			msg = genericErrorMessage
		}
		return ListPage[T]{}, &APIError{Status: resp.StatusCode(), Message: msg}
	}

	page, err := decodeList[T](resp.Body())
	if err != nil {
		return ListPage[T]{}, &APIError{Status: resp.StatusCode(), Message: genericErrorMessage, Err: err}
	}
	return page, nil
}

func (r *Resource[T]) Create(ctx context.Context, body interface{}) Result[T] {
	return r.write(ctx, http.MethodPost, r.path, body)
}

func (r *Resource[T]) Update(ctx context.Context, id int64, body interface{}) Result[T] {
	return r.write(ctx, http.MethodPut, r.member(id), body)
}

func (r *Resource[T]) write(ctx context.Context, method, path string, body interface{}) Result[T] {
	resp, err := r.client.do(ctx, r.name, method, path, body, nil)
	if err != nil {
		_, msg := failure(resp, err)
		return GenericError[T](msg, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		e := parseError(resp.Body())
		if len(e.Errors) > 0 {
			r.client.log.Info().
				Str("resource", r.name).
				Int("status", resp.StatusCode()).
				Str("fields", flattenFieldErrors(e.Errors)).
				Msg("write rejected with field errors")
			return FieldErrors[T](e.Errors, e.Message)
		}
		return GenericError[T](e.Message, &APIError{Status: resp.StatusCode(), Message: e.Message})
	}

	record, err := decodeRecord[T](resp.Body())
	if err != nil {
		return GenericError[T]("", err)
	}
	return Ok(record)
}

// Delete removes a member. Any failure is returned as *APIError.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	resp, err := r.client.do(ctx, r.name, http.MethodDelete, r.member(id), nil, nil)
	if err != nil {
		status, msg := failure(resp, err)
		return &APIError{Status: status, Message: msg, Err: err}
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		msg := parseError(resp.Body()).Message
		if msg == "" {
			msg = genericErrorMessage
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}
	return nil
}

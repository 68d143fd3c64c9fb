package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

// errorBody covers the error shapes the API uses: {message}, {error},
// {message, errors: {field: [msg...]}} and {errors: {field: msg}}.
type errorBody struct {
	Message string
	Errors  map[string]string
}

func parseError(body []byte) errorBody {
	var raw struct {
		Message string                     `json:"message"`
		Error   string                     `json:"error"`
		Errors  map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return errorBody{}
	}

	out := errorBody{Message: raw.Message}
	if out.Message == "" {
		out.Message = raw.Error
	}
	if len(raw.Errors) == 0 {
		return out
	}

	out.Errors = make(map[string]string, len(raw.Errors))
	for field, msgs := range raw.Errors {
		var list []string
		if err := json.Unmarshal(msgs, &list); err == nil {
			if len(list) > 0 {
				out.Errors[field] = list[0]
			}
			continue
		}
		var single string
		if err := json.Unmarshal(msgs, &single); err == nil && single != "" {
			out.Errors[field] = single
		}
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out
}

// decodeRecord accepts a bare entity or one wrapped in {data: {...}}.
func decodeRecord[T any](body []byte) (T, error) {
	var record T
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if data := bytes.TrimSpace(envelope.Data); len(data) > 0 && data[0] == '{' {
			body = data
		}
	}
	if err := json.Unmarshal(body, &record); err != nil {
		return record, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}

// ListPage is one page of a list response.
type ListPage[T any] struct {
	Items      []T
	Pagination *model.Pagination
}

// decodeList accepts a bare array, {data: [...], pagination|meta?} and a paginator
// nested under data.
func decodeList[T any](body []byte) (ListPage[T], error) {
	var page ListPage[T]
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return page, fmt.Errorf("decode list: empty body")
	}
	if body[0] == '[' {
		if err := json.Unmarshal(body, &page.Items); err != nil {
			return page, fmt.Errorf("decode list: %w", err)
		}
		return page, nil
	}

	for depth := 0; depth < 2; depth++ {
		var envelope struct {
			model.Pagination
			Data   json.RawMessage   `json:"data"`
			Meta   *model.Pagination `json:"meta"`
			Paging *model.Pagination `json:"pagination"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return page, fmt.Errorf("decode list: %w", err)
		}
		switch {
		case envelope.Paging != nil:
			page.Pagination = envelope.Paging
		case envelope.Meta != nil:
			page.Pagination = envelope.Meta
		case envelope.Pagination.Total > 0 || envelope.Pagination.LastPage > 0:
			p := envelope.Pagination
			page.Pagination = &p
		}

		data := bytes.TrimSpace(envelope.Data)
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			page.Items = []T{}
			return page, nil
		}
		if data[0] == '[' {
			if err := json.Unmarshal(data, &page.Items); err != nil {
				return page, fmt.Errorf("decode list: %w", err)
			}
			return page, nil
		}
		body = data
	}
	return page, fmt.Errorf("decode list: unexpected shape")
}

// flattenFieldErrors renders a field error map as one line, for logs.
func flattenFieldErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+errs[k])
	}
	return strings.Join(parts, "; ")
}

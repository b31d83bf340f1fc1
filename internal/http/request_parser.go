// This file implements utilities for parsing request data: the record form,
// grid paging parameters and path ids.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"savings/internal/session"
	"savings/internal/view"
)

// maxBodyBytes bounds request bodies read by RequestBodyParser.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Lookup returns a sanitized value from the parsed data (JSON or form) and
// whether the key was present at all.
func (p *RequestBodyParser) Lookup(key string) (string, bool) {
	if p.jsonData != nil {
		val, ok := p.jsonData[key]
		if !ok {
			return "", false
		}
		return sanitizeInput(stringValue(val)), true
	}
	if p.formData != nil {
		if _, ok := p.formData[key]; !ok {
			return "", false
		}
		return sanitizeInput(p.formData.Get(key)), true
	}
	return "", false
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RecordForm carries the form fields present in a request. A nil field was
// not sent and leaves the session value untouched.
type RecordForm struct {
	Name          *string
	TotalIncomes  *string
	TotalExpenses *string
}

// ParseRecordForm reads the record form fields from a form or JSON body.
func ParseRecordForm(r *http.Request) (RecordForm, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return RecordForm{}, err
	}
	var f RecordForm
	if v, ok := p.Lookup(session.FieldName); ok {
		f.Name = &v
	}
	if v, ok := p.Lookup(session.FieldTotalIncomes); ok {
		f.TotalIncomes = &v
	}
	if v, ok := p.Lookup(session.FieldTotalExpenses); ok {
		f.TotalExpenses = &v
	}
	return f, nil
}

// Empty reports whether no field was sent.
func (f RecordForm) Empty() bool {
	return f.Name == nil && f.TotalIncomes == nil && f.TotalExpenses == nil
}

// ApplyTo copies the sent fields into the edit session.
func (f RecordForm) ApplyTo(s *session.EditSession) {
	if f.Name != nil {
		s.SetName(*f.Name)
	}
	if f.TotalIncomes != nil {
		s.SetTotalIncomes(*f.TotalIncomes)
	}
	if f.TotalExpenses != nil {
		s.SetTotalExpenses(*f.TotalExpenses)
	}
}

// PageParams holds the grid window requested by the client.
type PageParams struct {
	Page int
	Size int
}

// ParsePageParams extracts page and size from query parameters. Missing or
// invalid values fall back to the first page and the default size.
func ParsePageParams(query url.Values) PageParams {
	params := PageParams{Page: 1, Size: view.PageSizes[0]}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Page = n
		}
	}
	if v := strings.TrimSpace(query.Get("size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.Size = view.NormalizePageSize(n)
		}
	}

	return params
}

// ParseRecordID reads the {id} path value as a positive record id.
func ParseRecordID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid record id")
	}
	return id, nil
}

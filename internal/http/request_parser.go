// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"igreja/internal/core"
)

// maxBodyBytes bounds edit payloads; a full attendance month is far below it.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// MonthQuery holds the selection parameters shared by the ledger routes.
type MonthQuery struct {
	Month      core.Month
	Disciplers []string
	Type       core.SessionType
}

// parseMonth reads the month parameter, by name ("Março") or number
// ("3"). An absent parameter yields def.
func parseMonth(query url.Values, def core.Month) (core.Month, error) {
	v := sanitizeInput(query.Get("month"))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		m := core.Month(n)
		if err := m.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		return m, nil
	}
	m, err := core.ParseMonth(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return m, nil
}

// parseDisciplers reads one discipler per repeated parameter, so names
// may contain commas. Blank entries are dropped.
func parseDisciplers(query url.Values) []string {
	var out []string
	for _, v := range query["discipler"] {
		if d := sanitizeInput(v); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// ParseMonthQuery extracts month, disciplers and session type from the
// query string.
func ParseMonthQuery(query url.Values, def core.Month) (MonthQuery, error) {
	m, err := parseMonth(query, def)
	if err != nil {
		return MonthQuery{}, err
	}
	q := MonthQuery{Month: m, Disciplers: parseDisciplers(query)}
	if v := sanitizeInput(query.Get("type")); v != "" {
		t, err := core.ParseSessionType(v)
		if err != nil {
			return MonthQuery{}, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		q.Type = t
	}
	return q, nil
}

// decodeJSON decodes a bounded JSON body into v, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

// formValues reads fields from either a JSON object body or a form post.
func formValues(w http.ResponseWriter, r *http.Request, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]string
		if err := decodeJSON(w, r, &body); err != nil {
			return nil, err
		}
		for _, f := range fields {
			out[f] = sanitizeInput(body[f])
		}
		return out, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	for _, f := range fields {
		out[f] = sanitizeInput(r.PostForm.Get(f))
	}
	return out, nil
}

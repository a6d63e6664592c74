package tfe

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind classifies an HTTP response.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindServerError
	KindClientError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindClientError:
		return "client_error"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of one logical request, after retries.
type Result struct {
	Kind       Kind
	Status     int
	Body       []byte
	Header     http.Header
	RetryAfter time.Duration
	Attempts   int
}

func classify(status int, header http.Header, body []byte) *Result {
	res := &Result{Status: status, Body: body, Header: header}
	switch {
	case status >= 200 && status < 300:
		res.Kind = KindSuccess
	case status == http.StatusNotFound:
		res.Kind = KindNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		res.Kind = KindUnauthorized
	case status == http.StatusTooManyRequests:
		res.Kind = KindRateLimited
		res.RetryAfter = parseRetryAfter(header.Get("Retry-After"), time.Now())
	case status >= 500:
		res.Kind = KindServerError
	default:
		res.Kind = KindClientError
	}
	return res
}

// Err maps a non-success result onto the error taxonomy. resource names the
// thing being requested so every message says what it concerns.
func (r *Result) Err(resource string) error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindNotFound:
		return &NotFoundError{Resource: resource}
	case KindUnauthorized:
		return &AuthorizationError{Status: r.Status, Resource: resource}
	case KindRateLimited:
		return &RateLimitError{Resource: resource, RetryAfter: r.RetryAfter, Attempts: r.Attempts}
	case KindServerError:
		return &ServerError{Status: r.Status, Resource: resource, Detail: errorDetail(r.Body)}
	default:
		return &ClientError{Status: r.Status, Resource: resource, Detail: errorDetail(r.Body)}
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

const maxErrorDetail = 512

// errorDetail extracts JSON:API error details, falling back to the
// truncated body.
func errorDetail(body []byte) string {
	var doc struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err == nil && len(doc.Errors) > 0 {
		parts := make([]string, 0, len(doc.Errors))
		for _, e := range doc.Errors {
			switch {
			case e.Detail != "":
				parts = append(parts, e.Detail)
			case e.Title != "":
				parts = append(parts, e.Title)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorDetail {
		text = text[:maxErrorDetail] + "..."
	}
	return text
}

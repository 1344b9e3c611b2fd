package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// EnvelopeShape tags how a relay wraps the target response. The set is
// closed: each relay is assigned exactly one shape at construction.
type EnvelopeShape int

const (
	// EnvelopeJSONContents is a JSON envelope carrying the body in a
	// "contents" field and target status/final URL in a "status" object.
	EnvelopeJSONContents EnvelopeShape = iota
	// EnvelopeStatusWrapped is a flat JSON envelope with "status",
	// "body" and optional "url" fields.
	EnvelopeStatusWrapped
	// EnvelopeRaw passes the target response through unchanged; the
	// relay's own status code and headers are the target's.
	EnvelopeRaw
)

// Relay describes one proxy endpoint used to fetch pages despite
// cross-origin restrictions.
type Relay struct {
	Name     string
	Template string // URL template; %s receives the escaped target URL
	Timeout  time.Duration
	Shape    EnvelopeShape
}

// BuildURL returns the relay request URL for a target.
func (r Relay) BuildURL(target string) string {
	return fmt.Sprintf(r.Template, url.QueryEscape(target))
}

// DefaultRelays returns the relay chain in priority order.
func DefaultRelays(timeout time.Duration) []Relay {
	return []Relay{
		{
			Name:     "allorigins",
			Template: "https://api.allorigins.win/get?url=%s",
			Timeout:  timeout,
			Shape:    EnvelopeJSONContents,
		},
		{
			Name:     "corsproxy",
			Template: "https://corsproxy.io/?url=%s",
			Timeout:  timeout,
			Shape:    EnvelopeRaw,
		},
		{
			Name:     "codetabs",
			Template: "https://api.codetabs.com/v1/proxy?quest=%s",
			Timeout:  timeout,
			Shape:    EnvelopeRaw,
		},
	}
}

// envelope is the normalized view of one relay response.
type envelope struct {
	StatusCode int
	FinalURL   string
	Body       string
	Headers    http.Header
}

type jsonContentsEnvelope struct {
	Contents string `json:"contents"`
	Status   struct {
		HTTPCode int    `json:"http_code"`
		URL      string `json:"url"`
	} `json:"status"`
}

type statusWrappedEnvelope struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	URL    string `json:"url"`
}

// unwrap normalizes a relay response according to the relay's shape.
// A malformed envelope is a failed attempt, not an escalated error.
func unwrap(shape EnvelopeShape, relayStatus int, headers http.Header, raw []byte) (envelope, error) {
	switch shape {
	case EnvelopeJSONContents:
		var e jsonContentsEnvelope
		if err := json.Unmarshal(raw, &e); err != nil {
			return envelope{}, fmt.Errorf("malformed contents envelope: %w", err)
		}
		status := e.Status.HTTPCode
		if status == 0 && relayStatus == http.StatusOK && e.Contents != "" {
			// Some deployments omit the status object on success.
			status = http.StatusOK
		}
		return envelope{
			StatusCode: status,
			FinalURL:   e.Status.URL,
			Body:       e.Contents,
			Headers:    http.Header{},
		}, nil

	case EnvelopeStatusWrapped:
		var e statusWrappedEnvelope
		if err := json.Unmarshal(raw, &e); err != nil {
			return envelope{}, fmt.Errorf("malformed status envelope: %w", err)
		}
		return envelope{
			StatusCode: e.Status,
			FinalURL:   e.URL,
			Body:       e.Body,
			Headers:    http.Header{},
		}, nil

	default: // EnvelopeRaw
		return envelope{
			StatusCode: relayStatus,
			Body:       string(raw),
			Headers:    headers,
		}, nil
	}
}

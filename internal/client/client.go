// Package client talks to the booking API on behalf of the conflict coordinator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nekogravitycat/espaco-booking-backend/internal/booking"
	bookinghttp "github.com/nekogravitycat/espaco-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/espaco-booking-backend/internal/conflict"
	"github.com/nekogravitycat/espaco-booking-backend/internal/pkg/response"
)

const defaultTimeout = 15 * time.Second

// ErrMalformedResponse is reported when a response body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// APIError is a non-conflict, non-validation failure returned by the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client is a booking API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the API mounted at baseURL (e.g. http://host/v1).
// token is sent as a bearer token on every request.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ conflict.Writer = (*Client)(nil)

// Write creates the candidate, or patches it when it carries an id.
// Every failure is folded into a tagged Outcome; Write never panics on bad payloads.
func (c *Client) Write(ctx context.Context, cand conflict.Candidate, force bool) conflict.Outcome {
	var (
		method string
		path   string
		body   any
	)
	if cand.IsEdit() {
		method, path = http.MethodPatch, "/agendamentos/"+cand.ID
		body = bookinghttp.UpdateBookingBody{
			Title:         &cand.Title,
			SpaceID:       &cand.SpaceID,
			StartDate:     &cand.StartDate,
			StartTime:     &cand.StartTime,
			EndDate:       &cand.EndDate,
			EndTime:       &cand.EndTime,
			Justification: &cand.Justification,
			Notes:         cand.Notes,
			ForceUpdate:   force,
		}
	} else {
		method, path = http.MethodPost, "/agendamentos"
		b := bookinghttp.CreateBookingBody{
			Title:         cand.Title,
			SpaceID:       cand.SpaceID,
			StartDate:     cand.StartDate,
			StartTime:     cand.StartTime,
			EndDate:       cand.EndDate,
			EndTime:       cand.EndTime,
			Justification: cand.Justification,
			Notes:         cand.Notes,
			ForceUpdate:   force,
		}
		if cand.Recurrence != nil {
			b.Recurrence = &bookinghttp.RecurrenceBody{
				Kind:          string(cand.Recurrence.Kind),
				SeriesEndDate: cand.Recurrence.SeriesEndDate,
			}
		}
		body = b
	}

	status, raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return conflict.Transport(err)
	}
	return c.classify(status, raw)
}

// Transition applies a lifecycle action such as aprovar or cancelar.
func (c *Client) Transition(ctx context.Context, id string, action booking.Action, reason string) (*booking.Booking, error) {
	var body any
	if reason != "" {
		body = bookinghttp.StatusChangeBody{Reason: reason}
	}

	status, raw, err := c.do(ctx, http.MethodPost, "/agendamentos/"+id+"/"+string(action), body)
	if err != nil {
		return nil, err
	}
	out := c.classify(status, raw)
	if out.Kind != conflict.OutcomeSuccess {
		return nil, out.Err
	}
	return out.Booking, nil
}

// classify turns a status and body into exactly one outcome kind.
func (c *Client) classify(status int, raw []byte) conflict.Outcome {
	if status >= 200 && status < 300 {
		var resp bookinghttp.BookingResponse
		if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
			return conflict.Transport(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
		return conflict.Success(resp.ToBooking())
	}

	var envelope struct {
		Kind      string                        `json:"kind"`
		Error     string                        `json:"error"`
		Fields    map[string]string             `json:"fields"`
		Conflicts []bookinghttp.BookingResponse `json:"conflicts"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logger.Warn("undecodable error response", "status", status, "error", err)
		return conflict.Transport(&APIError{StatusCode: status, Message: http.StatusText(status)})
	}

	switch envelope.Kind {
	case response.KindConflict:
		if len(envelope.Conflicts) == 0 {
			return conflict.Transport(fmt.Errorf("%w: conflict without conflicts", ErrMalformedResponse))
		}
		conflicts := make([]*booking.Booking, len(envelope.Conflicts))
		for i, r := range envelope.Conflicts {
			if r.ID == "" {
				return conflict.Transport(fmt.Errorf("%w: conflict without id", ErrMalformedResponse))
			}
			conflicts[i] = r.ToBooking()
		}
		return conflict.Conflicts(conflicts)

	case response.KindValidation:
		out := conflict.Validation(envelope.Fields)
		out.Err = &APIError{StatusCode: status, Message: envelope.Error}
		return out

	default:
		msg := envelope.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return conflict.Transport(&APIError{StatusCode: status, Message: msg})
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, raw, nil
}

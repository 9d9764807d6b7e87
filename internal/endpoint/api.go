package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cosmelab/labgrid/internal/heatmap"
	"github.com/cosmelab/labgrid/internal/lablog"
	"github.com/cosmelab/labgrid/internal/poll"
)

// Fallback messages when a failed response carries none.
const (
	msgFetchFailed  = "Failed to fetch data"
	msgLogsFailed   = "Failed to load your logs"
	msgSubmitFailed = "Failed to submit log. Please try again."
	msgPollFailed   = "Failed to submit availability"

	msgIdentityFailed = "Account lookup failed"
)

// Mode selects how an availability submission is delivered.
type Mode string

const (
	// ModeOpaque assumes success once the request is sent; the response
	// is neither read nor checked.
	ModeOpaque Mode = "opaque"
	// ModeReadable reads the {success, message} response contract.
	ModeReadable Mode = "readable"
)

// ParseMode accepts "opaque" or "readable"; empty means ModeReadable.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeReadable:
		return ModeReadable, nil
	case ModeOpaque:
		return ModeOpaque, nil
	default:
		return "", fmt.Errorf("unknown submit mode %q (want opaque or readable)", s)
	}
}

// Identity is the authenticated user reported by the web app.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LogsResponse is the getMyLogs payload.
type LogsResponse struct {
	Success bool           `json:"success"`
	Email   string         `json:"email"`
	Logs    []lablog.Entry `json:"logs"`
	Error   string         `json:"error"`
}

// LogResult is the confirmation returned for a stored lab log.
type LogResult struct {
	Message     string       `json:"message"`
	Timestamp   string       `json:"timestamp"`
	Email       string       `json:"email"`
	HoursWorked lablog.Hours `json:"hours_worked"`
}

type resultEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e resultEnvelope) failure(fallback string) error {
	if e.Success {
		return nil
	}
	msg := e.Error
	if msg == "" {
		msg = e.Message
	}
	if msg == "" {
		msg = fallback
	}
	return &RemoteError{Message: msg}
}

const identityKey = "identity"

// GetUserEmail returns the authenticated identity. A missing name is
// derived from the email address. Results are cached briefly.
func (c *Client) GetUserEmail(ctx context.Context) (Identity, error) {
	if v, ok := c.cache.Get(identityKey); ok {
		return v.(Identity), nil
	}

	// The identity reply carries no success flag when it works; an
	// authentication rejection sets success false and an error.
	var resp struct {
		Identity
		Success *bool  `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := c.getJSON(ctx, "getUserEmail", &resp); err != nil {
		return Identity{}, fmt.Errorf("getting user email: %w", err)
	}
	if resp.Error != "" || (resp.Success != nil && !*resp.Success) {
		env := resultEnvelope{Message: resp.Message, Error: resp.Error}
		return Identity{}, env.failure(msgIdentityFailed)
	}

	id := resp.Identity
	if id.Name == "" {
		id.Name = lablog.NameFromEmail(id.Email)
	}
	if id.Email != "" {
		c.cache.SetDefault(identityKey, id)
	}
	return id, nil
}

// GetMyLogs returns the authenticated user's lab logs.
func (c *Client) GetMyLogs(ctx context.Context) (*LogsResponse, error) {
	var resp LogsResponse
	if err := c.getJSON(ctx, "getMyLogs", &resp); err != nil {
		return nil, fmt.Errorf("getting logs: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = msgLogsFailed
		}
		return nil, &RemoteError{Message: msg}
	}
	return &resp, nil
}

// SubmitLog stores one lab log entry.
func (c *Client) SubmitLog(ctx context.Context, e lablog.Entry) (*LogResult, error) {
	var resp struct {
		resultEnvelope
		Data LogResult `json:"data"`
	}
	if err := c.postJSON(ctx, e, &resp); err != nil {
		return nil, fmt.Errorf("submitting log: %w", err)
	}
	if err := resp.failure(msgSubmitFailed); err != nil {
		return nil, err
	}
	result := resp.Data
	result.Message = resp.Message
	return &result, nil
}

// SubmitAvailability sends a poll submission. In ModeOpaque only transport
// errors are reported.
func (c *Client) SubmitAvailability(ctx context.Context, s *poll.Submission, mode Mode) error {
	if mode == ModeOpaque {
		resp, err := c.do(ctx, http.MethodPost, c.actionURL(""), s)
		if err != nil {
			return fmt.Errorf("submitting availability: %w", err)
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		return nil
	}

	var resp resultEnvelope
	if err := c.postJSON(ctx, s, &resp); err != nil {
		return fmt.Errorf("submitting availability: %w", err)
	}
	return resp.failure(msgPollFailed)
}

// Submitter binds a delivery mode, satisfying poll.Submitter.
func (c *Client) Submitter(mode Mode) poll.Submitter {
	return modeSubmitter{client: c, mode: mode}
}

type modeSubmitter struct {
	client *Client
	mode   Mode
}

func (m modeSubmitter) SubmitAvailability(ctx context.Context, s *poll.Submission) error {
	return m.client.SubmitAvailability(ctx, s, m.mode)
}

// FetchSchedule returns every availability row.
func (c *Client) FetchSchedule(ctx context.Context) ([]heatmap.Row, error) {
	var resp struct {
		resultEnvelope
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "", &resp); err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	if err := resp.failure(msgFetchFailed); err != nil {
		return nil, err
	}

	rows := []heatmap.Row{}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return rows, nil
	}
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return nil, fmt.Errorf("decoding schedule rows: %w", err)
	}
	c.logger.Debug("schedule fetched", zap.Int("rows", len(rows)))
	return rows, nil
}

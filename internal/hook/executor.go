// Package hook runs user commands when the overlay color changes.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/pkg/errors"

	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/store"
)

// EventColorChange is the only event hooks receive today.
const EventColorChange = "color_change"

// Payload is written as JSON to the hook's stdin.
type Payload struct {
	Event     string        `json:"event"`
	SessionID string        `json:"session_id"`
	Previous  gesture.Color `json:"previous"`
	Color     gesture.Color `json:"color"`
	At        time.Time     `json:"at"`
}

// Response is the optional JSON a hook may print on stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Executor handles the execution of hooks with timeout support.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the given timeout.
func NewExecutor(timeout time.Duration) *Executor {
	return &Executor{
		timeout: timeout,
	}
}

// Execute runs h with p on stdin. A hook that prints nothing counts as
// successful; one that prints anything must print a Response.
func (e *Executor) Execute(ctx context.Context, h *store.Hook, p *Payload) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Command, h.Args...)
	// Children that inherit stdout must not hold Run open past the timeout.
	cmd.WaitDelay = time.Second

	body, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}
	cmd.Stdin = bytes.NewReader(body)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.Errorf("hook %s timed out after %s", h.Name, e.timeout)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, errors.Wrapf(err, "hook %s failed, stderr: %s", h.Name, s)
		}
		return nil, errors.Wrapf(err, "hook %s failed", h.Name)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return &Response{Success: true}, nil
	}

	var response Response
	if err := json.Unmarshal(out, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to parse hook response, stdout: %s", out)
	}

	return &response, nil
}

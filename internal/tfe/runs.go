package tfe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListRuns lists runs of a workspace. statusGroup is passed as
// filter[status_group] when set, e.g. "non_final".
func (c *Client) ListRuns(ctx context.Context, workspaceID, statusGroup string) ([]Run, error) {
	q := url.Values{}
	if statusGroup != "" {
		q.Set("filter[status_group]", statusGroup)
	}
	return FetchAll[Run](ctx, c, "workspaces/"+url.PathEscape(workspaceID)+"/runs", q,
		Resource("runs of workspace "+workspaceID))
}

// GetRun fetches a run by id.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var doc document[Run]
	if err := c.Do(ctx, Request{Path: "runs/" + url.PathEscape(runID), Resource: "run " + runID}, &doc); err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// GetRunPhase fetches the plan or apply of a run.
func (c *Client) GetRunPhase(ctx context.Context, runID string, phase Phase) (*RunPhase, error) {
	var doc document[RunPhase]
	err := c.Do(ctx, Request{
		Path:     "runs/" + url.PathEscape(runID) + "/" + string(phase),
		Resource: fmt.Sprintf("%s of run %s", phase, runID),
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// GetLogContent downloads the log behind a log-read-url.
func (c *Client) GetLogContent(ctx context.Context, logURL string) (string, error) {
	res, err := c.Send(ctx, Request{Path: logURL, Resource: "log content"})
	if err != nil {
		return "", err
	}
	if err := res.Err("log content"); err != nil {
		return "", err
	}
	return string(res.Body), nil
}

// CancelRun asks the API to cancel an active run.
func (c *Client) CancelRun(ctx context.Context, runID, comment string) error {
	return c.runAction(ctx, runID, "cancel", comment)
}

// DiscardRun asks the API to discard a run awaiting confirmation.
func (c *Client) DiscardRun(ctx context.Context, runID, comment string) error {
	return c.runAction(ctx, runID, "discard", comment)
}

func (c *Client) runAction(ctx context.Context, runID, action, comment string) error {
	var body any
	if comment != "" {
		body = map[string]string{"comment": comment}
	}
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "runs/" + url.PathEscape(runID) + "/actions/" + action,
		Body:     body,
		Resource: fmt.Sprintf("%s of run %s", action, runID),
	}, nil)
}

// RunEvent is one entry of a run's timeline.
type RunEvent struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Action      string `json:"action"`
		Description string `json:"description"`
		CreatedAt   string `json:"created-at"`
	} `json:"attributes"`
}

// ListRunEvents returns the timeline of a run in server order.
func (c *Client) ListRunEvents(ctx context.Context, runID string) ([]RunEvent, error) {
	return FetchAll[RunEvent](ctx, c, "runs/"+url.PathEscape(runID)+"/run-events", nil,
		Resource("events of run "+runID))
}

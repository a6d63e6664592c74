package tfe

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// LockWorkspace locks a workspace. A 409 becomes *LockConflictError.
func (c *Client) LockWorkspace(ctx context.Context, workspaceID, reason string) error {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "workspaces/" + url.PathEscape(workspaceID) + "/actions/lock",
		Body:     body,
		Resource: "lock of workspace " + workspaceID,
	}, nil)
	var ce *ClientError
	if errors.As(err, &ce) && ce.Status == http.StatusConflict {
		return &LockConflictError{WorkspaceID: workspaceID, Detail: ce.Detail}
	}
	return err
}

// UnlockWorkspace releases a workspace lock.
func (c *Client) UnlockWorkspace(ctx context.Context, workspaceID string) error {
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "workspaces/" + url.PathEscape(workspaceID) + "/actions/unlock",
		Resource: "unlock of workspace " + workspaceID,
	}, nil)
}

// GetCurrentStateVersion fetches the workspace's current state version.
func (c *Client) GetCurrentStateVersion(ctx context.Context, workspaceID string) (*StateVersion, error) {
	var doc document[StateVersion]
	err := c.Do(ctx, Request{
		Path:     "workspaces/" + url.PathEscape(workspaceID) + "/current-state-version",
		Resource: "current state version of workspace " + workspaceID,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// DownloadState fetches the raw state document behind a download URL.
func (c *Client) DownloadState(ctx context.Context, downloadURL string) ([]byte, error) {
	res, err := c.Send(ctx, Request{Path: downloadURL, Resource: "state download"})
	if err != nil {
		return nil, err
	}
	if err := res.Err("state download"); err != nil {
		return nil, err
	}
	return res.Body, nil
}

// UploadState creates a new state version from a state document.
func (c *Client) UploadState(ctx context.Context, workspaceID string, state *StateFile) (*StateVersion, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state for workspace %s: %w", workspaceID, err)
	}
	sum := md5.Sum(raw)

	var req stateVersionCreate
	req.Data.Type = "state-versions"
	req.Data.Attributes = StateVersionUpload{
		Serial:  state.Serial,
		MD5:     hex.EncodeToString(sum[:]),
		Lineage: state.Lineage,
		State:   base64.StdEncoding.EncodeToString(raw),
	}

	var doc document[StateVersion]
	err = c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "workspaces/" + url.PathEscape(workspaceID) + "/state-versions",
		Body:     req,
		Resource: "state upload for workspace " + workspaceID,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

package tfe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ConfigurationVersion is an uploaded Terraform configuration.
type ConfigurationVersion struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Status      string `json:"status"`
		Source      string `json:"source"`
		Speculative bool   `json:"speculative"`
	} `json:"attributes"`
	Links struct {
		Download string `json:"download,omitempty"`
	} `json:"links"`
}

// Downloadable reports whether the archive has finished uploading.
func (cv ConfigurationVersion) Downloadable() bool {
	return cv.Attributes.Status == "uploaded"
}

// ListConfigurationVersions returns the configuration versions of a
// workspace, newest first.
func (c *Client) ListConfigurationVersions(ctx context.Context, workspaceID string) ([]ConfigurationVersion, error) {
	return FetchAll[ConfigurationVersion](ctx, c, "workspaces/"+url.PathEscape(workspaceID)+"/configuration-versions", nil,
		Resource("configuration versions of workspace "+workspaceID))
}

// GetConfigurationVersion fetches one configuration version.
func (c *Client) GetConfigurationVersion(ctx context.Context, id string) (*ConfigurationVersion, error) {
	var doc document[ConfigurationVersion]
	err := c.Do(ctx, Request{Path: "configuration-versions/" + url.PathEscape(id), Resource: "configuration version " + id}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// LatestConfigurationVersion returns the newest downloadable configuration
// version of a workspace.
func (c *Client) LatestConfigurationVersion(ctx context.Context, workspaceID string) (*ConfigurationVersion, error) {
	cvs, err := c.ListConfigurationVersions(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, cv := range cvs {
		if cv.Downloadable() {
			return &cv, nil
		}
	}
	return nil, &NotFoundError{Resource: "downloadable configuration version of workspace " + workspaceID}
}

// DownloadConfiguration fetches the tar.gz archive of a configuration
// version. The API answers with a redirect that the HTTP client follows.
func (c *Client) DownloadConfiguration(ctx context.Context, id string) ([]byte, error) {
	resource := "configuration archive " + id
	res, err := c.Send(ctx, Request{Path: "configuration-versions/" + url.PathEscape(id) + "/download", Resource: resource})
	if err != nil {
		return nil, err
	}
	if err := res.Err(resource); err != nil {
		return nil, err
	}
	if res.Status == http.StatusNoContent || len(res.Body) == 0 {
		return nil, fmt.Errorf("%s has no downloadable content", resource)
	}
	return res.Body, nil
}

package tfe

import (
	"context"
	"net/url"
	"sort"
)

// OrganizationTag is a tag name known to an organization.
type OrganizationTag struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name          string `json:"name"`
		InstanceCount int    `json:"instance-count"`
		CreatedAt     string `json:"created-at"`
	} `json:"attributes"`
}

// TagBinding is a key/value tag attached to a workspace or project. Flat
// workspace tags are reported with an empty value.
type TagBinding struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type"`
	Attributes struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"attributes"`
}

type flatTag struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

// ListOrganizationTags returns the tags of one organization, optionally
// narrowed by the server-side q search.
func (c *Client) ListOrganizationTags(ctx context.Context, org, search string) ([]OrganizationTag, error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	return FetchAll[OrganizationTag](ctx, c, "organizations/"+url.PathEscape(org)+"/tags", q,
		Resource("tags of organization "+org))
}

// ListWorkspaceTags returns the key/value bindings of a workspace followed
// by its flat tags, each group sorted by key.
func (c *Client) ListWorkspaceTags(ctx context.Context, workspaceID string) ([]TagBinding, error) {
	bindings, err := c.listTagBindings(ctx, "workspaces", workspaceID)
	if err != nil {
		return nil, err
	}
	flat, err := FetchAll[flatTag](ctx, c, "workspaces/"+url.PathEscape(workspaceID)+"/relationships/tags", nil,
		Resource("tags of workspace "+workspaceID), AllowMissing())
	if err != nil {
		return nil, err
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].Attributes.Name < flat[j].Attributes.Name })
	for _, t := range flat {
		var b TagBinding
		b.ID, b.Type = t.ID, "tags"
		b.Attributes.Key = t.Attributes.Name
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// ListProjectTags returns the key/value bindings of a project.
func (c *Client) ListProjectTags(ctx context.Context, projectID string) ([]TagBinding, error) {
	return c.listTagBindings(ctx, "projects", projectID)
}

func (c *Client) listTagBindings(ctx context.Context, kind, id string) ([]TagBinding, error) {
	bindings, err := FetchAll[TagBinding](ctx, c, kind+"/"+url.PathEscape(id)+"/tag-bindings", nil,
		Resource("tag bindings of "+id))
	if err != nil {
		return nil, err
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Attributes.Key < bindings[j].Attributes.Key })
	return bindings, nil
}

package tfe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// WorkspaceIDPrefix marks a target as a workspace id rather than a name.
const WorkspaceIDPrefix = "ws-"

// ListWorkspaces lists the workspaces of an organization, optionally
// filtered by a name search.
func (c *Client) ListWorkspaces(ctx context.Context, org, search string) ([]Workspace, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search[name]", search)
	}
	return FetchAll[Workspace](ctx, c, "organizations/"+url.PathEscape(org)+"/workspaces", q,
		Resource("workspaces of organization "+org))
}

// GetWorkspace fetches a workspace by id.
func (c *Client) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var doc document[Workspace]
	err := c.Do(ctx, Request{Path: "workspaces/" + url.PathEscape(id), Resource: "workspace " + id}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// GetWorkspaceByName fetches a workspace by organization and name.
func (c *Client) GetWorkspaceByName(ctx context.Context, org, name string) (*Workspace, error) {
	var doc document[Workspace]
	err := c.Do(ctx, Request{
		Path:     "organizations/" + url.PathEscape(org) + "/workspaces/" + url.PathEscape(name),
		Resource: fmt.Sprintf("workspace %q in organization %s", name, org),
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

// ResolveWorkspace finds a workspace from a CLI target. A target with the
// ws- prefix is an id. A name is looked up in org, or in every visible
// organization when org is empty.
func (c *Client) ResolveWorkspace(ctx context.Context, target, org string) (*Workspace, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, &ValidationError{Field: "workspace", Message: "target is empty"}
	}
	if strings.HasPrefix(target, WorkspaceIDPrefix) {
		return c.GetWorkspace(ctx, target)
	}
	if org != "" {
		return c.GetWorkspaceByName(ctx, org, target)
	}

	orgs, err := c.OrganizationNames(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %q: %w", target, err)
	}
	batch := FetchFromMany(ctx, "workspace search", orgs, c.Parallelism(),
		func(ctx context.Context, o string) ([]Workspace, error) {
			ws, err := c.GetWorkspaceByName(ctx, o, target)
			if IsNotFound(err) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return []Workspace{*ws}, nil
		})
	if err := batch.Err(); err != nil {
		c.logger.Warn("workspace search incomplete", "workspace", target, "error", err)
	}
	if len(batch.Items) == 0 {
		return nil, &NotFoundError{Resource: fmt.Sprintf("workspace %q in any organization", target)}
	}
	// Fan-out completion order is arbitrary; pick the same org every time.
	sort.Slice(batch.Items, func(i, j int) bool { return batch.Items[i].Tenant < batch.Items[j].Tenant })
	if len(batch.Items) > 1 {
		orgNames := make([]string, 0, len(batch.Items))
		for _, it := range batch.Items {
			orgNames = append(orgNames, it.Tenant)
		}
		c.logger.Warn("workspace name exists in several organizations; pass --org to choose",
			"workspace", target, "organizations", orgNames, "chosen", orgNames[0])
	}
	ws := batch.Items[0].Item
	return &ws, nil
}

// GetRaw fetches a single-resource document and returns its data member
// undecoded. path may be a relationship link starting with /api/v2.
func (c *Client) GetRaw(ctx context.Context, path, resource string) (json.RawMessage, error) {
	var doc document[json.RawMessage]
	if err := c.Do(ctx, Request{Path: strings.TrimPrefix(path, apiPrefix), Resource: resource}, &doc); err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// WorkspaceRelated names a workspace relationship that --subresource can
// follow.
type WorkspaceRelated string

const (
	RelatedRun        WorkspaceRelated = "run"
	RelatedState      WorkspaceRelated = "state"
	RelatedConfig     WorkspaceRelated = "config"
	RelatedAssessment WorkspaceRelated = "assessment"
)

// WorkspaceRelatedNames lists the accepted WorkspaceRelated values.
var WorkspaceRelatedNames = []string{string(RelatedRun), string(RelatedState), string(RelatedConfig), string(RelatedAssessment)}

// GetWorkspaceRelated follows one of the workspace's current-* relationship
// links and returns the related resource.
func (c *Client) GetWorkspaceRelated(ctx context.Context, ws *Workspace, rel WorkspaceRelated) (json.RawMessage, error) {
	var r *Relationship
	var name string
	switch rel {
	case RelatedRun:
		r, name = ws.Relationships.CurrentRun, "current-run"
	case RelatedState:
		r, name = ws.Relationships.CurrentStateVersion, "current-state-version"
	case RelatedConfig:
		r, name = ws.Relationships.CurrentConfigurationVersion, "current-configuration-version"
	case RelatedAssessment:
		r, name = ws.Relationships.CurrentAssessmentResult, "current-assessment-result"
	default:
		return nil, &ValidationError{Field: "subresource", Message: fmt.Sprintf("unknown workspace subresource %q", rel)}
	}
	link := r.Related()
	if link == "" {
		return nil, &NotFoundError{Resource: fmt.Sprintf("%s of workspace %s", name, ws.ID)}
	}
	return c.GetRaw(ctx, link, fmt.Sprintf("%s of workspace %s", name, ws.ID))
}

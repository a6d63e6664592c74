package tfe

import (
	"context"
	"net/url"
)

// ListOrganizations returns every organization the token can see.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	return FetchAll[Organization](ctx, c, "organizations", nil, Resource("organizations"))
}

// OrganizationNames lists organization names, or returns []string{org}
// when org is set.
func (c *Client) OrganizationNames(ctx context.Context, org string) ([]string, error) {
	if org != "" {
		return []string{org}, nil
	}
	orgs, err := c.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(orgs))
	for _, o := range orgs {
		names = append(names, o.Name())
	}
	return names, nil
}

// ListProjects returns the projects of one organization.
func (c *Client) ListProjects(ctx context.Context, org string) ([]Project, error) {
	return FetchAll[Project](ctx, c, "organizations/"+url.PathEscape(org)+"/projects", nil,
		Resource("projects of organization "+org))
}

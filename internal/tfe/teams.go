package tfe

import (
	"context"
	"net/url"
)

// Team is an organization team.
type Team struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name       string `json:"name"`
		UsersCount int    `json:"users-count"`
		Visibility string `json:"visibility"`
		SSOTeamID  string `json:"sso-team-id"`
	} `json:"attributes"`
}

// OAuthClient is a VCS connection of an organization.
type OAuthClient struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name            string `json:"name"`
		ServiceProvider string `json:"service-provider"`
		HTTPURL         string `json:"http-url"`
		CreatedAt       string `json:"created-at"`
	} `json:"attributes"`
}

// OrganizationMembership links a user to an organization.
type OrganizationMembership struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Email     string `json:"email"`
		Status    string `json:"status"`
		CreatedAt string `json:"created-at"`
	} `json:"attributes"`
}

// ListTeams returns the teams of one organization.
func (c *Client) ListTeams(ctx context.Context, org string) ([]Team, error) {
	return FetchAll[Team](ctx, c, "organizations/"+url.PathEscape(org)+"/teams", nil,
		Resource("teams of organization "+org))
}

// ListOAuthClients returns the VCS connections of one organization.
func (c *Client) ListOAuthClients(ctx context.Context, org string) ([]OAuthClient, error) {
	return FetchAll[OAuthClient](ctx, c, "organizations/"+url.PathEscape(org)+"/oauth-clients", nil,
		Resource("oauth clients of organization "+org))
}

// ListOrganizationMemberships returns the members of one organization.
// status, when set, is passed as filter[status] (active or invited).
func (c *Client) ListOrganizationMemberships(ctx context.Context, org, status string) ([]OrganizationMembership, error) {
	q := url.Values{}
	if status != "" {
		q.Set("filter[status]", status)
	}
	return FetchAll[OrganizationMembership](ctx, c, "organizations/"+url.PathEscape(org)+"/organization-memberships", q,
		Resource("memberships of organization "+org))
}

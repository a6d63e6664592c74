package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/output"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

func newGetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "List organizations, projects, workspaces, runs and organization resources",
	}
	cmd.AddCommand(
		newGetOrgCommand(a),
		newGetProjectCommand(a),
		newGetWorkspaceCommand(a),
		newGetRunCommand(a),
		newGetTeamCommand(a),
		newGetOAuthClientCommand(a),
		newGetMemberCommand(a),
		newGetTagCommand(a),
	)
	return cmd
}

func newGetOrgCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "org",
		Aliases: []string{"orgs", "organizations"},
		Short:   "List organizations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			orgs, err := c.ListOrganizations(cmd.Context())
			if err != nil {
				return err
			}
			return p.Print(orgs, output.OrganizationsTable(orgs))
		},
	}
}

type sortFlags struct {
	field   string
	reverse bool
}

func (s *sortFlags) register(cmd *cobra.Command, def string, valid []string) {
	cmd.Flags().StringVarP(&s.field, "sort", "s", def, "sort by: "+strings.Join(valid, ", "))
	cmd.Flags().BoolVarP(&s.reverse, "reverse", "r", false, "reverse the sort order")
}

func sortError(err error) error {
	if err == nil {
		return nil
	}
	return &tfe.ValidationError{Field: "sort", Message: err.Error()}
}

func newGetProjectCommand(a *app) *cobra.Command {
	var org string
	var order sortFlags
	cmd := &cobra.Command{
		Use:     "prj",
		Aliases: []string{"project", "projects"},
		Short:   "List projects of one or every organization",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list projects", a.defaultOrg(org), c.ListProjects)
			if err != nil {
				return err
			}
			if err := sortError(output.SortProjects(batch.Items, order.field, order.reverse)); err != nil {
				return err
			}
			if err := p.Print(batch.Items, output.ProjectsTable(batch.Items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization (default: every organization)")
	order.register(cmd, "name", output.ProjectSortFields)
	return cmd
}

func newGetWorkspaceCommand(a *app) *cobra.Command {
	var org, search, subresource string
	var order sortFlags
	cmd := &cobra.Command{
		Use:     "ws [workspace]",
		Aliases: []string{"workspace", "workspaces"},
		Short:   "List workspaces, or show one workspace and its current resources",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			if subresource != "" && len(args) == 0 {
				return &tfe.ValidationError{Field: "subresource", Message: "needs a workspace name or id"}
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				ws, err := c.ResolveWorkspace(cmd.Context(), args[0], a.defaultOrg(org))
				if err != nil {
					return err
				}
				if subresource != "" {
					raw, err := c.GetWorkspaceRelated(cmd.Context(), ws, tfe.WorkspaceRelated(subresource))
					if err != nil {
						return err
					}
					return printResource(p, raw)
				}
				one := []tfe.Tagged[tfe.Workspace]{{Tenant: ws.OrganizationName(), Item: *ws}}
				return p.Print(ws, output.WorkspacesTable(one))
			}

			list := func(ctx context.Context, o string) ([]tfe.Workspace, error) {
				return c.ListWorkspaces(ctx, o, search)
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list workspaces", a.defaultOrg(org), list)
			if err != nil {
				return err
			}
			if err := sortError(output.SortWorkspaces(batch.Items, order.field, order.reverse)); err != nil {
				return err
			}
			if err := p.Print(batch.Items, output.WorkspacesTable(batch.Items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization (default: every organization)")
	cmd.Flags().StringVar(&search, "search", "", "only workspaces whose name contains this")
	cmd.Flags().StringVar(&subresource, "subresource", "", "show a related resource: "+strings.Join(tfe.WorkspaceRelatedNames, ", "))
	order.register(cmd, "name", output.WorkspaceSortFields)
	return cmd
}

func newGetRunCommand(a *app) *cobra.Command {
	var org, subresource string
	var all bool
	var order sortFlags
	cmd := &cobra.Command{
		Use:     "run <workspace|run-id>",
		Aliases: []string{"runs"},
		Short:   "List the runs of a workspace, or show one run",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			isRun := strings.HasPrefix(args[0], runIDPrefix)
			if subresource != "" && !isRun {
				return &tfe.ValidationError{Field: "subresource", Message: "needs a run id (run-...)"}
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			if isRun {
				return showRun(cmd.Context(), c, p, args[0], subresource)
			}

			ws, err := c.ResolveWorkspace(cmd.Context(), args[0], a.defaultOrg(org))
			if err != nil {
				return err
			}
			group := "non_final"
			if all {
				group = ""
			}
			runs, err := c.ListRuns(cmd.Context(), ws.ID, group)
			if err != nil {
				return err
			}
			if err := sortError(output.SortRuns(runs, order.field, order.reverse)); err != nil {
				return err
			}
			return p.Print(runs, output.RunsTable(runs, ws.CurrentRunID()))
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization of the workspace")
	cmd.Flags().BoolVar(&all, "all", false, "include finished runs")
	cmd.Flags().StringVar(&subresource, "subresource", "", "show part of a run: events, plan, apply")
	order.register(cmd, "created-at", output.RunSortFields)
	return cmd
}

const runIDPrefix = "run-"

func showRun(ctx context.Context, c *tfe.Client, p *output.Printer, runID, subresource string) error {
	switch subresource {
	case "":
		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		return p.Print(run, output.RunsTable([]tfe.Run{*run}, ""))
	case "events":
		events, err := c.ListRunEvents(ctx, runID)
		if err != nil {
			return err
		}
		return p.Print(events, output.RunEventsTable(events))
	case string(tfe.PhasePlan), string(tfe.PhaseApply):
		raw, err := c.GetRaw(ctx, "runs/"+runID+"/"+subresource, subresource+" of run "+runID)
		if err != nil {
			return err
		}
		return printResource(p, raw)
	}
	return &tfe.ValidationError{Field: "subresource", Message: fmt.Sprintf("unknown run subresource %q (want events, plan or apply)", subresource)}
}

func printResource(p *output.Printer, raw json.RawMessage) error {
	t, err := output.ResourceTable(raw)
	if err != nil {
		return err
	}
	return p.Print(raw, t)
}

func newGetTeamCommand(a *app) *cobra.Command {
	var org, filter string
	cmd := &cobra.Command{
		Use:     "team",
		Aliases: []string{"teams"},
		Short:   "List the teams of one or every organization",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list teams", a.defaultOrg(org), c.ListTeams)
			if err != nil {
				return err
			}
			items := filterTagged(batch.Items, filter, func(t tfe.Team) string { return t.Attributes.Name })
			if err := p.Print(items, output.TeamsTable(items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization (default: every organization)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only teams whose name contains this")
	return cmd
}

func newGetOAuthClientCommand(a *app) *cobra.Command {
	var org, filter string
	cmd := &cobra.Command{
		Use:     "oc",
		Aliases: []string{"oauth-client", "oauth-clients"},
		Short:   "List the VCS connections of one or every organization",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list oauth clients", a.defaultOrg(org), c.ListOAuthClients)
			if err != nil {
				return err
			}
			items := filterTagged(batch.Items, filter, func(oc tfe.OAuthClient) string {
				return oc.Attributes.Name + " " + oc.Attributes.ServiceProvider
			})
			if err := p.Print(items, output.OAuthClientsTable(items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization (default: every organization)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only clients whose name or provider contains this")
	return cmd
}

func newGetMemberCommand(a *app) *cobra.Command {
	var org, filter, status string
	cmd := &cobra.Command{
		Use:     "org-member",
		Aliases: []string{"org-members", "members"},
		Short:   "List the members of one or every organization",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			switch status {
			case "", "active", "invited":
			default:
				return &tfe.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not active or invited", status)}
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			list := func(ctx context.Context, o string) ([]tfe.OrganizationMembership, error) {
				return c.ListOrganizationMemberships(ctx, o, status)
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list organization members", a.defaultOrg(org), list)
			if err != nil {
				return err
			}
			items := filterTagged(batch.Items, filter, func(m tfe.OrganizationMembership) string { return m.Attributes.Email })
			if err := p.Print(items, output.MembershipsTable(items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization (default: every organization)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only members whose email contains this")
	cmd.Flags().StringVar(&status, "status", "", "only members with this status: active, invited")
	return cmd
}

func newGetTagCommand(a *app) *cobra.Command {
	var org, filter string
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "List organization tags, or the tags of a workspace or project",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			list := func(ctx context.Context, o string) ([]tfe.OrganizationTag, error) {
				return c.ListOrganizationTags(ctx, o, filter)
			}
			batch, err := fetchAcrossOrgs(cmd.Context(), c, "list tags", a.defaultOrg(org), list)
			if err != nil {
				return err
			}
			if err := p.Print(batch.Items, output.OrganizationTagsTable(batch.Items)); err != nil {
				return err
			}
			return batch.Err()
		},
	}
	cmd.PersistentFlags().StringVar(&org, "org", "", "organization (default: every organization)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only tags whose name contains this")

	wsCmd := &cobra.Command{
		Use:     "ws <workspace>",
		Aliases: []string{"workspace"},
		Short:   "List the tags of a workspace",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			ws, err := c.ResolveWorkspace(cmd.Context(), args[0], a.defaultOrg(org))
			if err != nil {
				return err
			}
			tags, err := c.ListWorkspaceTags(cmd.Context(), ws.ID)
			if err != nil {
				return err
			}
			return p.Print(tags, output.TagBindingsTable(tags))
		},
	}
	prjCmd := &cobra.Command{
		Use:     "prj <project-id>",
		Aliases: []string{"project"},
		Short:   "List the tags of a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			c, err := a.apiClient(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := c.ListProjectTags(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return p.Print(tags, output.TagBindingsTable(tags))
		},
	}
	cmd.AddCommand(wsCmd, prjCmd)
	return cmd
}

// filterTagged keeps items whose key contains filter, ignoring case.
func filterTagged[T any](items []tfe.Tagged[T], filter string, key func(T) string) []tfe.Tagged[T] {
	if filter == "" {
		return items
	}
	needle := strings.ToLower(filter)
	out := make([]tfe.Tagged[T], 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(key(it.Item)), needle) {
			out = append(out, it)
		}
	}
	return out
}

// fetchAcrossOrgs lists per organization. With an explicit org any failure
// is returned as is. Otherwise every visible organization is scanned and
// the caller reports the batch's partial failures as warnings.
func fetchAcrossOrgs[T any](ctx context.Context, c *tfe.Client, operation, org string, fetch func(context.Context, string) ([]T, error)) (*tfe.Batch[T], error) {
	if org != "" {
		items, err := fetch(ctx, org)
		if err != nil {
			return nil, err
		}
		batch := &tfe.Batch[T]{Operation: operation, Items: []tfe.Tagged[T]{}, Succeeded: []string{org}, Errors: map[string]error{}}
		for _, it := range items {
			batch.Items = append(batch.Items, tfe.Tagged[T]{Tenant: org, Item: it})
		}
		return batch, nil
	}

	orgs, err := c.OrganizationNames(ctx, "")
	if err != nil {
		return nil, err
	}
	batch := tfe.FetchFromMany(ctx, operation, orgs, c.Parallelism(), fetch)
	if len(batch.Succeeded) == 0 && len(batch.Errors) > 0 {
		return nil, fmt.Errorf("%s failed in every organization: %v", operation, batch.Err())
	}
	return batch, nil
}

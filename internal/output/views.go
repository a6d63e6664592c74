package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mattjoyce/hcpctl/internal/journal"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

func OrganizationsTable(orgs []tfe.Organization) Table {
	t := Table{Headers: []string{"NAME", "EMAIL", "CREATED"}}
	for _, o := range orgs {
		t.Rows = append(t.Rows, []string{o.Name(), o.Attributes.Email, shortTime(o.Attributes.CreatedAt)})
	}
	return t
}

func ProjectsTable(projects []tfe.Tagged[tfe.Project]) Table {
	t := Table{Headers: []string{"ORG", "ID", "NAME", "DESCRIPTION"}}
	for _, p := range projects {
		t.Rows = append(t.Rows, []string{p.Tenant, p.Item.ID, p.Item.Attributes.Name, p.Item.Attributes.Description})
	}
	return t
}

func WorkspacesTable(workspaces []tfe.Tagged[tfe.Workspace]) Table {
	t := Table{Headers: []string{"ORG", "ID", "NAME", "RESOURCES", "LOCKED", "CURRENT RUN", "UPDATED"}}
	for _, tw := range workspaces {
		ws := tw.Item
		t.Rows = append(t.Rows, []string{
			tw.Tenant,
			ws.ID,
			ws.Attributes.Name,
			strconv.Itoa(ws.Attributes.ResourceCount),
			strconv.FormatBool(ws.Attributes.Locked),
			dash(ws.CurrentRunID()),
			shortTime(ws.Attributes.UpdatedAt),
		})
	}
	return t
}

func RunsTable(runs []tfe.Run, currentID string) Table {
	t := Table{Headers: []string{"ID", "STATUS", "SOURCE", "CREATED", "MESSAGE"}}
	for _, r := range runs {
		id := r.ID
		if id == currentID {
			id += " *"
		}
		t.Rows = append(t.Rows, []string{id, string(r.Status()), dash(r.Attributes.Source), shortTime(r.Attributes.CreatedAt), truncate(r.Attributes.Message, 48)})
	}
	return t
}

func TeamsTable(teams []tfe.Tagged[tfe.Team]) Table {
	t := Table{Headers: []string{"ORG", "ID", "NAME", "USERS", "VISIBILITY", "SSO TEAM ID"}}
	for _, tt := range teams {
		a := tt.Item.Attributes
		t.Rows = append(t.Rows, []string{tt.Tenant, tt.Item.ID, a.Name, strconv.Itoa(a.UsersCount), dash(a.Visibility), dash(a.SSOTeamID)})
	}
	return t
}

func OAuthClientsTable(clients []tfe.Tagged[tfe.OAuthClient]) Table {
	t := Table{Headers: []string{"ORG", "ID", "NAME", "PROVIDER", "URL", "CREATED"}}
	for _, tc := range clients {
		a := tc.Item.Attributes
		t.Rows = append(t.Rows, []string{tc.Tenant, tc.Item.ID, dash(a.Name), a.ServiceProvider, dash(a.HTTPURL), shortTime(a.CreatedAt)})
	}
	return t
}

func MembershipsTable(members []tfe.Tagged[tfe.OrganizationMembership]) Table {
	t := Table{Headers: []string{"ORG", "ID", "EMAIL", "STATUS", "CREATED"}}
	for _, tm := range members {
		a := tm.Item.Attributes
		t.Rows = append(t.Rows, []string{tm.Tenant, tm.Item.ID, a.Email, a.Status, shortTime(a.CreatedAt)})
	}
	return t
}

func OrganizationTagsTable(tags []tfe.Tagged[tfe.OrganizationTag]) Table {
	t := Table{Headers: []string{"ORG", "ID", "NAME", "INSTANCES", "CREATED"}}
	for _, tt := range tags {
		a := tt.Item.Attributes
		t.Rows = append(t.Rows, []string{tt.Tenant, tt.Item.ID, a.Name, strconv.Itoa(a.InstanceCount), shortTime(a.CreatedAt)})
	}
	return t
}

func TagBindingsTable(bindings []tfe.TagBinding) Table {
	t := Table{Headers: []string{"KEY", "VALUE"}}
	for _, b := range bindings {
		t.Rows = append(t.Rows, []string{b.Attributes.Key, dash(b.Attributes.Value)})
	}
	return t
}

func RunEventsTable(events []tfe.RunEvent) Table {
	t := Table{Headers: []string{"ID", "ACTION", "CREATED", "DESCRIPTION"}}
	for _, e := range events {
		a := e.Attributes
		t.Rows = append(t.Rows, []string{e.ID, a.Action, shortTime(a.CreatedAt), truncate(dash(a.Description), 60)})
	}
	return t
}

// ResourceTable shows the id, type and attributes of one raw JSON:API
// resource. Non-string values are rendered as JSON, null as "-".
func ResourceTable(raw json.RawMessage) (Table, error) {
	var res struct {
		ID         string                     `json:"id"`
		Type       string                     `json:"type"`
		Attributes map[string]json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return Table{}, fmt.Errorf("decode resource: %w", err)
	}
	t := Table{Headers: []string{"FIELD", "VALUE"}}
	t.Rows = append(t.Rows, []string{"id", res.ID}, []string{"type", res.Type})
	keys := make([]string, 0, len(res.Attributes))
	for k := range res.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Rows = append(t.Rows, []string{k, attributeText(res.Attributes[k])})
	}
	return t, nil
}

func attributeText(v json.RawMessage) string {
	var s string
	if json.Unmarshal(v, &s) == nil {
		return dash(s)
	}
	return truncate(string(v), 80)
}

func JournalTable(entries []journal.Entry) Table {
	t := Table{Headers: []string{"ID", "KIND", "WORKSPACE", "STARTED", "OUTCOME", "UNLOCKED"}}
	for _, e := range entries {
		unlocked := "-"
		if e.Kind == journal.KindStatePurge {
			unlocked = strconv.FormatBool(e.LockReleased)
		}
		t.Rows = append(t.Rows, []string{
			e.ID[:min(8, len(e.ID))],
			string(e.Kind),
			e.WorkspaceID,
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Outcome,
			unlocked,
		})
	}
	return t
}

func shortTime(s string) string {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return dash(s)
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

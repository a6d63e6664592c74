package tfe

import (
	"encoding/json"
	"time"
)

// RelationshipData is the resource identifier inside a relationship.
type RelationshipData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// RelationshipLinks carries the URL of the related resource.
type RelationshipLinks struct {
	Related string `json:"related,omitempty"`
}

// Relationship is a to-one JSON:API relationship.
type Relationship struct {
	Data  *RelationshipData  `json:"data"`
	Links *RelationshipLinks `json:"links,omitempty"`
}

// Related returns the related resource link, or "".
func (r *Relationship) Related() string {
	if r == nil || r.Links == nil {
		return ""
	}
	return r.Links.Related
}

// ID returns the related id, or "" when the relationship is empty.
func (r *Relationship) ID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.ID
}

type document[T any] struct {
	Data T `json:"data"`
}

// Organization is a tenant.
type Organization struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		CreatedAt string `json:"created-at"`
	} `json:"attributes"`
}

// Name returns the organization name, which doubles as its API key.
func (o Organization) Name() string {
	if o.Attributes.Name != "" {
		return o.Attributes.Name
	}
	return o.ID
}

// Project groups workspaces inside an organization.
type Project struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"attributes"`
}

// WorkspaceAttributes are the fields hcpctl reads from a workspace.
type WorkspaceAttributes struct {
	Name             string `json:"name"`
	Locked           bool   `json:"locked"`
	ResourceCount    int    `json:"resource-count"`
	ExecutionMode    string `json:"execution-mode"`
	TerraformVersion string `json:"terraform-version"`
	UpdatedAt        string `json:"updated-at"`
}

// WorkspaceRelationships are the workspace links hcpctl follows.
type WorkspaceRelationships struct {
	Organization *Relationship `json:"organization,omitempty"`
	Project      *Relationship `json:"project,omitempty"`
	CurrentRun   *Relationship `json:"current-run,omitempty"`

	CurrentStateVersion         *Relationship `json:"current-state-version,omitempty"`
	CurrentConfigurationVersion *Relationship `json:"current-configuration-version,omitempty"`
	CurrentAssessmentResult     *Relationship `json:"current-assessment-result,omitempty"`
}

// Workspace is a snapshot of one workspace.
type Workspace struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Attributes    WorkspaceAttributes    `json:"attributes"`
	Relationships WorkspaceRelationships `json:"relationships"`
}

// CurrentRunID returns the id of the workspace's current run, if any.
func (w Workspace) CurrentRunID() string {
	return w.Relationships.CurrentRun.ID()
}

// OrganizationName returns the owning organization.
func (w Workspace) OrganizationName() string {
	return w.Relationships.Organization.ID()
}

// ProjectID returns the owning project.
func (w Workspace) ProjectID() string {
	return w.Relationships.Project.ID()
}

// RunStatus is the remote run status string.
type RunStatus string

// StatusFamily groups run statuses by the action that clears them.
type StatusFamily string

const (
	FamilyActive  StatusFamily = "active"
	FamilyQueued  StatusFamily = "queued"
	FamilyFinal   StatusFamily = "final"
	FamilyUnknown StatusFamily = "unknown"
)

var statusFamilies = map[RunStatus]StatusFamily{
	"fetching":             FamilyActive,
	"fetching_completed":   FamilyActive,
	"pre_plan_running":     FamilyActive,
	"pre_plan_completed":   FamilyActive,
	"queuing":              FamilyActive,
	"plan_queued":          FamilyActive,
	"planning":             FamilyActive,
	"cost_estimating":      FamilyActive,
	"policy_checking":      FamilyActive,
	"post_plan_running":    FamilyActive,
	"confirmed":            FamilyActive,
	"apply_queued":         FamilyActive,
	"applying":             FamilyActive,
	"pending":              FamilyQueued,
	"planned":              FamilyQueued,
	"cost_estimated":       FamilyQueued,
	"policy_checked":       FamilyQueued,
	"policy_override":      FamilyQueued,
	"policy_soft_failed":   FamilyQueued,
	"post_plan_completed":  FamilyQueued,
	"applied":              FamilyFinal,
	"discarded":            FamilyFinal,
	"errored":              FamilyFinal,
	"canceled":             FamilyFinal,
	"force_canceled":       FamilyFinal,
	"planned_and_finished": FamilyFinal,
	"planned_and_saved":    FamilyFinal,
}

// Family reports which group the status belongs to.
func (s RunStatus) Family() StatusFamily {
	if f, ok := statusFamilies[s]; ok {
		return f
	}
	return FamilyUnknown
}

// RunActions are the action flags the API reports for a run.
type RunActions struct {
	IsCancelable      bool `json:"is-cancelable"`
	IsConfirmable     bool `json:"is-confirmable"`
	IsDiscardable     bool `json:"is-discardable"`
	IsForceCancelable bool `json:"is-force-cancelable"`
}

// RunAttributes are the fields hcpctl reads from a run.
type RunAttributes struct {
	Status    RunStatus  `json:"status"`
	Message   string     `json:"message"`
	Source    string     `json:"source"`
	CreatedAt string     `json:"created-at"`
	IsDestroy bool       `json:"is-destroy"`
	Actions   RunActions `json:"actions"`
}

// RunRelationships link a run to its workspace and phases.
type RunRelationships struct {
	Workspace *Relationship `json:"workspace,omitempty"`
	Plan      *Relationship `json:"plan,omitempty"`
	Apply     *Relationship `json:"apply,omitempty"`
}

// Run is a snapshot of one run.
type Run struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Attributes    RunAttributes    `json:"attributes"`
	Relationships RunRelationships `json:"relationships"`
}

// Status is shorthand for Attributes.Status.
func (r Run) Status() RunStatus { return r.Attributes.Status }

// WorkspaceID returns the owning workspace.
func (r Run) WorkspaceID() string { return r.Relationships.Workspace.ID() }

// CreatedAt parses created-at. Unparseable values sort as the zero time.
func (r Run) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, r.Attributes.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Phase selects the plan or apply half of a run.
type Phase string

const (
	PhasePlan  Phase = "plan"
	PhaseApply Phase = "apply"
)

// PhaseStatus is the status of a plan or apply.
type PhaseStatus string

// Final reports whether the phase will produce no more log output.
func (s PhaseStatus) Final() bool {
	switch s {
	case "finished", "errored", "canceled", "unreachable":
		return true
	}
	return false
}

// RunPhase is a plan or apply record.
type RunPhase struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Status     PhaseStatus `json:"status"`
		LogReadURL string      `json:"log-read-url"`
	} `json:"attributes"`
}

// StateVersion is a workspace state snapshot record.
type StateVersion struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Serial                 int    `json:"serial"`
		Lineage                string `json:"lineage"`
		TerraformVersion       string `json:"terraform-version"`
		HostedStateDownloadURL string `json:"hosted-state-download-url"`
		ResourcesProcessed     bool   `json:"resources-processed"`
		CreatedAt              string `json:"created-at"`
	} `json:"attributes"`
}

// StateFile is the Terraform state document. Fields hcpctl does not
// interpret are kept as raw JSON.
type StateFile struct {
	Version          int               `json:"version"`
	TerraformVersion string            `json:"terraform_version"`
	Serial           int               `json:"serial"`
	Lineage          string            `json:"lineage"`
	Outputs          json.RawMessage   `json:"outputs"`
	Resources        []json.RawMessage `json:"resources"`
	CheckResults     json.RawMessage   `json:"check_results,omitempty"`
}

// StateVersionUpload is the attribute set for creating a state version.
type StateVersionUpload struct {
	Serial  int    `json:"serial"`
	MD5     string `json:"md5"`
	Lineage string `json:"lineage"`
	State   string `json:"state"`
}

type stateVersionCreate struct {
	Data struct {
		Type       string             `json:"type"`
		Attributes StateVersionUpload `json:"attributes"`
	} `json:"data"`
}

package output

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// Sort fields accepted by --sort, per resource.
var (
	WorkspaceSortFields = []string{"name", "resources", "updated-at", "tf-version"}
	ProjectSortFields   = []string{"name", "id"}
	RunSortFields       = []string{"created-at", "status", "ws-id"}
)

// SortWorkspaces orders workspaces by field, ascending unless reverse.
// Ties keep their organization and name order.
func SortWorkspaces(items []tfe.Tagged[tfe.Workspace], field string, reverse bool) error {
	var less func(a, b tfe.Workspace) int
	switch field {
	case "", "name":
		less = func(a, b tfe.Workspace) int { return strings.Compare(a.Attributes.Name, b.Attributes.Name) }
	case "resources":
		less = func(a, b tfe.Workspace) int { return a.Attributes.ResourceCount - b.Attributes.ResourceCount }
	case "updated-at":
		less = func(a, b tfe.Workspace) int { return strings.Compare(a.Attributes.UpdatedAt, b.Attributes.UpdatedAt) }
	case "tf-version":
		less = func(a, b tfe.Workspace) int {
			return compareVersions(a.Attributes.TerraformVersion, b.Attributes.TerraformVersion)
		}
	default:
		return unknownSortField(field, WorkspaceSortFields)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return ordered(less(items[i].Item, items[j].Item), items[i].Tenant, items[j].Tenant, reverse)
	})
	return nil
}

// SortProjects orders projects by field, ascending unless reverse.
func SortProjects(items []tfe.Tagged[tfe.Project], field string, reverse bool) error {
	var less func(a, b tfe.Project) int
	switch field {
	case "", "name":
		less = func(a, b tfe.Project) int { return strings.Compare(a.Attributes.Name, b.Attributes.Name) }
	case "id":
		less = func(a, b tfe.Project) int { return strings.Compare(a.ID, b.ID) }
	default:
		return unknownSortField(field, ProjectSortFields)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return ordered(less(items[i].Item, items[j].Item), items[i].Tenant, items[j].Tenant, reverse)
	})
	return nil
}

// SortRuns orders runs by field. created-at sorts newest first; reverse
// flips whichever order the field has.
func SortRuns(runs []tfe.Run, field string, reverse bool) error {
	var less func(a, b tfe.Run) int
	switch field {
	case "", "created-at":
		less = func(a, b tfe.Run) int { return b.CreatedAt().Compare(a.CreatedAt()) }
	case "status":
		less = func(a, b tfe.Run) int { return strings.Compare(string(a.Status()), string(b.Status())) }
	case "ws-id":
		less = func(a, b tfe.Run) int { return strings.Compare(a.WorkspaceID(), b.WorkspaceID()) }
	default:
		return unknownSortField(field, RunSortFields)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return ordered(less(runs[i], runs[j]), "", "", reverse)
	})
	return nil
}

func ordered(c int, tenantA, tenantB string, reverse bool) bool {
	if c == 0 {
		c = strings.Compare(tenantA, tenantB)
	}
	if reverse {
		return c > 0
	}
	return c < 0
}

// compareVersions compares Terraform versions numerically. Versions that
// do not parse sort before any that do.
func compareVersions(a, b string) int {
	va, vb := "v"+strings.TrimPrefix(a, "v"), "v"+strings.TrimPrefix(b, "v")
	okA, okB := semver.IsValid(va), semver.IsValid(vb)
	switch {
	case okA && okB:
		return semver.Compare(va, vb)
	case okA:
		return 1
	case okB:
		return -1
	}
	return strings.Compare(a, b)
}

func unknownSortField(field string, valid []string) error {
	return fmt.Errorf("unknown sort field %q (want %s)", field, strings.Join(valid, ", "))
}

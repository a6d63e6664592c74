package main

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hcpctl/internal/tfe"
	"github.com/mattjoyce/hcpctl/internal/tfe/tfetest"
)

func TestGetWorkspacesSortedCSV(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-1", "alpha", 2)
	srv.AddWorkspace("acme", "ws-2", "bravo", 9)
	srv.AddWorkspace("acme", "ws-3", "charlie", 5)

	code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, "get", "ws", "--org", "acme", "-o", "csv", "-s", "resources", "-r")...)
	require.Equal(t, exitOK, code, stderr)

	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "ORG", records[0][0])
	var ids []string
	for _, r := range records[1:] {
		ids = append(ids, r[1])
	}
	assert.Equal(t, []string{"ws-2", "ws-3", "ws-1"}, ids)
}

func TestGetWorkspacesUnknownSortField(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")

	code, _, stderr := runCLI(t, "", apiArgs(t, srv, "get", "ws", "--org", "acme", "--sort", "colour")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown sort field")
}

func TestGetWorkspaceSubresource(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-1", "net", 1)
	srv.SetState("ws-1", tfe.StateFile{Version: 4, Serial: 12, Lineage: "lin-1"})

	code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, "get", "ws", "net", "--org", "acme", "--subresource", "state", "-o", "json")...)
	require.Equal(t, exitOK, code, stderr)
	var sv tfe.StateVersion
	require.NoError(t, json.Unmarshal([]byte(stdout), &sv))
	assert.Equal(t, 12, sv.Attributes.Serial)

	code, stdout, stderr = runCLI(t, "", apiArgs(t, srv, "get", "ws", "ws-1", "--subresource", "state")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "lin-1")

	code, _, stderr = runCLI(t, "", apiArgs(t, srv, "get", "ws", "--subresource", "state")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "needs a workspace")
}

func TestGetRunSubresources(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-1", "net", 1)
	srv.AddRun("ws-1", "run-1", "planned", time.Now(), true)
	srv.AddRunEvent("run-1", "re-1", "queued")
	srv.AddRunEvent("run-1", "re-2", "planned")
	srv.SetPhase("run-1", tfe.PhasePlan, "finished", "Plan: 1 to add")

	code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, "get", "run", "run-1", "--subresource", "events")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "re-1")
	assert.Contains(t, stdout, "planned")

	code, stdout, stderr = runCLI(t, "", apiArgs(t, srv, "get", "run", "run-1", "--subresource", "plan", "-o", "json")...)
	require.Equal(t, exitOK, code, stderr)
	var phase tfe.RunPhase
	require.NoError(t, json.Unmarshal([]byte(stdout), &phase))
	assert.Equal(t, tfe.PhaseStatus("finished"), phase.Attributes.Status)

	code, stdout, stderr = runCLI(t, "", apiArgs(t, srv, "get", "run", "run-1")...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "planned")

	code, _, stderr = runCLI(t, "", apiArgs(t, srv, "get", "run", "net", "--subresource", "events")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "needs a run id")
}

func TestGetTeamsAcrossOrganizations(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme", "beta", "corp")
	srv.AddTeam("acme", "team-a", "owners", 2)
	srv.AddTeam("corp", "team-c", "platform", 7)
	srv.AddTeam("corp", "team-d", "readers", 1)
	srv.Fail(http.MethodGet, "/api/v2/organizations/beta/teams", http.StatusInternalServerError)

	code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, "get", "team", "-f", "PLAT")...)
	assert.Equal(t, exitPartial, code)
	assert.Contains(t, stdout, "team-c")
	assert.NotContains(t, stdout, "team-a")
	assert.NotContains(t, stdout, "team-d")
	assert.Contains(t, stderr, "list teams: 1 of 3 failed")
}

func TestGetOrganizationResources(t *testing.T) {
	isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddOAuthClient("acme", "oc-1", "main", "gitlab_hosted")
	srv.AddMember("acme", "ou-1", "ann@example.com", "active")
	srv.AddMember("acme", "ou-2", "bob@example.com", "invited")
	srv.AddTag("acme", "tag-1", "env", 3)
	srv.AddWorkspace("acme", "ws-1", "net", 0)
	srv.AddTagBinding("ws-1", "owner", "netops")

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"oauth clients", []string{"get", "oc", "--org", "acme"}, []string{"oc-1", "gitlab_hosted"}, nil},
		{"invited members", []string{"get", "org-member", "--org", "acme", "--status", "invited"}, []string{"bob@example.com"}, []string{"ann@example.com"}},
		{"member filter", []string{"get", "org-member", "--org", "acme", "-f", "ANN"}, []string{"ann@example.com"}, []string{"bob@example.com"}},
		{"org tags", []string{"get", "tag", "--org", "acme"}, []string{"tag-1", "env"}, nil},
		{"workspace tags", []string{"get", "tag", "ws", "net", "--org", "acme"}, []string{"owner", "netops"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, tt.args...)...)
			require.Equal(t, exitOK, code, stderr)
			for _, w := range tt.want {
				assert.Contains(t, stdout, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, stdout, w)
			}
		})
	}

	code, _, stderr := runCLI(t, "", apiArgs(t, srv, "get", "org-member", "--org", "acme", "--status", "gone")...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "invalid status")
}

func TestDownloadConfig(t *testing.T) {
	dir := isolate(t)
	srv := tfetest.New(t)
	srv.AddOrganization("acme")
	srv.AddWorkspace("acme", "ws-1", "net", 0)
	srv.AddConfigurationVersion("ws-1", "cv-1", "uploaded", []byte("tarball-1"), false)
	srv.AddConfigurationVersion("ws-1", "cv-2", "pending", nil, false)

	dest := filepath.Join(dir, "net.tar.gz")
	code, stdout, stderr := runCLI(t, "", apiArgs(t, srv, "download", "config", "net", "--org", "acme", "--file", dest)...)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "cv-1")
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "tarball-1", string(got))

	code, _, stderr = runCLI(t, "", apiArgs(t, srv, "download", "config", "ws-1", "--cv", "cv-2", "--file", dest)...)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "not uploaded")
}

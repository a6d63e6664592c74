package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/hcpctl/internal/journal"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"TABLE", FormatTable, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"CSV", FormatCSV, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleWorkspaces() []tfe.Tagged[tfe.Workspace] {
	ws := tfe.Workspace{ID: "ws-1", Type: "workspaces"}
	ws.Attributes.Name = "net"
	ws.Attributes.ResourceCount = 4
	ws.Attributes.UpdatedAt = "2026-04-01T10:00:00Z"
	return []tfe.Tagged[tfe.Workspace]{{Tenant: "acme", Item: ws}}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatTable}
	ws := sampleWorkspaces()
	require.NoError(t, p.Print(ws, WorkspacesTable(ws)))

	out := buf.String()
	for _, want := range []string{"ORG", "RESOURCES", "acme", "ws-1", "net", "4", "false"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatTable}
	require.NoError(t, p.Print([]tfe.Run{}, RunsTable(nil, "")))
	assert.Equal(t, "No resources found.\n", buf.String())
}

func TestPrintCSV(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatCSV}
	tbl := Table{Headers: []string{"ID", "MESSAGE"}, Rows: [][]string{{"run-1", "fix, then \"ship\""}}}
	require.NoError(t, p.Print(nil, tbl))

	r := csv.NewReader(&buf)
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "MESSAGE"}, {"run-1", `fix, then "ship"`}}, records)
}

func TestPrintCSVEmptyKeepsHeader(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatCSV}
	require.NoError(t, p.Print([]tfe.Run{}, RunsTable(nil, "")))
	assert.Equal(t, "ID,STATUS,SOURCE,CREATED,MESSAGE\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatJSON}
	require.NoError(t, p.Print(sampleWorkspaces(), Table{}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	item := decoded[0]["item"].(map[string]any)
	assert.Equal(t, "ws-1", item["id"])
}

func TestPrintYAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Format: FormatYAML}
	ws := sampleWorkspaces()[0].Item
	require.NoError(t, p.Print(ws, Table{}))

	assert.Contains(t, buf.String(), "resource-count: 4")
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ws-1", decoded["id"])
}

func TestRunsTableMarksCurrentRun(t *testing.T) {
	a := tfe.Run{ID: "run-a"}
	a.Attributes.Status = "applied"
	a.Attributes.Message = strings.Repeat("x", 60)
	b := tfe.Run{ID: "run-b"}
	b.Attributes.Status = "planning"

	tbl := RunsTable([]tfe.Run{a, b}, "run-b")
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "run-b *", tbl.Rows[1][0])
	assert.Equal(t, "-", tbl.Rows[1][2])
	assert.Len(t, []rune(tbl.Rows[0][4]), 48)
}

func TestJournalTable(t *testing.T) {
	tbl := JournalTable([]journal.Entry{
		{ID: "0123456789abcdef", Kind: journal.KindStatePurge, WorkspaceID: "ws-1", StartedAt: time.Now(), Outcome: "lock_held"},
		{ID: "abc", Kind: journal.KindRunPurge, WorkspaceID: "ws-2", StartedAt: time.Now(), Outcome: "done"},
	})
	assert.Equal(t, "01234567", tbl.Rows[0][0])
	assert.Equal(t, "false", tbl.Rows[0][5])
	assert.Equal(t, "abc", tbl.Rows[1][0])
	assert.Equal(t, "-", tbl.Rows[1][5])
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, "%d of %d organizations failed", 1, 3)
	assert.Contains(t, buf.String(), "warning: 1 of 3 organizations failed")
}

func TestResourceTable(t *testing.T) {
	raw := json.RawMessage(`{"id":"sv-1","type":"state-versions","attributes":{"serial":7,"lineage":"abc","resources":null,"modules":{"root":1}}}`)
	tbl, err := ResourceTable(raw)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "sv-1"},
		{"type", "state-versions"},
		{"lineage", "abc"},
		{"modules", `{"root":1}`},
		{"resources", "-"},
		{"serial", "7"},
	}, tbl.Rows)

	_, err = ResourceTable(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

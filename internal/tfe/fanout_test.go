package tfe_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hcpctl/internal/tfe"
	"github.com/mattjoyce/hcpctl/internal/tfe/tfetest"
)

func TestFetchFromMany(t *testing.T) {
	errB := errors.New("b exploded")
	fetch := func(results map[string][]int, failures map[string]error) func(context.Context, string) ([]int, error) {
		return func(_ context.Context, tenant string) ([]int, error) {
			if err := failures[tenant]; err != nil {
				return nil, err
			}
			return results[tenant], nil
		}
	}

	tests := []struct {
		name          string
		tenants       []string
		results       map[string][]int
		failures      map[string]error
		wantItems     map[string][]int
		wantFailed    []string
		wantSucceeded []string
	}{
		{
			name:          "one tenant fails",
			tenants:       []string{"A", "B"},
			results:       map[string][]int{"A": {1, 2, 3}},
			failures:      map[string]error{"B": errB},
			wantItems:     map[string][]int{"A": {1, 2, 3}},
			wantFailed:    []string{"B"},
			wantSucceeded: []string{"A"},
		},
		{
			name:          "all succeed",
			tenants:       []string{"A", "B", "C"},
			results:       map[string][]int{"A": {1}, "B": {2, 3}, "C": nil},
			wantItems:     map[string][]int{"A": {1}, "B": {2, 3}},
			wantSucceeded: []string{"A", "B", "C"},
		},
		{
			name:       "all fail",
			tenants:    []string{"A", "B"},
			failures:   map[string]error{"A": errB, "B": errB},
			wantItems:  map[string][]int{},
			wantFailed: []string{"A", "B"},
		},
		{
			name:          "duplicate tenants run once",
			tenants:       []string{"A", "A"},
			results:       map[string][]int{"A": {7}},
			wantItems:     map[string][]int{"A": {7}},
			wantSucceeded: []string{"A"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := tfe.FetchFromMany(context.Background(), "list", tt.tenants, 2, fetch(tt.results, tt.failures))

			got := map[string][]int{}
			for _, it := range batch.Items {
				got[it.Tenant] = append(got[it.Tenant], it.Item)
			}
			assert.Equal(t, tt.wantItems, got)

			failed := make([]string, 0, len(batch.Errors))
			for k := range batch.Errors {
				failed = append(failed, k)
			}
			sort.Strings(failed)
			sort.Strings(batch.Succeeded)
			if tt.wantFailed == nil {
				assert.Empty(t, failed)
				assert.NoError(t, batch.Err())
			} else {
				assert.Equal(t, tt.wantFailed, failed)
				var pbe *tfe.PartialBatchError
				require.True(t, errors.As(batch.Err(), &pbe))
				assert.Equal(t, tt.wantFailed, pbe.FailedKeys())
				assert.ErrorIs(t, batch.Err(), errB)
			}
			if tt.wantSucceeded == nil {
				assert.Empty(t, batch.Succeeded)
			} else {
				assert.Equal(t, tt.wantSucceeded, batch.Succeeded)
			}
		})
	}
}

func TestFetchFromManyKeepsTenantItemsContiguous(t *testing.T) {
	tenants := []string{"A", "B", "C", "D"}
	batch := tfe.FetchFromMany(context.Background(), "list", tenants, 4, func(_ context.Context, tenant string) ([]string, error) {
		return []string{tenant + "1", tenant + "2", tenant + "3"}, nil
	})
	require.Len(t, batch.Items, 12)
	for i := 0; i < len(batch.Items); i += 3 {
		tenant := batch.Items[i].Tenant
		for j := 0; j < 3; j++ {
			assert.Equal(t, tenant, batch.Items[i+j].Tenant)
			assert.Equal(t, fmt.Sprintf("%s%d", tenant, j+1), batch.Items[i+j].Item)
		}
	}
}

func TestFetchFromManyBoundsParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32
	tenants := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	tfe.FetchFromMany(context.Background(), "list", tenants, 3, func(_ context.Context, _ string) ([]int, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		return nil, nil
	})
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetchFromManyAcrossOrganizations(t *testing.T) {
	srv := tfetest.New(t)
	srv.AddOrganization("A", "B", "C")
	srv.AddWorkspace("A", "ws-a1", "net", 1)
	srv.AddWorkspace("A", "ws-a2", "dns", 1)
	srv.AddWorkspace("B", "ws-b1", "net", 1)
	srv.AddWorkspace("C", "ws-c1", "app", 1)
	srv.Fail(http.MethodGet, "/api/v2/organizations/B/workspaces", http.StatusInternalServerError)
	c := srv.Client(t)
	ctx := context.Background()

	orgs, err := c.OrganizationNames(ctx, "")
	require.NoError(t, err)
	batch := tfe.FetchFromMany(ctx, "list workspaces", orgs, c.Parallelism(), func(ctx context.Context, org string) ([]tfe.Workspace, error) {
		return c.ListWorkspaces(ctx, org, "")
	})

	ids := make([]string, 0, len(batch.Items))
	for _, ws := range batch.Values() {
		ids = append(ids, ws.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"ws-a1", "ws-a2", "ws-c1"}, ids)
	require.Contains(t, batch.Errors, "B")
	assert.Len(t, batch.Errors, 1)

	var se *tfe.ServerError
	assert.True(t, errors.As(batch.Errors["B"], &se))
	assert.Contains(t, batch.Err().Error(), "B:")
}

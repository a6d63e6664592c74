// Package tfetest provides an in-memory fake of the HCP Terraform API for
// tests. It implements just enough of the v2 endpoints for hcpctl, keeps
// per-route call counts, and can be told to fail upcoming requests.
package tfetest

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// Token is the bearer token the fake accepts.
const Token = "test-token"

type phaseLog struct {
	Status tfe.PhaseStatus
	Log    string
}

type stateEntry struct {
	Version tfe.StateVersion
	Body    []byte
}

// Upload is a state version received by the fake.
type Upload struct {
	WorkspaceID string
	Attributes  tfe.StateVersionUpload
	State       tfe.StateFile
}

// Action is a run or workspace mutation received by the fake, in arrival
// order.
type Action struct {
	Target string
	Name   string
}

type injected struct {
	status     int
	retryAfter string
}

// Server is a fake TFE API.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	orgs        []string
	projects    map[string][]tfe.Project
	workspaces  map[string]*tfe.Workspace
	runs        map[string]*tfe.Run
	phases      map[string]map[tfe.Phase]*phaseLog
	states      map[string]*stateEntry
	locked      map[string]bool
	uploads     []Upload
	actions     []Action
	counts      map[string]int
	failures    map[string][]injected
	stalls      map[string][]time.Duration
	lastHeaders map[string]http.Header
	pageMeta    map[string]*tfe.Pagination

	orgLists  map[string]map[string][]any
	bindings  map[string][]tfe.TagBinding
	flatTags  map[string][]string
	configs   map[string][]*configEntry
	runEvents map[string][]tfe.RunEvent
}

type configEntry struct {
	Version tfe.ConfigurationVersion
	Archive []byte
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		projects:    map[string][]tfe.Project{},
		workspaces:  map[string]*tfe.Workspace{},
		runs:        map[string]*tfe.Run{},
		phases:      map[string]map[tfe.Phase]*phaseLog{},
		states:      map[string]*stateEntry{},
		locked:      map[string]bool{},
		counts:      map[string]int{},
		failures:    map[string][]injected{},
		stalls:      map[string][]time.Duration{},
		lastHeaders: map[string]http.Header{},
		pageMeta:    map[string]*tfe.Pagination{},
		orgLists:    map[string]map[string][]any{},
		bindings:    map[string][]tfe.TagBinding{},
		flatTags:    map[string][]string{},
		configs:     map[string][]*configEntry{},
		runEvents:   map[string][]tfe.RunEvent{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// Client returns a tfe.Client pointed at the fake with fast retries.
func (s *Server) Client(t testing.TB, mutate ...func(*tfe.Config)) *tfe.Client {
	t.Helper()
	cfg := tfe.Config{
		BaseURL:     s.URL,
		Token:       Token,
		BackoffBase: time.Millisecond,
		Timeout:     5 * time.Second,
		HTTPClient:  s.Server.Client(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := tfe.New(cfg)
	if err != nil {
		t.Fatalf("tfetest: new client: %v", err)
	}
	return c
}

// AddOrganization registers an organization.
func (s *Server) AddOrganization(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs = append(s.orgs, names...)
}

// AddProject registers a project under an organization.
func (s *Server) AddProject(org, id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p tfe.Project
	p.ID, p.Type = id, "projects"
	p.Attributes.Name = name
	s.projects[org] = append(s.projects[org], p)
}

// AddWorkspace registers a workspace in org and returns it for further
// setup.
func (s *Server) AddWorkspace(org, id, name string, resourceCount int) *tfe.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws := &tfe.Workspace{ID: id, Type: "workspaces"}
	ws.Attributes.Name = name
	ws.Attributes.ResourceCount = resourceCount
	ws.Relationships.Organization = &tfe.Relationship{Data: &tfe.RelationshipData{ID: org, Type: "organizations"}}
	s.workspaces[id] = ws
	return ws
}

// AddRun registers a run in a workspace. When current is set the run
// becomes the workspace's current run.
func (s *Server) AddRun(workspaceID, id string, status tfe.RunStatus, createdAt time.Time, current bool) *tfe.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &tfe.Run{ID: id, Type: "runs"}
	run.Attributes.Status = status
	run.Attributes.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	run.Relationships.Workspace = &tfe.Relationship{Data: &tfe.RelationshipData{ID: workspaceID, Type: "workspaces"}}
	s.runs[id] = run
	if ws, ok := s.workspaces[workspaceID]; ok && current {
		ws.Relationships.CurrentRun = runRelationship(id)
	}
	return run
}

func runRelationship(runID string) *tfe.Relationship {
	return &tfe.Relationship{
		Data:  &tfe.RelationshipData{ID: runID, Type: "runs"},
		Links: &tfe.RelationshipLinks{Related: "/api/v2/runs/" + runID},
	}
}

// SetCurrentRun points a workspace at a run, or clears it when runID is "".
func (s *Server) SetCurrentRun(workspaceID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		return
	}
	if runID == "" {
		ws.Relationships.CurrentRun = nil
		return
	}
	ws.Relationships.CurrentRun = runRelationship(runID)
}

// DeleteRun removes a run so later lookups return 404.
func (s *Server) DeleteRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	delete(s.phases, runID)
}

// SetPhase sets the status and full log of a run phase.
func (s *Server) SetPhase(runID string, phase tfe.Phase, status tfe.PhaseStatus, log string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phases[runID] == nil {
		s.phases[runID] = map[tfe.Phase]*phaseLog{}
	}
	s.phases[runID][phase] = &phaseLog{Status: status, Log: log}
}

// AppendLog appends to a phase log and optionally changes its status.
func (s *Server) AppendLog(runID string, phase tfe.Phase, chunk string, status tfe.PhaseStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.phases[runID][phase]
	if p == nil {
		return
	}
	p.Log += chunk
	if status != "" {
		p.Status = status
	}
}

// SetState installs a current state version for a workspace.
func (s *Server) SetState(workspaceID string, state tfe.StateFile) {
	body, _ := json.Marshal(state)
	s.mu.Lock()
	defer s.mu.Unlock()
	var sv tfe.StateVersion
	sv.ID = fmt.Sprintf("sv-%s-%d", workspaceID, state.Serial)
	sv.Type = "state-versions"
	sv.Attributes.Serial = state.Serial
	sv.Attributes.Lineage = state.Lineage
	sv.Attributes.TerraformVersion = state.TerraformVersion
	sv.Attributes.ResourcesProcessed = true
	sv.Attributes.HostedStateDownloadURL = s.URL + "/state/" + workspaceID
	s.states[workspaceID] = &stateEntry{Version: sv, Body: body}
	if ws, ok := s.workspaces[workspaceID]; ok {
		ws.Relationships.CurrentStateVersion = &tfe.Relationship{
			Data:  &tfe.RelationshipData{ID: sv.ID, Type: "state-versions"},
			Links: &tfe.RelationshipLinks{Related: "/api/v2/workspaces/" + workspaceID + "/current-state-version"},
		}
	}
}

// AddTeam registers a team under an organization.
func (s *Server) AddTeam(org, id, name string, users int) {
	var t tfe.Team
	t.ID, t.Type = id, "teams"
	t.Attributes.Name = name
	t.Attributes.UsersCount = users
	t.Attributes.Visibility = "organization"
	s.addOrgItem("teams", org, t)
}

// AddOAuthClient registers a VCS connection under an organization.
func (s *Server) AddOAuthClient(org, id, name, provider string) {
	var oc tfe.OAuthClient
	oc.ID, oc.Type = id, "oauth-clients"
	oc.Attributes.Name = name
	oc.Attributes.ServiceProvider = provider
	s.addOrgItem("oauth-clients", org, oc)
}

// AddMember registers an organization membership.
func (s *Server) AddMember(org, id, email, status string) {
	var m tfe.OrganizationMembership
	m.ID, m.Type = id, "organization-memberships"
	m.Attributes.Email = email
	m.Attributes.Status = status
	s.addOrgItem("organization-memberships", org, m)
}

// AddTag registers an organization tag.
func (s *Server) AddTag(org, id, name string, instances int) {
	var t tfe.OrganizationTag
	t.ID, t.Type = id, "tags"
	t.Attributes.Name = name
	t.Attributes.InstanceCount = instances
	s.addOrgItem("tags", org, t)
}

func (s *Server) addOrgItem(kind, org string, item any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orgLists[kind] == nil {
		s.orgLists[kind] = map[string][]any{}
	}
	s.orgLists[kind][org] = append(s.orgLists[kind][org], item)
}

// AddTagBinding attaches a key/value tag to a workspace or project id.
func (s *Server) AddTagBinding(targetID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b tfe.TagBinding
	b.Type = "tag-bindings"
	b.Attributes.Key, b.Attributes.Value = key, value
	s.bindings[targetID] = append(s.bindings[targetID], b)
}

// AddFlatTag attaches a flat tag to a workspace.
func (s *Server) AddFlatTag(workspaceID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flatTags[workspaceID] = append(s.flatTags[workspaceID], name)
}

// AddConfigurationVersion registers a configuration version. Versions are
// listed newest first, so the latest call wins. An empty archive makes the
// download answer 204.
func (s *Server) AddConfigurationVersion(workspaceID, id, status string, archive []byte, current bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cv tfe.ConfigurationVersion
	cv.ID, cv.Type = id, "configuration-versions"
	cv.Attributes.Status = status
	cv.Attributes.Source = "tfe-api"
	if status == "uploaded" {
		cv.Links.Download = "/api/v2/configuration-versions/" + id + "/download"
	}
	s.configs[workspaceID] = append(s.configs[workspaceID], &configEntry{Version: cv, Archive: archive})
	if ws, ok := s.workspaces[workspaceID]; ok && current {
		ws.Relationships.CurrentConfigurationVersion = &tfe.Relationship{
			Data:  &tfe.RelationshipData{ID: id, Type: "configuration-versions"},
			Links: &tfe.RelationshipLinks{Related: "/api/v2/configuration-versions/" + id},
		}
	}
}

// AddRunEvent appends an entry to a run's timeline.
func (s *Server) AddRunEvent(runID, id, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var e tfe.RunEvent
	e.ID, e.Type = id, "run-events"
	e.Attributes.Action = action
	s.runEvents[runID] = append(s.runEvents[runID], e)
}

// SetLocked marks a workspace as locked or unlocked.
func (s *Server) SetLocked(workspaceID string, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[workspaceID] = locked
}

// Locked reports whether the workspace is locked.
func (s *Server) Locked(workspaceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked[workspaceID]
}

// OverridePagination makes list responses on path report meta instead of
// the computed pagination block. A zero CurrentPage echoes the requested
// page.
func (s *Server) OverridePagination(path string, meta tfe.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageMeta[path] = &meta
}

// Fail makes the next len(statuses) requests to method+path answer with
// the given statuses. A 429 carries Retry-After: 0.
func (s *Server) Fail(method, path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	for _, st := range statuses {
		inj := injected{status: st}
		if st == http.StatusTooManyRequests {
			inj.retryAfter = "0"
		}
		s.failures[key] = append(s.failures[key], inj)
	}
}

// Stall makes the next request to method+path take effect on the server
// but hold its response back for d, or until the client gives up.
func (s *Server) Stall(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.stalls[key] = append(s.stalls[key], d)
}

// FailPage makes the next request for one page of a listing answer with
// status.
func (s *Server) FailPage(path string, page int, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("GET %s#%d", path, page)
	s.failures[key] = append(s.failures[key], injected{status: status})
}

// Count returns how many requests reached method+path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

// LastHeader returns the headers of the latest request to path.
func (s *Server) LastHeader(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders[path]
}

// Actions returns the mutations received so far, in order.
func (s *Server) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// Uploads returns the state versions received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// RunStatus returns the stored status of a run.
func (s *Server) RunStatus(runID string) tfe.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[runID]; ok {
		return r.Attributes.Status
	}
	return ""
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/logs/{run}/{phase}", s.handleLog)
	r.Get("/state/{ws}", s.handleStateDownload)
	r.Get("/archives/{cv}", s.handleArchive)

	r.Route("/api/v2", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/organizations", s.handleOrganizations)
		r.Get("/organizations/{org}/projects", s.handleProjects)
		r.Get("/organizations/{org}/workspaces", s.handleWorkspaces)
		r.Get("/organizations/{org}/workspaces/{name}", s.handleWorkspaceByName)
		r.Get("/organizations/{org}/teams", s.handleOrgList("teams"))
		r.Get("/organizations/{org}/oauth-clients", s.handleOrgList("oauth-clients"))
		r.Get("/organizations/{org}/organization-memberships", s.handleOrgList("organization-memberships"))
		r.Get("/organizations/{org}/tags", s.handleOrgList("tags"))
		r.Get("/workspaces/{id}", s.handleWorkspace)
		r.Get("/workspaces/{id}/runs", s.handleRuns)
		r.Get("/workspaces/{id}/current-state-version", s.handleCurrentState)
		r.Get("/workspaces/{id}/tag-bindings", s.handleTagBindings)
		r.Get("/projects/{id}/tag-bindings", s.handleTagBindings)
		r.Get("/workspaces/{id}/relationships/tags", s.handleFlatTags)
		r.Get("/workspaces/{id}/configuration-versions", s.handleConfigurationVersions)
		r.Get("/configuration-versions/{cv}", s.handleConfigurationVersion)
		r.Get("/configuration-versions/{cv}/download", s.handleConfigurationDownload)
		r.Get("/runs/{id}/run-events", s.handleRunEvents)
		r.Post("/workspaces/{id}/state-versions", s.handleUploadState)
		r.Post("/workspaces/{id}/actions/lock", s.handleLock)
		r.Post("/workspaces/{id}/actions/unlock", s.handleUnlock)
		r.Get("/runs/{id}", s.handleRun)
		r.Get("/runs/{id}/{phase}", s.handlePhase)
		r.Post("/runs/{id}/actions/{action}", s.handleRunAction)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.counts[key]++
		s.lastHeaders[r.URL.Path] = r.Header.Clone()
		var inj *injected
		pageKey := key + "#" + r.URL.Query().Get("page[number]")
		for _, k := range []string{pageKey, key} {
			if queue := s.failures[k]; len(queue) > 0 {
				inj = &queue[0]
				s.failures[k] = queue[1:]
				break
			}
		}
		var stall time.Duration
		if queue := s.stalls[key]; len(queue) > 0 {
			stall = queue[0]
			s.stalls[key] = queue[1:]
		}
		s.mu.Unlock()

		if inj != nil {
			if inj.retryAfter != "" {
				w.Header().Set("Retry-After", inj.retryAfter)
			}
			writeError(w, inj.status, fmt.Sprintf("injected failure %d", inj.status))
			return
		}
		if stall > 0 {
			rec := httptest.NewRecorder()
			next.ServeHTTP(rec, r)
			timer := time.NewTimer(stall)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.Context().Done():
				return
			}
			for k, vs := range rec.Header() {
				w.Header()[k] = vs
			}
			w.WriteHeader(rec.Code)
			_, _ = w.Write(rec.Body.Bytes())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	orgs := make([]tfe.Organization, 0, len(s.orgs))
	for _, name := range s.orgs {
		var o tfe.Organization
		o.ID, o.Type = name, "organizations"
		o.Attributes.Name = name
		orgs = append(orgs, o)
	}
	s.mu.Unlock()
	s.writePage(w, r, orgs)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")
	s.mu.Lock()
	known := s.hasOrg(org)
	projects := append([]tfe.Project(nil), s.projects[org]...)
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writePage(w, r, projects)
}

func (s *Server) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")
	search := r.URL.Query().Get("search[name]")
	s.mu.Lock()
	known := s.hasOrg(org)
	var list []tfe.Workspace
	for _, ws := range s.workspaces {
		if ws.OrganizationName() != org {
			continue
		}
		if search != "" && !strings.Contains(ws.Attributes.Name, search) {
			continue
		}
		list = append(list, *ws)
	}
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Attributes.Name < list[j].Attributes.Name })
	s.writePage(w, r, list)
}

func (s *Server) handleWorkspaceByName(w http.ResponseWriter, r *http.Request) {
	org, name := chi.URLParam(r, "org"), chi.URLParam(r, "name")
	s.mu.Lock()
	var found *tfe.Workspace
	for _, ws := range s.workspaces {
		if ws.OrganizationName() == org && ws.Attributes.Name == name {
			cp := *ws
			found = &cp
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": found})
}

func (s *Server) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ws, ok := s.workspaces[chi.URLParam(r, "id")]
	var cp tfe.Workspace
	if ok {
		cp = *ws
		cp.Attributes.Locked = s.locked[ws.ID]
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": cp})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	group := r.URL.Query().Get("filter[status_group]")
	s.mu.Lock()
	_, known := s.workspaces[id]
	var list []tfe.Run
	for _, run := range s.runs {
		if run.WorkspaceID() != id {
			continue
		}
		if group == "non_final" && run.Status().Family() == tfe.FamilyFinal {
			continue
		}
		list = append(list, *run)
	}
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt().After(list[j].CreatedAt()) })
	s.writePage(w, r, list)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	run, ok := s.runs[chi.URLParam(r, "id")]
	var cp tfe.Run
	if ok {
		cp = *run
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": cp})
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	runID, phase := chi.URLParam(r, "id"), tfe.Phase(chi.URLParam(r, "phase"))
	s.mu.Lock()
	p := s.phases[runID][phase]
	var status tfe.PhaseStatus
	if p != nil {
		status = p.Status
	}
	s.mu.Unlock()
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var out tfe.RunPhase
	out.ID = fmt.Sprintf("%s-%s", phase, runID)
	out.Type = string(phase) + "s"
	out.Attributes.Status = status
	out.Attributes.LogReadURL = fmt.Sprintf("%s/logs/%s/%s", s.URL, runID, phase)
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	runID, phase := chi.URLParam(r, "run"), tfe.Phase(chi.URLParam(r, "phase"))
	s.mu.Lock()
	p := s.phases[runID][phase]
	var body string
	if p != nil {
		body = p.Log
	}
	s.mu.Unlock()
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleRunAction(w http.ResponseWriter, r *http.Request) {
	runID, action := chi.URLParam(r, "id"), chi.URLParam(r, "action")
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.actions = append(s.actions, Action{Target: runID, Name: action})
	switch action {
	case "cancel":
		run.Attributes.Status = "canceled"
	case "discard":
		run.Attributes.Status = "discarded"
	default:
		writeError(w, http.StatusUnprocessableEntity, "unsupported action "+action)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[id]; !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if s.locked[id] {
		writeError(w, http.StatusConflict, "Unable to lock workspace. The workspace is already locked.")
		return
	}
	s.locked[id] = true
	s.actions = append(s.actions, Action{Target: id, Name: "lock"})
	writeJSON(w, http.StatusOK, map[string]any{"data": s.workspaces[id]})
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workspaces[id]; !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.actions = append(s.actions, Action{Target: id, Name: "unlock"})
	if !s.locked[id] {
		writeError(w, http.StatusConflict, "Unable to unlock workspace. The workspace is not locked.")
		return
	}
	s.locked[id] = false
	writeJSON(w, http.StatusOK, map[string]any{"data": s.workspaces[id]})
}

func (s *Server) handleCurrentState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entry, ok := s.states[chi.URLParam(r, "id")]
	var sv tfe.StateVersion
	if ok {
		sv = entry.Version
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": sv})
}

func (s *Server) handleStateDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entry, ok := s.states[chi.URLParam(r, "ws")]
	var body []byte
	if ok {
		body = entry.Body
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleUploadState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var doc struct {
		Data struct {
			Type       string                 `json:"type"`
			Attributes tfe.StateVersionUpload `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	attrs := doc.Data.Attributes
	raw, err := base64.StdEncoding.DecodeString(attrs.State)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "state is not base64")
		return
	}
	sum := md5.Sum(raw)
	if hex.EncodeToString(sum[:]) != attrs.MD5 {
		writeError(w, http.StatusUnprocessableEntity, "md5 mismatch")
		return
	}
	var state tfe.StateFile
	if err := json.Unmarshal(raw, &state); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "state is not JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locked[id] {
		writeError(w, http.StatusConflict, "workspace must be locked to upload state")
		return
	}
	if cur, ok := s.states[id]; ok {
		if attrs.Lineage != cur.Version.Attributes.Lineage {
			writeError(w, http.StatusConflict, "lineage mismatch")
			return
		}
		if attrs.Serial <= cur.Version.Attributes.Serial {
			writeError(w, http.StatusConflict, "serial must increase")
			return
		}
	}
	s.uploads = append(s.uploads, Upload{WorkspaceID: id, Attributes: attrs, State: state})
	s.actions = append(s.actions, Action{Target: id, Name: "upload"})

	var sv tfe.StateVersion
	sv.ID = fmt.Sprintf("sv-%s-%d", id, attrs.Serial)
	sv.Type = "state-versions"
	sv.Attributes.Serial = attrs.Serial
	sv.Attributes.Lineage = attrs.Lineage
	sv.Attributes.HostedStateDownloadURL = s.URL + "/state/" + id
	s.states[id] = &stateEntry{Version: sv, Body: raw}
	if ws, ok := s.workspaces[id]; ok {
		ws.Attributes.ResourceCount = len(state.Resources)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"data": sv})
}

// handleOrgList serves one per-organization listing. Memberships honour
// filter[status] and tags honour q.
func (s *Server) handleOrgList(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org := chi.URLParam(r, "org")
		status := r.URL.Query().Get("filter[status]")
		search := r.URL.Query().Get("q")
		s.mu.Lock()
		known := s.hasOrg(org)
		items := []any{}
		for _, it := range s.orgLists[kind][org] {
			switch v := it.(type) {
			case tfe.OrganizationMembership:
				if status != "" && v.Attributes.Status != status {
					continue
				}
			case tfe.OrganizationTag:
				if search != "" && !strings.Contains(v.Attributes.Name, search) {
					continue
				}
			}
			items = append(items, it)
		}
		s.mu.Unlock()
		if !known {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.writePage(w, r, items)
	}
}

func (s *Server) handleTagBindings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := append([]tfe.TagBinding{}, s.bindings[chi.URLParam(r, "id")]...)
	s.mu.Unlock()
	s.writePage(w, r, list)
}

func (s *Server) handleFlatTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	names := append([]string(nil), s.flatTags[id]...)
	s.mu.Unlock()
	list := make([]map[string]any, 0, len(names))
	for i, n := range names {
		list = append(list, map[string]any{
			"id":         fmt.Sprintf("tag-%s-%d", id, i),
			"type":       "tags",
			"attributes": map[string]string{"name": n},
		})
	}
	s.writePage(w, r, list)
}

func (s *Server) handleConfigurationVersions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, known := s.workspaces[id]
	entries := s.configs[id]
	list := make([]tfe.ConfigurationVersion, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		list = append(list, entries[i].Version)
	}
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writePage(w, r, list)
}

func (s *Server) findConfig(cvID string) *configEntry {
	for _, entries := range s.configs {
		for _, e := range entries {
			if e.Version.ID == cvID {
				return e
			}
		}
	}
	return nil
}

func (s *Server) handleConfigurationVersion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	e := s.findConfig(chi.URLParam(r, "cv"))
	s.mu.Unlock()
	if e == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": e.Version})
}

func (s *Server) handleConfigurationDownload(w http.ResponseWriter, r *http.Request) {
	cvID := chi.URLParam(r, "cv")
	s.mu.Lock()
	e := s.findConfig(cvID)
	s.mu.Unlock()
	switch {
	case e == nil:
		writeError(w, http.StatusNotFound, "not found")
	case len(e.Archive) == 0:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/archives/"+cvID, http.StatusFound)
	}
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	e := s.findConfig(chi.URLParam(r, "cv"))
	s.mu.Unlock()
	if e == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(e.Archive)
}

func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, known := s.runs[id]
	list := append([]tfe.RunEvent{}, s.runEvents[id]...)
	s.mu.Unlock()
	if !known {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.writePage(w, r, list)
}

func (s *Server) hasOrg(org string) bool {
	for _, o := range s.orgs {
		if o == org {
			return true
		}
	}
	return false
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, items any) {
	data, _ := json.Marshal(items)
	var all []json.RawMessage
	_ = json.Unmarshal(data, &all)

	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page[number]"))
	if number < 1 {
		number = 1
	}
	size, _ := strconv.Atoi(q.Get("page[size]"))
	if size < 1 {
		size = 20
	}
	total := len(all)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	start := min((number-1)*size, total)
	end := min(start+size, total)

	meta := tfe.Pagination{CurrentPage: number, TotalPages: pages, TotalCount: total, PageSize: size}
	s.mu.Lock()
	if override, ok := s.pageMeta[r.URL.Path]; ok {
		meta = *override
		if meta.CurrentPage == 0 {
			meta.CurrentPage = number
		}
	}
	s.mu.Unlock()

	page := all[start:end]
	if page == nil {
		page = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": page,
		"meta": map[string]any{"pagination": meta},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", tfe.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{
			"status": strconv.Itoa(status),
			"title":  http.StatusText(status),
			"detail": detail,
		}},
	})
}

package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botivate/systems-dashboard/internal/adapters/memory"
	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
	catalogfake "github.com/botivate/systems-dashboard/internal/mocks/catalog"
	"github.com/botivate/systems-dashboard/internal/service"
	"github.com/botivate/systems-dashboard/internal/testutil"
)

func testUsers() []domainauth.UserRecord {
	return []domainauth.UserRecord{
		testutil.NewUser("root").Admin().Build(),
		testutil.NewUser("alice").WithGrant("payroll").Build(),
		testutil.NewUser("bob").WithGrant("warehouse").Build(),
		testutil.NewUser("carol").Build(),
	}
}

func testSystems() []model.SystemRecord {
	return []model.SystemRecord{
		testutil.System(0, "Payroll", "Complete"),
		testutil.System(0, "Inventory", "Running"),
		testutil.System(0, "Payroll Audit", "Pending"),
		testutil.System(0, "Archive", "N/A"),
	}
}

type testApp struct {
	srv      *httptest.Server
	registry *service.TabRegistry
	source   *catalogfake.StaticSource
	storage  *memory.TabStorage
}

func newTestApp(t *testing.T, opts ...func(*service.TabRegistryOptions)) *testApp {
	t.Helper()
	SkipIfNoTemplates(t)

	storage := memory.NewTabStorage(memory.TabStorageOptions{})
	source := catalogfake.NewStaticSource(testUsers(), testSystems())
	regOpts := service.TabRegistryOptions{Storage: storage, Source: source}
	for _, opt := range opts {
		opt(&regOpts)
	}
	registry := service.NewTabRegistry(regOpts)

	handler, err := NewRouter(RouterServices{
		Tabs:       registry,
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		registry.Close()
	})
	return &testApp{srv: srv, registry: registry, source: source, storage: storage}
}

// browser is one browser tab: its own cookie jar, hence its own tab id.
type browser struct {
	t      *testing.T
	app    *testApp
	client *http.Client
}

func (a *testApp) newBrowser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:   t,
		app: a,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type response struct {
	status int
	header http.Header
	body   string
}

func (b *browser) do(req *http.Request) response {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: string(body)}
}

func (b *browser) get(path string, header http.Header) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.srv.URL+path, nil)
	require.NoError(b.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	return b.do(req)
}

// post submits a form with the tab's CSRF token in the header, the way the
// page's htmx configuration sends it.
func (b *browser) post(path string, form url.Values, header http.Header) response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.app.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(DefaultCSRFHeaderName, b.csrfToken())
	for k, v := range header {
		req.Header[k] = v
	}
	return b.do(req)
}

func (b *browser) csrfToken() string {
	b.t.Helper()
	u, err := url.Parse(b.app.srv.URL)
	require.NoError(b.t, err)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == DefaultCSRFCookieName {
			return c.Value
		}
	}
	b.get("/", nil)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == DefaultCSRFCookieName {
			return c.Value
		}
	}
	b.t.Fatal("no CSRF cookie issued")
	return ""
}

func (b *browser) login(id, password string) response {
	b.t.Helper()
	return b.post("/auth/login", url.Values{"user_id": {id}, "password": {password}}, nil)
}

func (b *browser) session() sessionPayload {
	b.t.Helper()
	res := b.get("/api/session", jsonAccept())
	require.Equal(b.t, http.StatusOK, res.status, res.body)
	var p sessionPayload
	require.NoError(b.t, json.Unmarshal([]byte(res.body), &p))
	return p
}

func (b *browser) systems() (int, systemsPayload) {
	b.t.Helper()
	res := b.get("/api/systems?wait=true", jsonAccept())
	var p systemsPayload
	if res.status == http.StatusOK {
		require.NoError(b.t, json.Unmarshal([]byte(res.body), &p))
	}
	return res.status, p
}

func jsonAccept() http.Header {
	return http.Header{"Accept": {"application/json"}}
}

func htmxHeader() http.Header {
	return http.Header{"Hx-Request": {"true"}}
}

func recordNames(recs []model.SystemRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestRouter_FreshTabShowsLogin(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.get("/", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.True(t, ContainsAll(res.body, []string{"<html", "Sign in", `name="user_id"`, `name="csrf_token"`}))
	assert.NotContains(t, res.body, "Logout")

	p := b.session()
	assert.False(t, p.Authenticated)
	assert.Equal(t, "logging_in", p.View)
}

func TestRouter_AdminLogin(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.login("root", "secret")
	require.Equal(t, http.StatusSeeOther, res.status)
	assert.Equal(t, "/", res.header.Get("Location"))

	status, catalog := b.systems()
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Payroll"}, recordNames(catalog.Complete))
	assert.Equal(t, []string{"Inventory", "Payroll Audit"}, recordNames(catalog.Running))
	assert.False(t, catalog.Loading)

	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{
		"Welcome, Admin", "root", "Complete Systems", "Running Systems", "Logout",
	}))
	assert.NotContains(t, page.body, "Access granted to")

	p := b.session()
	assert.True(t, p.Authenticated)
	require.NotNil(t, p.User)
	assert.Equal(t, "admin", p.User.Role)
	assert.Empty(t, p.User.Access)
	assert.Equal(t, "dashboard", p.View)
}

func TestRouter_UserLogin(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	require.Equal(t, http.StatusSeeOther, b.login("alice", "secret").status)

	status, catalog := b.systems()
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Payroll"}, recordNames(catalog.Complete))
	assert.Nil(t, catalog.Running)

	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{"Welcome, User", "Access granted to: payroll", "Complete Systems"}))
	assert.NotContains(t, page.body, "Running Systems")

	// Users cannot reach the running list.
	res := b.post("/views/running", nil, jsonAccept())
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "dashboard", b.session().View)
}

func TestRouter_UserWithoutGrant(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	require.Equal(t, http.StatusSeeOther, b.login("carol", "secret").status)
	_, catalog := b.systems()
	assert.Empty(t, catalog.Complete)

	page := b.get("/", nil)
	assert.Contains(t, page.body, "No specific access defined")

	b.post("/views/complete", nil, nil)
	list := b.get("/", nil)
	assert.True(t, ContainsAll(list.body, []string{
		"No systems found", "You don&#39;t have access to any systems in this category",
	}))
}

func TestRouter_LoginRejected(t *testing.T) {
	tests := []struct {
		name       string
		id, pw     string
		wantStatus int
		wantText   string
	}{
		{name: "wrong password", id: "root", pw: "nope", wantStatus: http.StatusUnauthorized, wantText: "Invalid User ID or Password"},
		{name: "case sensitive id", id: "Root", pw: "secret", wantStatus: http.StatusUnauthorized, wantText: "Invalid User ID or Password"},
		{name: "missing password", id: "root", pw: "", wantStatus: http.StatusBadRequest, wantText: "Please enter both User ID and Password"},
		{name: "control characters", id: "root\n", pw: "secret", wantStatus: http.StatusBadRequest, wantText: "User ID contains invalid characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			b := app.newBrowser(t)

			res := b.login(tt.id, tt.pw)
			assert.Equal(t, tt.wantStatus, res.status)
			assert.Contains(t, res.body, tt.wantText)
			assert.Contains(t, res.body, "Sign in")
			assert.False(t, b.session().Authenticated)
		})
	}
}

func TestRouter_LoginRejectedKeepsUserID(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.login("someone", "wrong")
	assert.Contains(t, res.body, `value="someone"`)
}

func TestRouter_LoginRemoteFailure(t *testing.T) {
	app := newTestApp(t)
	app.source.FailCredentials(assert.AnError)
	b := app.newBrowser(t)

	res := b.login("root", "secret")
	assert.Equal(t, http.StatusBadGateway, res.status)
	assert.Contains(t, res.body, "Login failed. Please try again.")
}

func TestRouter_LoginJSON(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/auth/login",
		strings.NewReader(`{"user_id":"root","password":"secret"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DefaultCSRFHeaderName, b.csrfToken())
	res := b.do(req)

	require.Equal(t, http.StatusOK, res.status, res.body)
	var p sessionPayload
	require.NoError(t, json.Unmarshal([]byte(res.body), &p))
	assert.True(t, p.Authenticated)
	assert.Equal(t, "root", p.User.ID)
	b.systems()

	bad, err := http.NewRequest(http.MethodPost, app.srv.URL+"/auth/login",
		strings.NewReader(`{"user_id":"root","password":"nope"}`))
	require.NoError(t, err)
	bad.Header.Set("Content-Type", "application/json")
	bad.Header.Set("Accept", "application/json")
	bad.Header.Set(DefaultCSRFHeaderName, b.csrfToken())

	// The tab is already logged in, so a second login is a no-op.
	assert.Equal(t, http.StatusOK, b.do(bad).status)
}

func TestRouter_LoginRequiresCSRF(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)
	b.get("/", nil)

	req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/auth/login",
		strings.NewReader(url.Values{"user_id": {"root"}, "password": {"secret"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := b.do(req)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.False(t, b.session().Authenticated)
}

func TestRouter_AdminNavigation(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)
	b.systems()

	res := b.post("/views/running", nil, nil)
	require.Equal(t, http.StatusSeeOther, res.status)

	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{
		"Running Systems", "Inventory", "Payroll Audit", "Open Sheet", "Remarks", "Back to Dashboard",
	}))
	assert.NotContains(t, page.body, "Archive")

	b.post("/views/back", nil, nil)
	assert.Equal(t, "dashboard", b.session().View)

	b.post("/views/complete", nil, nil)
	page = b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{"Complete Systems", "Payroll", "Open App", "Open Sheet"}))
	assert.NotContains(t, page.body, "<th>Remarks</th>")
}

func TestRouter_UserListHidesSheetLinks(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("alice", "secret").status)
	b.systems()

	b.post("/views/complete", nil, nil)
	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{"Payroll", "Open App"}))
	assert.NotContains(t, page.body, "Open Sheet")
}

func TestRouter_AdminEmptyList(t *testing.T) {
	app := newTestApp(t)
	app.source.SetSystems(nil)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)
	b.systems()

	b.post("/views/running", nil, nil)
	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{"No systems found", "No systems available in this category"}))
}

func TestRouter_Logout(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)
	b.systems()
	b.post("/views/complete", nil, nil)

	res := b.post("/auth/logout", nil, nil)
	require.Equal(t, http.StatusSeeOther, res.status)

	p := b.session()
	assert.False(t, p.Authenticated)
	assert.Equal(t, "logging_in", p.View)
	assert.Zero(t, app.storage.Len())

	status, _ := b.systems()
	assert.Equal(t, http.StatusUnauthorized, status)

	page := b.get("/", nil)
	assert.Contains(t, page.body, `value=""`)
}

func TestRouter_SessionSurvivesEviction(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	app := newTestApp(t, func(o *service.TabRegistryOptions) {
		o.IdleTTL = time.Minute
		o.Now = clock
	})
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("alice", "secret").status)
	b.systems()

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	require.Equal(t, 1, app.registry.Sweep())
	require.Zero(t, app.registry.Len())

	// The persisted session brings the tab back on its next request.
	p := b.session()
	assert.True(t, p.Authenticated)
	assert.Equal(t, "alice", p.User.ID)
	assert.Equal(t, "dashboard", p.View)
}

func TestRouter_TabsAreIsolated(t *testing.T) {
	app := newTestApp(t)
	admin := app.newBrowser(t)
	other := app.newBrowser(t)

	require.Equal(t, http.StatusSeeOther, admin.login("root", "secret").status)
	assert.True(t, admin.session().Authenticated)
	assert.False(t, other.session().Authenticated)
	assert.Equal(t, 2, app.registry.Len())
}

func TestRouter_HTMXPartials(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.post("/auth/login", url.Values{"user_id": {"root"}, "password": {"secret"}}, htmxHeader())
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "true", res.header.Get("Hx-Refresh"))

	b.systems()
	res = b.post("/views/complete", nil, htmxHeader())
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "/", res.header.Get("Hx-Push-Url"))
	assert.NotContains(t, res.body, "<html")
	assert.True(t, ContainsAll(res.body, []string{"<title>Systems Dashboard - Complete Systems</title>", "Payroll"}))

	frag := b.get("/fragments/dashboard", htmxHeader())
	require.Equal(t, http.StatusOK, frag.status)
	assert.NotContains(t, frag.body, `hx-trigger="load delay:1s"`)

	res = b.post("/auth/logout", nil, htmxHeader())
	assert.Equal(t, "true", res.header.Get("Hx-Refresh"))

	frag = b.get("/fragments/dashboard", htmxHeader())
	assert.Equal(t, http.StatusNoContent, frag.status)
	assert.Equal(t, "true", frag.header.Get("Hx-Refresh"))
}

func TestRouter_HTMXLoginErrorRendersForm(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.post("/auth/login", url.Values{"user_id": {"root"}, "password": {"bad"}}, htmxHeader())
	require.Equal(t, http.StatusOK, res.status)
	assert.NotContains(t, res.body, "<html")
	assert.True(t, ContainsAll(res.body, []string{"Invalid User ID or Password", `value="root"`}))
}

func TestRouter_LoadingPolls(t *testing.T) {
	app := newTestApp(t)
	app.source.Hold()
	b := app.newBrowser(t)

	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)
	page := b.get("/", nil)
	assert.True(t, ContainsAll(page.body, []string{"Loading systems", `hx-get="/fragments/dashboard"`}))

	p := b.session()
	assert.True(t, p.Loading)

	app.source.Release()
	status, catalog := b.systems()
	require.Equal(t, http.StatusOK, status)
	assert.False(t, catalog.Loading)

	frag := b.get("/fragments/dashboard", htmxHeader())
	assert.NotContains(t, frag.body, "Loading systems")
	assert.NotContains(t, frag.body, `hx-get="/fragments/dashboard"`)
}

func TestRouter_LoginWhileLoadingIsBusy(t *testing.T) {
	app := newTestApp(t)
	app.source.Hold()
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)

	req, err := http.NewRequest(http.MethodPost, app.srv.URL+"/auth/login",
		strings.NewReader(`{"user_id":"root","password":"secret"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(DefaultCSRFHeaderName, b.csrfToken())
	res := b.do(req)
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Contains(t, res.body, "A request is already in progress")

	app.source.Release()
	b.systems()
}

func TestRouter_FetchFailure(t *testing.T) {
	app := newTestApp(t)
	app.source.FailSystems(assert.AnError)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)

	status, catalog := b.systems()
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, catalog.Complete)
	assert.Empty(t, catalog.Running)
	assert.NotEmpty(t, catalog.Error)
}

func TestRouter_Refresh(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)
	require.Equal(t, http.StatusSeeOther, b.login("root", "secret").status)
	b.systems()
	b.post("/views/complete", nil, nil)

	app.source.SetSystems([]model.SystemRecord{testutil.System(0, "Fresh", "Completed")})
	res := b.post("/views/refresh", nil, nil)
	require.Equal(t, http.StatusSeeOther, res.status)

	_, catalog := b.systems()
	assert.Equal(t, []string{"Fresh"}, recordNames(catalog.Complete))
	assert.Equal(t, "dashboard", b.session().View)
}

func TestRouter_HealthAndStatic(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.get("/healthz", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, `"status":"ok"`)

	css := b.get("/static/css/app.css", nil)
	assert.Equal(t, http.StatusOK, css.status)
	assert.Equal(t, "public, max-age=300", css.header.Get("Cache-Control"))

	// Neither creates a tab.
	assert.Zero(t, app.registry.Len())
}

func TestRouter_NotFound(t *testing.T) {
	app := newTestApp(t)
	b := app.newBrowser(t)

	res := b.get("/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.body, "The page you are looking for does not exist.")

	res = b.get("/does-not-exist", jsonAccept())
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Contains(t, res.body, `"error":"not_found"`)
}

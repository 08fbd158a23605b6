package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"igreja/internal/auth"
	"igreja/internal/cache"
	"igreja/internal/core"
	"igreja/internal/ledger"
	"igreja/internal/ledger/memory"
	"igreja/internal/metrics"
	"igreja/internal/middleware/ratelimit"
	"igreja/internal/services"
)

const adminCode = "1234"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	srv   *Server
	store *memory.Store
}

func newFixture(t *testing.T, store *memory.Store) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminCode), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	authn, err := auth.New(string(hash), testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	roster := ledger.Roster{
		Leaders:    []string{"L1", "L2"},
		Window:     core.Window(3),
		Disciplers: []string{"D1", "D2"},
		Types:      core.SessionTypes(),
	}
	mgr := cache.NewManager()
	m := metrics.New()
	svc := services.NewLedgerService(ledger.NewStore(store, roster, nil), services.Options{Purger: mgr, Metrics: m, Year: 2026})
	_ = svc.Load(context.Background())

	srv := NewServer(Options{
		Addr:          ":0",
		Ledgers:       svc,
		Auth:          authn,
		Metrics:       m,
		Cache:         mgr,
		Year:          2026,
		TitheWindow:   3,
		RollingWindow: 4,
		LoginLimit:    ratelimit.Config{RequestsPerMinute: 3},
	})
	srv.now = func() time.Time { return time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &fixture{srv: srv, store: store}
}

func (f *fixture) do(t *testing.T, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.5:4000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/admin/login", `{"code":"`+adminCode+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestPagesAndHealth(t *testing.T) {
	f := newFixture(t, memory.New())

	rr := f.do(t, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Total pago", "R$ 0,00", "Fevereiro", "L1"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(body, `id="save-tithes"`) {
		t.Error("edit controls shown without a session")
	}

	rr = f.do(t, http.MethodGet, "/presenca?month=Fevereiro", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("presenca status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "07/02, 14/02, 21/02, 28/02") {
		t.Errorf("presenca missing saturdays: %s", rr.Body.String())
	}

	for _, path := range []string{"/healthz", "/readyz", "/static/app.css"} {
		if rr := f.do(t, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if rr := f.do(t, http.MethodGet, "/nope", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	f := newFixture(t, memory.New())
	rr := f.do(t, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("request id = %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestTitheOverviewJSON(t *testing.T) {
	f := newFixture(t, memory.New())

	rr := f.do(t, http.MethodGet, "/api/tithes/overview?month=Janeiro", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var ov core.TitheOverview
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if ov.Total.Cents != 0 || len(ov.Series) != 3 || ov.Month != 1 {
		t.Fatalf("unexpected overview: %+v", ov)
	}
	if ov.Status[core.NotPaid] != 2 {
		t.Errorf("status split = %v", ov.Status)
	}

	if rr := f.do(t, http.MethodGet, "/api/tithes/overview?month=Smarch", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad month status=%d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/api/tithes?month=13", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("month 13 status=%d", rr.Code)
	}
}

func TestEditsRequireAdmin(t *testing.T) {
	f := newFixture(t, memory.New())
	cases := []struct{ method, target string }{
		{http.MethodPost, "/api/tithes?month=Janeiro"},
		{http.MethodPost, "/api/attendance?month=Janeiro"},
		{http.MethodPost, "/api/leaders"},
		{http.MethodPost, "/api/leaders/rename"},
		{http.MethodDelete, "/api/leaders?name=L1&confirm=L1"},
	}
	for _, tc := range cases {
		if rr := f.do(t, tc.method, tc.target, `[]`); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status=%d", tc.method, tc.target, rr.Code)
		}
	}
	if f.store.Writes() != 0 {
		t.Errorf("unauthorized requests wrote %d times", f.store.Writes())
	}
}

func TestSaveTithesPurgesOverview(t *testing.T) {
	f := newFixture(t, memory.New())
	session := f.login(t)

	// warm the view cache
	f.do(t, http.MethodGet, "/api/tithes/overview?month=Janeiro", "")

	rr := f.do(t, http.MethodPost, "/api/tithes?month=Janeiro",
		`[{"leader":"L1","amount":"150,5","paid":"Sim"},{"leader":"L2","amount":0,"paid":"Não"}]`, session)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = f.do(t, http.MethodGet, "/api/tithes/overview?month=Janeiro", "")
	var ov core.TitheOverview
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if ov.Total.Cents != 15050 {
		t.Fatalf("total = %d, want 15050", ov.Total.Cents)
	}
	if ov.Status[core.Paid] != 1 || ov.Status[core.NotPaid] != 1 {
		t.Errorf("status split = %v", ov.Status)
	}
	if !strings.Contains(f.do(t, http.MethodGet, "/?month=Janeiro", "").Body.String(), "R$ 150,50") {
		t.Error("dashboard does not show the new total")
	}
}

func TestSaveTithesRejectsBadEdits(t *testing.T) {
	f := newFixture(t, memory.New())
	session := f.login(t)

	cases := map[string]struct {
		body string
		want int
	}{
		"cardinality":   {`[{"leader":"L1","amount":"1","paid":"Sim"}]`, http.StatusUnprocessableEntity},
		"unknown key":   {`[{"leader":"L1","amount":"1","paid":"Sim"},{"leader":"X","amount":"1","paid":"Sim"}]`, http.StatusUnprocessableEntity},
		"bad paid":      {`[{"leader":"L1","amount":"1","paid":"Talvez"},{"leader":"L2","amount":"1","paid":"Sim"}]`, http.StatusUnprocessableEntity},
		"bad amount":    {`[{"leader":"L1","amount":"abc","paid":"Sim"}]`, http.StatusBadRequest},
		"unknown field": {`[{"leader":"L1","bogus":1}]`, http.StatusBadRequest},
		"not json":      {`{`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/tithes?month=Janeiro", tc.body, session)
			if rr.Code != tc.want {
				t.Errorf("status=%d want %d body=%s", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
	if f.store.Writes() != 0 {
		t.Errorf("rejected edits wrote %d times", f.store.Writes())
	}
}

func TestLeaderLifecycle(t *testing.T) {
	f := newFixture(t, memory.New())
	session := f.login(t)

	steps := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPost, "/api/leaders", `{"name":"Test"}`, http.StatusCreated},
		{http.MethodPost, "/api/leaders", `{"name":"Test"}`, http.StatusConflict},
		{http.MethodPost, "/api/leaders", `{"name":"  "}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/api/leaders/rename", `{"old":"Test","new":"Teste"}`, http.StatusOK},
		{http.MethodPost, "/api/leaders/rename", `{"old":"Nobody","new":"X"}`, http.StatusNotFound},
		{http.MethodDelete, "/api/leaders?name=Teste", "", http.StatusUnprocessableEntity},
		{http.MethodDelete, "/api/leaders?name=Teste&confirm=teste", "", http.StatusUnprocessableEntity},
		{http.MethodDelete, "/api/leaders?name=Teste&confirm=Teste", "", http.StatusOK},
		{http.MethodDelete, "/api/leaders?name=Teste&confirm=Teste", "", http.StatusNotFound},
	}
	for _, st := range steps {
		rr := f.do(t, st.method, st.target, st.body, session)
		if rr.Code != st.want {
			t.Fatalf("%s %s %s: status=%d want %d body=%s", st.method, st.target, st.body, rr.Code, st.want, rr.Body.String())
		}
	}

	var leaders []string
	if err := json.Unmarshal(f.do(t, http.MethodGet, "/api/leaders", "").Body.Bytes(), &leaders); err != nil {
		t.Fatal(err)
	}
	if strings.Join(leaders, ",") != "L1,L2" {
		t.Errorf("leaders = %v", leaders)
	}
}

func TestLoginFailuresAndRateLimit(t *testing.T) {
	f := newFixture(t, memory.New())

	if rr := f.do(t, http.MethodPost, "/admin/login", `{"code":"wrong"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status=%d", rr.Code)
	}
	f.do(t, http.MethodPost, "/admin/login", `{"code":"wrong"}`)
	f.do(t, http.MethodPost, "/admin/login", `{"code":"wrong"}`)

	rr := f.do(t, http.MethodPost, "/admin/login", `{"code":"`+adminCode+`"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth attempt status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	f := newFixture(t, memory.New())
	session := f.login(t)

	if !strings.Contains(f.do(t, http.MethodGet, "/", "", session).Body.String(), `id="save-tithes"`) {
		t.Error("edit controls missing for admin")
	}
	rr := f.do(t, http.MethodPost, "/admin/logout", "", session)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout status=%d", rr.Code)
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

func TestAttendanceSaveKeepsUnusedSlots(t *testing.T) {
	// Fevereiro 2026 has four Saturdays; S5 is stored but unused.
	seed := []core.AttendanceRecord{
		{Month: 2, Discipler: "D1", Type: core.Cell, Slots: [core.SlotsPerMonth]core.Slot{4: {Members: 9}}},
		{Month: 2, Discipler: "D1", Type: core.YouthService},
	}
	f := newFixture(t, memory.NewFromTables(nil, ledger.EncodeAttendance(seed)))
	session := f.login(t)

	body := `[
		{"discipler":"D1","type":"Célula","slots":[{"members":5,"active":1,"visitors":2},{},{},{}]},
		{"discipler":"D1","type":"Culto de Jovens","slots":[{},{"members":3},{},{}]}
	]`
	rr := f.do(t, http.MethodPost, "/api/attendance?month=Fevereiro&discipler=D1", body, session)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}

	var rows []core.AttendanceRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Slots[0].Total() != 8 || rows[0].Slots[4].Members != 9 {
		t.Errorf("cell row = %+v", rows[0].Slots)
	}

	var ov core.AttendanceOverview
	rr = f.do(t, http.MethodGet, "/api/attendance/overview?month=2&discipler=D1", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &ov); err != nil {
		t.Fatal(err)
	}
	if got := ov.Totals[core.Cell]; got.Members != 5 || got.Visitors != 2 {
		t.Errorf("cell totals = %+v", got)
	}
	if len(ov.Saturdays) != 4 {
		t.Errorf("saturdays = %v", ov.Saturdays)
	}

	if rr := f.do(t, http.MethodGet, "/api/attendance?month=2&type=Bogus", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad type status=%d", rr.Code)
	}
}

func TestDegradedLedgerIsReadOnly(t *testing.T) {
	broken := [][]string{ledger.TitheHeader(), {"Janeiro", "L1", "abc", "Sim"}}
	f := newFixture(t, memory.NewFromTables(broken, nil))
	session := f.login(t)

	rr := f.do(t, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"tithes"`) {
		t.Errorf("readyz does not name the ledger: %s", rr.Body.String())
	}
	if !strings.Contains(f.do(t, http.MethodGet, "/", "").Body.String(), "Somente leitura") {
		t.Error("dashboard does not warn about read-only mode")
	}

	rr = f.do(t, http.MethodPost, "/api/leaders", `{"name":"Novo"}`, session)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("add leader on degraded ledger status=%d", rr.Code)
	}
	if got := f.store.Table(ledger.Tithes); len(got) != 2 || got[1][2] != "abc" {
		t.Errorf("broken table was overwritten: %v", got)
	}
}

func TestExports(t *testing.T) {
	f := newFixture(t, memory.New())

	rr := f.do(t, http.MethodGet, "/export/ledgers.xlsx", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("xlsx status=%d type=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rr.Body.String(), "PK") {
		t.Error("xlsx body is not a zip archive")
	}

	rr = f.do(t, http.MethodGet, "/export/tithes.pdf?month=Janeiro", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("pdf status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "dizimos-01-2026.pdf") {
		t.Errorf("disposition = %q", rr.Header().Get("Content-Disposition"))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, memory.New())
	f.do(t, http.MethodGet, "/api/tithes/overview", "")
	f.do(t, http.MethodGet, "/.env", "")

	rr := f.do(t, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`igreja_http_requests_total{method="GET",route="GET /api/tithes/overview",status="200"}`, "igreja_view_cache_lookups_total", "igreja_suspicious_requests_total 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestTrustedProxiesOption(t *testing.T) {
	srv := NewServer(Options{TrustedProxies: []string{"100.64.0.0/10", "bogus"}})
	defer srv.Shutdown(context.Background())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "100.64.1.2:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	if got := srv.detector.ExtractClientIP(r); got != "198.51.100.7" {
		t.Errorf("client ip = %q, want forwarded client", got)
	}
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	f := newFixture(t, memory.New())
	rr := f.do(t, http.MethodGet, "/api/tithes?month=13", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.RequestID == "" || body.RequestID != rr.Header().Get("X-Request-ID") {
		t.Errorf("request_id = %q, header = %q", body.RequestID, rr.Header().Get("X-Request-ID"))
	}
}

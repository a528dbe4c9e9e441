package tenantsession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// fakeSource simula el estado de sesión del identity provider.
type fakeSource struct {
	hasSession bool
	token      string
	cookie     *http.Cookie
}

func (f *fakeSource) HasSession(ctx context.Context) bool { return f.hasSession }
func (f *fakeSource) Token(ctx context.Context) (string, error) {
	return f.token, nil
}
func (f *fakeSource) SessionCookie(ctx context.Context) (*http.Cookie, error) {
	return f.cookie, nil
}

// testServer arma un servidor con estado mutable de tenants + switch.
type testServer struct {
	mu           sync.Mutex
	active       string
	fetchCount   int32
	switchCount  int32
	blockSwitch  chan struct{} // si no es nil, el switch espera acá
	blockFetch   chan struct{} // si no es nil, el fetch de tenants espera acá
	failSwitch   int           // status a devolver en switch (0 = ok)
	requireSID   bool
	lastSwitchTo string
}

func (s *testServer) setFailSwitch(code int) {
	s.mu.Lock()
	s.failSwitch = code
	s.mu.Unlock()
}

func (s *testServer) setBlockFetch(ch chan struct{}) {
	s.mu.Lock()
	s.blockFetch = ch
	s.mu.Unlock()
}

func (s *testServer) setBlockSwitch(ch chan struct{}) {
	s.mu.Lock()
	s.blockSwitch = ch
	s.mu.Unlock()
}

func (s *testServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tenants", func(w http.ResponseWriter, r *http.Request) {
		if s.requireSID {
			if _, err := r.Cookie("sid"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}
		atomic.AddInt32(&s.fetchCount, 1)
		s.mu.Lock()
		gate := s.blockFetch
		s.mu.Unlock()
		if gate != nil {
			<-gate
		}
		s.mu.Lock()
		active := s.active
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"memberships": []map[string]any{
				{"tenant_id": "t1", "role": "admin", "display_name": "Acme", "is_primary": true},
				{"tenant_id": "t2", "role": "member", "display_name": "Globex", "is_primary": false},
			},
			"active_tenant_id": active,
		})
	})
	mux.HandleFunc("/v1/tenants/switch", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.switchCount, 1)
		s.mu.Lock()
		gate, fail := s.blockSwitch, s.failSwitch
		s.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if fail != 0 {
			w.WriteHeader(fail)
			return
		}
		var req struct {
			TenantID string `json:"tenant_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.active = req.TenantID
		s.lastSwitchTo = req.TenantID
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"tenant_id": req.TenantID, "tenant_name": "x", "role": "member",
		})
	})
	return mux
}

func newTestManager(t *testing.T, baseURL string, src SessionSource, clk clock.Clock) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		BaseURL:    baseURL,
		Source:     src,
		CookieName: "sid",
		Clock:      clk,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

// waitFor espera hasta que cond sea true o vence el deadline.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout esperando: %s", msg)
}

func TestBootstrap_FiresOnce(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)

	m.Bootstrap(context.Background())
	// Eventos de sign-in redundantes del provider: no refetchean.
	m.OnSignedIn(context.Background())
	m.OnSignedIn(context.Background())

	if n := atomic.LoadInt32(&srv.fetchCount); n != 1 {
		t.Fatalf("el fetch inicial debería disparar una sola vez, count=%d", n)
	}
	st := m.Snapshot()
	if st.ActiveTenantID != "t1" || len(st.Memberships) != 2 {
		t.Fatalf("snapshot = %+v", st)
	}
	if at := st.ActiveTenant(); at == nil || at.DisplayName != "Acme" {
		t.Fatalf("active tenant = %+v", at)
	}
}

func TestBootstrap_NoSessionWaitsForSignIn(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	src := &fakeSource{hasSession: false, token: "tok"}
	m := newTestManager(t, ts.URL, src, nil)

	m.Bootstrap(context.Background())
	if n := atomic.LoadInt32(&srv.fetchCount); n != 0 {
		t.Fatalf("sin sesión no debería fetchear, count=%d", n)
	}

	m.OnSignedIn(context.Background())
	if n := atomic.LoadInt32(&srv.fetchCount); n != 1 {
		t.Fatalf("el sign-in debería disparar el fetch, count=%d", n)
	}
}

// La cookie de sesión se re-hidrata desde el provider cuando el jar está
// vacío (carrera post-login).
func TestCookieRehydration(t *testing.T) {
	srv := &testServer{active: "t1", requireSID: true}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	src := &fakeSource{
		hasSession: true,
		token:      "tok",
		cookie:     &http.Cookie{Name: "sid", Value: "session-abc"},
	}
	m := newTestManager(t, ts.URL, src, nil)

	m.Bootstrap(context.Background())
	st := m.Snapshot()
	if st.LoadError != nil {
		t.Fatalf("el fetch con cookie re-hidratada debería pasar: %v", st.LoadError)
	}
	if st.ActiveTenantID != "t1" {
		t.Fatalf("snapshot = %+v", st)
	}
}

// Switch al tenant ya activo: no-op total, sin red y sin flush de cache.
func TestSwitch_NoOpOnActiveTenant(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())

	m.TenantCache().SetDefault("dato-t1", "valioso")

	if err := m.Switch(context.Background(), "t1"); err != nil {
		t.Fatalf("Switch no-op: %v", err)
	}
	if n := atomic.LoadInt32(&srv.switchCount); n != 0 {
		t.Fatalf("no-op no debería tocar la red, count=%d", n)
	}
	if _, ok := m.TenantCache().Get("dato-t1"); !ok {
		t.Fatal("no-op no debería invalidar el cache")
	}
}

// Update optimista: el tenant destino se muestra antes de que el servidor
// confirme, y el cache tenant-scoped se invalida ya mismo.
func TestSwitch_OptimisticUpdate(t *testing.T) {
	srv := &testServer{active: "t1", blockSwitch: make(chan struct{})}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())
	m.TenantCache().SetDefault("dato-t1", "viejo")

	done := make(chan error, 1)
	go func() { done <- m.Switch(context.Background(), "t2") }()

	// Con el request todavía bloqueado, la UI ya muestra t2 y no Switching.
	waitFor(t, func() bool {
		st := m.Snapshot()
		return st.ActiveTenantID == "t2" && !st.IsSwitching()
	}, "estado optimista visible")

	if _, ok := m.TenantCache().Get("dato-t1"); ok {
		t.Fatal("el cache del tenant anterior debería invalidarse con el update optimista")
	}

	close(srv.blockSwitch)
	if err := <-done; err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if st := m.Snapshot(); st.ActiveTenantID != "t2" || st.LoadError != nil {
		t.Fatalf("snapshot final = %+v", st)
	}
}

// Doble click: el segundo switch se ignora mientras el primero está en vuelo.
func TestSwitch_SingleFlight(t *testing.T) {
	srv := &testServer{active: "t1", blockSwitch: make(chan struct{})}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Switch(context.Background(), "t2") }()
	waitFor(t, func() bool { return m.Snapshot().ActiveTenantID == "t2" }, "primer switch en vuelo")

	// Segundo click (mismo u otro tenant): ignorado en silencio.
	if err := m.Switch(context.Background(), "t1"); err != nil {
		t.Fatalf("segundo switch debería ignorarse sin error: %v", err)
	}

	close(srv.blockSwitch)
	if err := <-done; err != nil {
		t.Fatalf("Switch: %v", err)
	}

	if n := atomic.LoadInt32(&srv.switchCount); n != 1 {
		t.Fatalf("el puntero debería escribirse una sola vez, count=%d", n)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.lastSwitchTo != "t2" {
		t.Fatalf("el switch aplicado debería ser el primero: %s", srv.lastSwitchTo)
	}
}

// Rechazo del servidor: rollback obligatorio al tenant anterior + LoadError.
func TestSwitch_RollbackOnForbidden(t *testing.T) {
	srv := &testServer{active: "t1", failSwitch: http.StatusForbidden}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())
	m.TenantCache().SetDefault("dato", "x")

	err := m.Switch(context.Background(), "t2")
	if !errors.Is(err, ErrSwitchForbidden) {
		t.Fatalf("err = %v", err)
	}

	st := m.Snapshot()
	if st.ActiveTenantID != "t1" {
		t.Fatalf("debería revertir a t1, quedó %s", st.ActiveTenantID)
	}
	if st.LoadError == nil {
		t.Fatal("LoadError debería quedar seteado tras el rollback")
	}
	if _, ok := m.TenantCache().Get("dato"); ok {
		t.Fatal("nada optimista debería sobrevivir en el cache")
	}
}

// Red caída: lo optimista se muestra, el fallo revierte y queda el error.
func TestSwitch_RollbackOnNetworkFailure(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())

	ts.Close() // offline a partir de acá

	err := m.Switch(context.Background(), "t2")
	if err == nil {
		t.Fatal("switch offline debería fallar")
	}

	st := m.Snapshot()
	if st.ActiveTenantID != "t1" {
		t.Fatalf("debería revertir a t1, quedó %s", st.ActiveTenantID)
	}
	if st.LoadError == nil {
		t.Fatal("LoadError debería quedar seteado")
	}
}

// Refresh reconcilia sin pasar por Loading y un refresh fallido no pisa
// el snapshot que ya había.
func TestRefresh_NonBlocking(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())

	// El servidor cambió el puntero por otro lado (otro dispositivo).
	srv.mu.Lock()
	srv.active = "t2"
	srv.mu.Unlock()

	m.Refresh(context.Background())
	st := m.Snapshot()
	if st.ActiveTenantID != "t2" {
		t.Fatalf("refresh no reconcilió: %+v", st)
	}
	if st.IsLoading() {
		t.Fatal("refresh jamás muestra Loading")
	}

	ts.Close()
	m.Refresh(context.Background())
	if got := m.Snapshot(); got.ActiveTenantID != "t2" {
		t.Fatalf("un refresh fallido no debería pisar el snapshot: %+v", got)
	}
}

// El flush del cache tenant-scoped ocurre antes de publicar el snapshot
// optimista: ningún observer puede ver el tenant destino con entradas del
// tenant anterior, ni por un instante.
func TestSwitch_CacheFlushPrecedesSnapshotPublish(t *testing.T) {
	srv := &testServer{active: "t1", blockSwitch: make(chan struct{})}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	type sample struct {
		tenant string
		items  int
	}
	var (
		obsMu sync.Mutex
		seen  []sample
		m     *Manager
	)
	m, err := NewManager(Options{
		BaseURL:    ts.URL,
		Source:     &fakeSource{hasSession: true, token: "tok"},
		CookieName: "sid",
		OnChange: func(st State) {
			obsMu.Lock()
			seen = append(seen, sample{tenant: st.ActiveTenantID, items: m.TenantCache().ItemCount()})
			obsMu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	m.Bootstrap(context.Background())
	m.TenantCache().SetDefault("dato-t1", "viejo")

	done := make(chan error, 1)
	go func() { done <- m.Switch(context.Background(), "t2") }()
	waitFor(t, func() bool { return m.Snapshot().ActiveTenantID == "t2" }, "estado optimista visible")

	close(srv.blockSwitch)
	if err := <-done; err != nil {
		t.Fatalf("Switch: %v", err)
	}

	// Los callbacks corren en goroutine; esperar a que llegue alguno con t2.
	waitFor(t, func() bool {
		obsMu.Lock()
		defer obsMu.Unlock()
		for _, s := range seen {
			if s.tenant == "t2" {
				return true
			}
		}
		return false
	}, "snapshot con t2 publicado")

	obsMu.Lock()
	defer obsMu.Unlock()
	for _, s := range seen {
		if s.tenant == "t2" && s.items != 0 {
			t.Fatalf("snapshot con t2 activo publicado con %d entradas del tenant anterior", s.items)
		}
	}
}

// Un switch nuevo lanzado mientras la reconciliación del rollback anterior
// sigue en vuelo no debe ser pisado por esa respuesta vieja.
func TestSwitch_RollbackRefetchYieldsToNewSwitch(t *testing.T) {
	srv := &testServer{active: "t1"}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, nil)
	m.Bootstrap(context.Background())

	// Primer switch: rechazado; su re-fetch de reconciliación queda colgado.
	fetchGate := make(chan struct{})
	srv.setFailSwitch(http.StatusForbidden)
	srv.setBlockFetch(fetchGate)

	firstDone := make(chan error, 1)
	go func() { firstDone <- m.Switch(context.Background(), "t2") }()
	waitFor(t, func() bool { return atomic.LoadInt32(&srv.fetchCount) >= 2 }, "re-fetch del rollback en vuelo")

	// Segundo switch: válido, con la confirmación también colgada para que
	// siga en vuelo cuando la reconciliación vieja responda.
	switchGate := make(chan struct{})
	srv.setFailSwitch(0)
	srv.setBlockSwitch(switchGate)

	secondDone := make(chan error, 1)
	go func() { secondDone <- m.Switch(context.Background(), "t2") }()
	waitFor(t, func() bool {
		st := m.Snapshot()
		return st.ActiveTenantID == "t2" && st.LoadError == nil
	}, "estado optimista del segundo switch")

	// La reconciliación vieja responde con t1: no debe pisar el optimista.
	srv.setBlockFetch(nil)
	close(fetchGate)
	if err := <-firstDone; !errors.Is(err, ErrSwitchForbidden) {
		t.Fatalf("primer switch: %v", err)
	}
	if st := m.Snapshot(); st.ActiveTenantID != "t2" {
		t.Fatalf("la respuesta vieja pisó el switch en vuelo: %+v", st)
	}

	close(switchGate)
	if err := <-secondDone; err != nil {
		t.Fatalf("segundo switch: %v", err)
	}
	if st := m.Snapshot(); st.ActiveTenantID != "t2" || st.LoadError != nil {
		t.Fatalf("snapshot final = %+v", st)
	}
}

// Backstop: aunque el fetch inicial se cuelgue, la UI sale de Loading.
func TestBootstrap_BackstopForcesExit(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tenants", func(w http.ResponseWriter, r *http.Request) {
		<-release // colgado hasta el final del test
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	// Registrado después de ts.Close para que corra antes: el handler debe
	// desbloquearse antes de que Close espere las conexiones en vuelo.
	defer close(release)

	mock := clock.NewMock()
	m := newTestManager(t, ts.URL, &fakeSource{hasSession: true, token: "tok"}, mock)

	go m.Bootstrap(context.Background())
	waitFor(t, func() bool { return m.Snapshot().IsLoading() }, "entrar a Loading")

	// 10s virtuales: dispara el timeout del fetch (8s) y el backstop (10s).
	mock.Add(defaultBackstop)

	waitFor(t, func() bool { return !m.Snapshot().IsLoading() }, "salir de Loading por backstop")
}

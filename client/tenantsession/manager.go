package tenantsession

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/tenantcore/internal/httpx/dto"
)

const (
	// defaultFetchTimeout acota cada fetch individual contra el servidor.
	defaultFetchTimeout = 8 * time.Second
	// defaultBackstop fuerza la salida del estado Loading pase lo que pase:
	// preferimos mostrar estado posiblemente viejo antes que colgar la UI.
	defaultBackstop = 10 * time.Second
)

// ErrNoTenant se retorna si Switch recibe un tenant vacío.
var ErrNoTenant = errors.New("tenantsession: tenant vacío")

// Options configura el Manager. BaseURL y Source son obligatorios.
type Options struct {
	BaseURL string
	Source  SessionSource

	// HTTPClient opcional; el Manager le agrega un cookie jar si no tiene.
	HTTPClient *http.Client
	// CookieName es la cookie de sesión a re-hidratar desde Source.
	CookieName string
	// OnChange se invoca (sin locks tomados) con cada snapshot nuevo.
	OnChange func(State)

	FetchTimeout time.Duration
	Backstop     time.Duration

	// Clock inyectable para tests; nil usa el reloj real.
	Clock clock.Clock
}

// Manager coordina bootstrap, switch y refresh sobre un único snapshot.
type Manager struct {
	api   *apiClient
	clk   clock.Clock
	cache *gocache.Cache

	fetchTimeout time.Duration
	backstop     time.Duration
	onChange     func(State)

	mu       sync.Mutex
	st       State
	booted   bool // guard del fetch inicial: a lo sumo uno
	inFlight bool // single-flight del switch
}

// NewManager arma el Manager. No toca la red: eso es Bootstrap/OnSignedIn.
func NewManager(opts Options) (*Manager, error) {
	api, err := newAPIClient(opts.BaseURL, opts.HTTPClient, opts.Source, opts.CookieName)
	if err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	ft := opts.FetchTimeout
	if ft <= 0 {
		ft = defaultFetchTimeout
	}
	bs := opts.Backstop
	if bs <= 0 {
		bs = defaultBackstop
	}
	return &Manager{
		api:          api,
		clk:          clk,
		cache:        gocache.New(5*time.Minute, 10*time.Minute),
		fetchTimeout: ft,
		backstop:     bs,
		onChange:     opts.OnChange,
		st:           State{Phase: PhaseIdle},
	}, nil
}

// TenantCache es el cache de datos tenant-scoped que el Manager invalida
// en cada switch. El código de aplicación guarda acá todo lo que dependa
// del tenant activo; nunca debe sobrevivir un cambio de tenant.
func (m *Manager) TenantCache() *gocache.Cache { return m.cache }

// Snapshot retorna una copia del estado visible.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

// ===========================================================================
// Bootstrap
// ===========================================================================

// Bootstrap dispara el fetch inicial si ya hay sesión durable. Si no la hay,
// no hace nada: el fetch queda a cargo del evento de sign-in.
func (m *Manager) Bootstrap(ctx context.Context) {
	if m.api.source == nil || !m.api.source.HasSession(ctx) {
		return
	}
	m.bootOnce(ctx)
}

// OnSignedIn es el handler para el evento de sign-in del provider. El guard
// interno garantiza que el fetch inicial dispare a lo sumo una vez aunque el
// provider emita el evento varias veces o Bootstrap ya lo haya hecho.
func (m *Manager) OnSignedIn(ctx context.Context) {
	m.bootOnce(ctx)
}

func (m *Manager) bootOnce(ctx context.Context) {
	m.mu.Lock()
	if m.booted {
		m.mu.Unlock()
		return
	}
	m.booted = true
	m.st.Phase = PhaseLoading
	m.notifyLocked()
	m.mu.Unlock()

	// Backstop: si el fetch se cuelga más allá de su propio timeout, esto
	// saca a la UI del spinner igual.
	bt := m.clk.AfterFunc(m.backstop, m.forceExitLoading)
	defer bt.Stop()

	resp, err := m.fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Phase != PhaseLoading {
		// El backstop ya nos sacó; no pisamos ese estado, pero si el fetch
		// llegó tarde y bien, los datos siguen sirviendo.
		if err == nil {
			m.applyLocked(resp)
		}
		return
	}
	if err != nil {
		m.st.Phase = PhaseError
		m.st.LoadError = err
		m.notifyLocked()
		return
	}
	m.applyLocked(resp)
}

// forceExitLoading corre desde el timer del backstop.
func (m *Manager) forceExitLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st.Phase != PhaseLoading {
		return
	}
	m.st.Phase = PhaseIdle
	m.notifyLocked()
}

// ===========================================================================
// Switch coordinator
// ===========================================================================

// Switch mueve el tenant activo.
//
//   - Tenant ya activo: no-op total, sin red y sin invalidar caches.
//   - Switch en vuelo: se ignora en silencio hasta que el primero termine.
//   - Camino feliz: update optimista + flush inmediato del cache tenant-scoped,
//     confirmación contra el servidor, refresh de reconciliación en background.
//   - Rechazo o fallo de red: rollback al tenant anterior, LoadError seteado y
//     re-fetch sincrónico del estado verdadero. Lo optimista nunca queda.
func (m *Manager) Switch(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrNoTenant
	}

	m.mu.Lock()
	if m.st.ActiveTenantID == tenantID {
		m.mu.Unlock()
		return nil
	}
	if m.inFlight {
		m.mu.Unlock()
		return nil
	}
	m.inFlight = true
	prev := m.st.ActiveTenantID

	// El cache tenant-scoped se vacía ANTES de publicar el snapshot nuevo:
	// ningún consumidor puede observar el tenant destino junto con datos
	// cacheados del anterior, ni por un instante.
	m.cache.Flush()

	// Update optimista: la UI muestra el destino ya mismo. Salimos de
	// Switching sin esperar al servidor para no bloquear interacción.
	m.st.Phase = PhaseSwitching
	m.st.ActiveTenantID = tenantID
	m.notifyLocked()
	m.st.Phase = PhaseIdle
	m.st.LoadError = nil
	m.notifyLocked()
	m.mu.Unlock()

	resp, err := m.confirmSwitch(ctx, tenantID)

	m.mu.Lock()
	m.inFlight = false
	if err != nil {
		// Rollback obligatorio. El flush va de nuevo antes del publish:
		// lo que la app haya cacheado durante el switch es del tenant
		// destino y no puede quedar visible bajo el anterior.
		m.st.ActiveTenantID = prev
		m.st.Phase = PhaseError
		m.st.LoadError = err
		m.cache.Flush()
		m.notifyLocked()
		m.mu.Unlock()
		// Re-fetch sincrónico del estado verdadero del servidor. A
		// diferencia de Refresh, acá se preserva el error del switch para
		// que la UI pueda mostrarlo aunque la reconciliación ande bien.
		if fr, ferr := m.fetch(ctx); ferr == nil {
			m.mu.Lock()
			// Mismo guard que Refresh: si entró otro switch mientras
			// reconciliábamos, su update optimista manda.
			if !m.inFlight {
				m.st.Memberships = membershipsFrom(fr.resp)
				m.st.ActiveTenantID = fr.resp.ActiveTenantID
				m.notifyLocked()
			}
			m.mu.Unlock()
		}
		return err
	}
	m.st.ActiveTenantID = resp.TenantID
	m.st.Phase = PhaseIdle
	m.st.LoadError = nil
	m.notifyLocked()
	m.mu.Unlock()

	go m.Refresh(context.Background())
	return nil
}

func (m *Manager) confirmSwitch(ctx context.Context, tenantID string) (resp *switchResult, err error) {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t := m.clk.AfterFunc(m.fetchTimeout, cancel)
	defer t.Stop()

	out, err := m.api.postSwitch(fctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &switchResult{TenantID: out.TenantID}, nil
}

type switchResult struct {
	TenantID string
}

// ===========================================================================
// Background refresher
// ===========================================================================

// Refresh reconcilia contra el servidor sin tocar el estado Loading: un
// refresh nunca vuelve a mostrar el spinner inicial. Si falla, el snapshot
// que ya había queda intacto.
func (m *Manager) Refresh(ctx context.Context) {
	resp, err := m.fetch(ctx)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		// Hay un switch optimista en vuelo; su resolución pisa esto.
		return
	}
	m.applyLocked(resp)
}

func (m *Manager) fetch(ctx context.Context) (*fetchResult, error) {
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t := m.clk.AfterFunc(m.fetchTimeout, cancel)
	defer t.Stop()

	out, err := m.api.fetchTenants(fctx)
	if err != nil {
		return nil, err
	}
	return &fetchResult{resp: out}, nil
}

type fetchResult struct {
	resp *dto.TenantsResponse
}

func (m *Manager) applyLocked(fr *fetchResult) {
	m.st.Memberships = membershipsFrom(fr.resp)
	m.st.ActiveTenantID = fr.resp.ActiveTenantID
	m.st.Phase = PhaseIdle
	m.st.LoadError = nil
	m.notifyLocked()
}

// notifyLocked publica el snapshot actual. Se llama con m.mu tomado; el
// callback recibe una copia y corre en goroutine para no deadlockear si
// vuelve a llamar al Manager.
func (m *Manager) notifyLocked() {
	if m.onChange == nil {
		return
	}
	snap := m.st.clone()
	go m.onChange(snap)
}

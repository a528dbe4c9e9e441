// Package memory implementa repository.Store en memoria.
// Mismo contrato que el adapter pg, pensado para desarrollo y tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
)

// Store guarda todo bajo un solo mutex. La atomicidad de SetActiveTenant
// sale gratis: el lock serializa los writes por proceso.
type Store struct {
	mu          sync.RWMutex
	profiles    map[string]*repository.Profile
	tenants     map[string]*repository.Tenant
	memberships map[string]map[string]membershipRow // userID -> tenantID -> row
}

type membershipRow struct {
	rawRole     string
	displayName string
	isPrimary   bool
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		profiles:    make(map[string]*repository.Profile),
		tenants:     make(map[string]*repository.Tenant),
		memberships: make(map[string]map[string]membershipRow),
	}
}

func (s *Store) Profiles() repository.ProfileRepository { return (*profileRepo)(s) }
func (s *Store) Tenants() repository.TenantRepository   { return (*tenantRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// ─── Seeding (dev/tests) ───

// UpsertTenant registra un tenant.
func (s *Store) UpsertTenant(id, name, slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[id] = &repository.Tenant{ID: id, Name: name, Slug: slug}
}

// UpsertProfile registra un perfil. activeTenantID puede ser vacío (puntero nulo).
// rawRole se guarda tal cual, sin normalizar: el store es dueño de datos
// potencialmente sucios, igual que una DB real.
func (s *Store) UpsertProfile(userID, activeTenantID, rawRole string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prof := &repository.Profile{
		UserID:    userID,
		RawRole:   rawRole,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if activeTenantID != "" {
		prof.ActiveTenantID = &activeTenantID
	}
	s.profiles[userID] = prof
}

// UpsertMembership registra una membership con rol crudo.
func (s *Store) UpsertMembership(userID, tenantID, rawRole, displayName string, isPrimary bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberships[userID] == nil {
		s.memberships[userID] = make(map[string]membershipRow)
	}
	s.memberships[userID][tenantID] = membershipRow{
		rawRole:     rawRole,
		displayName: displayName,
		isPrimary:   isPrimary,
	}
}

// ─── ProfileRepository ───

type profileRepo Store

func (r *profileRepo) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prof, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *prof
	if prof.ActiveTenantID != nil {
		tid := *prof.ActiveTenantID
		cp.ActiveTenantID = &tid
	}
	return &cp, nil
}

func (r *profileRepo) SetActiveTenant(ctx context.Context, userID, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mismo orden de desambiguación que el adapter pg.
	if _, ok := r.tenants[tenantID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.memberships[userID][tenantID]; !ok {
		return repository.ErrAccessDenied
	}
	prof, ok := r.profiles[userID]
	if !ok {
		return repository.ErrAccessDenied
	}

	tid := tenantID
	prof.ActiveTenantID = &tid
	prof.UpdatedAt = time.Now()
	return nil
}

// ─── TenantRepository ───

type tenantRepo Store

func (r *tenantRepo) GetTenant(ctx context.Context, tenantID string) (*repository.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ten, ok := r.tenants[tenantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ten
	return &cp, nil
}

func (r *tenantRepo) ListMemberships(ctx context.Context, userID string) ([]types.TenantMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.TenantMembership
	for tid, row := range r.memberships[userID] {
		name := row.displayName
		if ten, ok := r.tenants[tid]; ok && name == "" {
			name = ten.Name
		}
		out = append(out, types.TenantMembership{
			TenantID:    tid,
			Role:        types.NormalizeRole(row.rawRole),
			DisplayName: name,
			IsPrimary:   row.isPrimary,
		})
	}
	return out, nil
}

func (r *tenantRepo) GetMembership(ctx context.Context, userID, tenantID string) (*types.TenantMembership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.memberships[userID][tenantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	name := row.displayName
	if ten, ok := r.tenants[tenantID]; ok && name == "" {
		name = ten.Name
	}
	return &types.TenantMembership{
		TenantID:    tenantID,
		Role:        types.NormalizeRole(row.rawRole),
		DisplayName: name,
		IsPrimary:   row.isPrimary,
	}, nil
}

package permissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/tenantcore/internal/cache"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/domain/types"
)

// slowProfiles simula el camino primario con latencia y error configurables.
type slowProfiles struct {
	profile *repository.Profile
	err     error
	delay   time.Duration
	calls   int
}

func (f *slowProfiles) GetProfile(ctx context.Context, userID string) (*repository.Profile, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *slowProfiles) SetActiveTenant(ctx context.Context, userID, tenantID string) error {
	return nil
}

type slowTenants struct {
	membership *types.TenantMembership
	err        error
	delay      time.Duration
}

func (f *slowTenants) GetTenant(ctx context.Context, tenantID string) (*repository.Tenant, error) {
	return nil, repository.ErrNotFound
}

func (f *slowTenants) ListMemberships(ctx context.Context, userID string) ([]types.TenantMembership, error) {
	return nil, nil
}

func (f *slowTenants) GetMembership(ctx context.Context, userID, tenantID string) (*types.TenantMembership, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.membership, nil
}

func TestEvaluate_PrimaryWins(t *testing.T) {
	e := New(
		&slowProfiles{profile: &repository.Profile{UserID: "u1", RawRole: "admin"}},
		&slowTenants{membership: &types.TenantMembership{TenantID: "t1", Role: types.RoleMember}},
		nil, time.Second, 0,
	)
	d := e.Evaluate(context.Background(), "u1", "t1")
	if d.Role != types.RoleAdmin || d.Source != SourceProfile {
		t.Fatalf("decision = %+v", d)
	}
}

// Primario sin rol usable → fallback a la membership.
func TestEvaluate_FallbackOnEmptyPrimary(t *testing.T) {
	e := New(
		&slowProfiles{profile: &repository.Profile{UserID: "u1", RawRole: "   "}},
		&slowTenants{membership: &types.TenantMembership{TenantID: "t1", Role: types.RoleMember}},
		nil, time.Second, 0,
	)
	d := e.Evaluate(context.Background(), "u1", "t1")
	if d.Role != types.RoleMember || d.Source != SourceMembership {
		t.Fatalf("decision = %+v", d)
	}
}

func TestEvaluate_FallbackOnPrimaryError(t *testing.T) {
	e := New(
		&slowProfiles{err: errors.New("replica caída")},
		&slowTenants{membership: &types.TenantMembership{TenantID: "t1", Role: types.RoleOwner}},
		nil, time.Second, 0,
	)
	d := e.Evaluate(context.Background(), "u1", "t1")
	if d.Role != types.RoleOwner || d.Source != SourceMembership {
		t.Fatalf("decision = %+v", d)
	}
}

// Fallo total: mínimo privilegio + unknown. Jamás el rol más alto.
func TestEvaluate_TotalFailureMinPrivilege(t *testing.T) {
	e := New(
		&slowProfiles{err: errors.New("x")},
		&slowTenants{err: errors.New("y")},
		nil, time.Second, 0,
	)
	d := e.Evaluate(context.Background(), "u1", "t1")
	if d.Role != types.RoleViewer || d.Source != SourceUnknown {
		t.Fatalf("fallo total debería dar (viewer, unknown), got %+v", d)
	}
}

// Timeout con ambos caminos colgados: (viewer, unknown) dentro del deadline.
func TestEvaluate_Timeout(t *testing.T) {
	e := New(
		&slowProfiles{delay: time.Second, profile: &repository.Profile{RawRole: "owner"}},
		&slowTenants{delay: time.Second, membership: &types.TenantMembership{Role: types.RoleOwner}},
		nil, 30*time.Millisecond, 0,
	)

	start := time.Now()
	d := e.Evaluate(context.Background(), "u1", "t1")
	elapsed := time.Since(start)

	if d.Role != types.RoleViewer || d.Source != SourceUnknown {
		t.Fatalf("timeout debería dar (viewer, unknown), got %+v", d)
	}
	if elapsed > 500*time.Millisecond {
		t.Fatalf("el evaluate no respetó el deadline: %v", elapsed)
	}
}

// Las decisiones resueltas se cachean; unknown nunca.
func TestEvaluate_CacheBehavior(t *testing.T) {
	c := cache.NewMemory("test")
	profiles := &slowProfiles{profile: &repository.Profile{UserID: "u1", RawRole: "admin"}}
	e := New(profiles, &slowTenants{err: errors.New("x")}, c, time.Second, time.Minute)

	d1 := e.Evaluate(context.Background(), "u1", "t1")
	d2 := e.Evaluate(context.Background(), "u1", "t1")
	if d1 != d2 {
		t.Fatalf("decisiones distintas: %+v vs %+v", d1, d2)
	}
	if profiles.calls != 1 {
		t.Fatalf("la segunda decisión debería salir del cache, calls=%d", profiles.calls)
	}

	// unknown no se cachea: cada consulta reintenta.
	failing := &slowProfiles{err: errors.New("x")}
	e2 := New(failing, &slowTenants{err: errors.New("y")}, c, time.Second, time.Minute)
	_ = e2.Evaluate(context.Background(), "u2", "t1")
	_ = e2.Evaluate(context.Background(), "u2", "t1")
	if failing.calls != 2 {
		t.Fatalf("unknown no debería cachearse, calls=%d", failing.calls)
	}
}

package tenantsession

import "github.com/dropDatabas3/tenantcore/internal/domain/types"

// Phase es el estado nombrado de la máquina del coordinator.
// Modelarlo explícito (y no como booleans sueltos) hace imposible olvidar
// el camino de rollback: toda transición sale de una tabla chica.
type Phase string

const (
	// PhaseIdle: sin operación en curso.
	PhaseIdle Phase = "idle"
	// PhaseLoading: fetch inicial de memberships en curso (visible en UI).
	PhaseLoading Phase = "loading"
	// PhaseSwitching: hay un switch aplicándose de forma optimista.
	PhaseSwitching Phase = "switching"
	// PhaseError: el último switch/fetch falló; LoadError tiene el detalle.
	PhaseError Phase = "error"
)

// State es el snapshot que consume la UI: derivado, nunca fuente de verdad.
type State struct {
	Phase          Phase
	ActiveTenantID string
	Memberships    []types.TenantMembership
	LoadError      error
}

// IsLoading replica el flag clásico de UI.
func (s State) IsLoading() bool { return s.Phase == PhaseLoading }

// IsSwitching indica que un switch optimista está aplicándose.
func (s State) IsSwitching() bool { return s.Phase == PhaseSwitching }

// ActiveTenant busca la membership del tenant activo. Retorna nil si no hay
// tenant activo o si la lista todavía no incluye al tenant apuntado.
func (s State) ActiveTenant() *types.TenantMembership {
	if s.ActiveTenantID == "" {
		return nil
	}
	for i := range s.Memberships {
		if s.Memberships[i].TenantID == s.ActiveTenantID {
			m := s.Memberships[i]
			return &m
		}
	}
	return nil
}

// clone copia el snapshot (la UI nunca ve el slice interno mutable).
func (s State) clone() State {
	cp := s
	cp.Memberships = make([]types.TenantMembership, len(s.Memberships))
	copy(cp.Memberships, s.Memberships)
	return cp
}

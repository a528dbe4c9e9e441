package tenantsession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/dropDatabas3/tenantcore/internal/domain/types"
	"github.com/dropDatabas3/tenantcore/internal/httpx/dto"
)

// Errores que la UI puede querer distinguir. Todo lo demás llega como
// error genérico de red/servidor.
var (
	// ErrUnauthorized: la sesión no es válida (token vencido, cookie ausente).
	ErrUnauthorized = errors.New("tenantsession: unauthorized")
	// ErrSwitchForbidden: el usuario no es miembro del tenant pedido.
	ErrSwitchForbidden = errors.New("tenantsession: switch forbidden")
	// ErrTenantNotFound: el tenant pedido no existe.
	ErrTenantNotFound = errors.New("tenantsession: tenant not found")
)

// SessionSource expone el estado de sesión que mantiene el identity provider.
// El SDK nunca persiste credenciales propias: las pide acá cada vez.
type SessionSource interface {
	// HasSession indica si ya hay una credencial durable guardada.
	HasSession(ctx context.Context) bool
	// Token retorna el bearer vigente para el header Authorization.
	Token(ctx context.Context) (string, error)
	// SessionCookie retorna la cookie de sesión que el provider ya tiene
	// guardada, para re-hidratar el jar cuando un request llega antes de
	// que la cookie se propague post-login. nil, nil si no hay.
	SessionCookie(ctx context.Context) (*http.Cookie, error)
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// apiClient habla el wire del servidor: /v1/tenants y /v1/tenants/switch.
type apiClient struct {
	base       *url.URL
	httpc      *http.Client
	source     SessionSource
	cookieName string
}

func newAPIClient(baseURL string, httpc *http.Client, source SessionSource, cookieName string) (*apiClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tenantsession: base URL inválida: %w", err)
	}
	if httpc == nil {
		httpc = &http.Client{}
	}
	if httpc.Jar == nil {
		jar, jerr := cookiejar.New(nil)
		if jerr != nil {
			return nil, jerr
		}
		httpc.Jar = jar
	}
	return &apiClient{base: u, httpc: httpc, source: source, cookieName: cookieName}, nil
}

// rehydrate repone la cookie de sesión en el jar si falta. Cubre la carrera
// de post-login: el provider ya tiene la sesión pero la cookie del jar
// todavía no existe cuando dispara el primer fetch.
func (c *apiClient) rehydrate(ctx context.Context) {
	if c.cookieName == "" || c.source == nil {
		return
	}
	for _, ck := range c.httpc.Jar.Cookies(c.base) {
		if ck.Name == c.cookieName {
			return
		}
	}
	ck, err := c.source.SessionCookie(ctx)
	if err != nil || ck == nil {
		return
	}
	c.httpc.Jar.SetCookies(c.base, []*http.Cookie{ck})
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	c.rehydrate(ctx)

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.source != nil {
		if tok, terr := c.source.Token(ctx); terr == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *apiClient) mapError(resp *http.Response) error {
	var ae apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&ae)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrSwitchForbidden
	case http.StatusNotFound:
		return ErrTenantNotFound
	}
	if ae.Error.Code != "" {
		return fmt.Errorf("tenantsession: %s: %s", ae.Error.Code, ae.Error.Message)
	}
	return fmt.Errorf("tenantsession: HTTP %d", resp.StatusCode)
}

// fetchTenants trae memberships + puntero activo.
func (c *apiClient) fetchTenants(ctx context.Context) (*dto.TenantsResponse, error) {
	var out dto.TenantsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tenants", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// postSwitch pide al servidor mover el puntero durable.
func (c *apiClient) postSwitch(ctx context.Context, tenantID string) (*dto.SwitchResponse, error) {
	var out dto.SwitchResponse
	req := dto.SwitchRequest{TenantID: tenantID}
	if err := c.do(ctx, http.MethodPost, "/v1/tenants/switch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// membershipsFrom convierte el wire a los tipos de dominio del snapshot.
func membershipsFrom(resp *dto.TenantsResponse) []types.TenantMembership {
	out := make([]types.TenantMembership, 0, len(resp.Memberships))
	for _, m := range resp.Memberships {
		out = append(out, types.TenantMembership{
			TenantID:    m.TenantID,
			Role:        types.NormalizeRole(m.Role),
			DisplayName: m.DisplayName,
			IsPrimary:   m.IsPrimary,
		})
	}
	return out
}

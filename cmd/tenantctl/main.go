// tenantctl: CLI para operar el core de contexto desde la terminal.
// Habla los mismos endpoints que el SDK; útil para smoke tests y soporte.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("TENANTCORE_URL", "http://localhost:8080")
		token   = envOr("TENANTCORE_TOKEN", "")
		out     = envOr("TENANTCORE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "tenantctl",
		Short: "CLI del core de contexto multi-tenant",
	}

	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servidor (env TENANTCORE_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "bearer token (env TENANTCORE_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de salida: text|json (env TENANTCORE_OUT)")

	cl := func() *client {
		return &client{
			BaseURL:   baseURL,
			Token:     token,
			OutFormat: out,
			HTTP:      &http.Client{Timeout: timeout},
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "context",
		Short: "Resuelve el contexto de auth del token actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cl()
			status, body, err := c.do(http.MethodGet, "/v1/context", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "tenants",
		Short: "Lista memberships y el tenant activo",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cl()
			status, body, err := c.do(http.MethodGet, "/v1/tenants", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "switch <tenant-id>",
		Short: "Mueve el puntero de tenant activo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cl()
			body, _ := json.Marshal(map[string]string{"tenant_id": args[0]})
			status, respBody, err := c.do(http.MethodPost, "/v1/tenants/switch", body)
			if err != nil {
				return err
			}
			c.print(status, respBody)
			if status >= 400 {
				return fmt.Errorf("switch falló con status %d", status)
			}
			return nil
		},
	})

	var permTenant string
	permCmd := &cobra.Command{
		Use:   "permissions",
		Short: "Consulta el rol advisory para un tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			if permTenant == "" {
				return fmt.Errorf("falta --tenant")
			}
			c := cl()
			status, body, err := c.do(http.MethodGet, "/v1/permissions?tenant_id="+permTenant, nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			return nil
		},
	}
	permCmd.Flags().StringVar(&permTenant, "tenant", "", "tenant a consultar")
	root.AddCommand(permCmd)

	root.AddCommand(&cobra.Command{
		Use:   "ready",
		Short: "Chequea /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cl()
			status, body, err := c.do(http.MethodGet, "/readyz", nil)
			if err != nil {
				return err
			}
			c.print(status, body)
			if status != http.StatusOK {
				return fmt.Errorf("no ready: status %d", status)
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// authgatectl es el CLI admin de authgate: habla con /v1/admin vía HTTP.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, u, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
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
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("AUTHGATE_ADMIN_URL", "http://localhost:8080")
		apiKey  = envOr("AUTHGATE_ADMIN_KEY", "")
		out     = envOr("AUTHGATE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "authgatectl",
		Short: "CLI admin para authgate (solo /v1/admin)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("falta API key (flag --admin-api-key o env AUTHGATE_ADMIN_KEY)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "admin-api-url", baseURL, "URL base del Admin API (env AUTHGATE_ADMIN_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key del Admin API (env AUTHGATE_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	httpClient := &http.Client{Timeout: timeout}
	cl := &client{BaseURL: baseURL, APIKey: apiKey, OutFormat: out, HTTP: httpClient}

	// grupo token
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Gestión de access tokens",
	}

	// token create
	var tcUserID, tcName, tcIPs string
	var tcTTLDays int
	tokenCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Emitir un access token para un usuario API (el valor se muestra UNA vez)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tcUserID == "" || tcName == "" {
				return fmt.Errorf("--user-id y --name son requeridos")
			}
			payload := map[string]any{
				"user_id": tcUserID,
				"name":    tcName,
			}
			if tcIPs != "" {
				var ips []string
				for _, p := range strings.Split(tcIPs, ",") {
					if p = strings.TrimSpace(p); p != "" {
						ips = append(ips, p)
					}
				}
				payload["allowed_ips"] = ips
			}
			if tcTTLDays > 0 {
				payload["ttl_days"] = tcTTLDays
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/admin/tokens", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("token create fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	tokenCreateCmd.Flags().StringVar(&tcUserID, "user-id", "", "ID del usuario dueño del token")
	tokenCreateCmd.Flags().StringVar(&tcName, "name", "", "Nombre descriptivo del token")
	tokenCreateCmd.Flags().StringVar(&tcIPs, "allowed-ips", "", "Allow-list de IPs/CIDRs separada por comas (opcional)")
	tokenCreateCmd.Flags().IntVar(&tcTTLDays, "ttl-days", 0, "Días hasta expirar (0 = sin expiración)")

	// token list
	var tlUserID string
	tokenListCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar los tokens de un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tlUserID == "" {
				return fmt.Errorf("--user-id es requerido")
			}
			status, body, err := cl.do("GET", "/v1/admin/tokens?user_id="+url.QueryEscape(tlUserID), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("token list fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	tokenListCmd.Flags().StringVar(&tlUserID, "user-id", "", "ID del usuario")

	// token revoke
	var trID string
	tokenRevokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revocar un token por ID (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if trID == "" {
				return fmt.Errorf("--id es requerido")
			}
			status, body, err := cl.do("DELETE", "/v1/admin/tokens/"+url.PathEscape(trID), nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("token revoke fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("revoked")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}
	tokenRevokeCmd.Flags().StringVar(&trID, "id", "", "ID del token")

	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd, tokenRevokeCmd)

	// grupo user
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Gestión de usuarios",
	}

	// user create
	var ucEmail, ucName, ucNetID, ucAuthType string
	userCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Crear un usuario (auth_type: local|sso|api)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ucEmail == "" || ucAuthType == "" {
				return fmt.Errorf("--email y --auth-type son requeridos")
			}
			payload := map[string]any{
				"email":     ucEmail,
				"name":      ucName,
				"auth_type": ucAuthType,
			}
			if ucNetID != "" {
				payload["netid"] = ucNetID
			}
			b, _ := json.Marshal(payload)
			status, body, err := cl.do("POST", "/v1/admin/users", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("user create fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	userCreateCmd.Flags().StringVar(&ucEmail, "email", "", "Email del usuario")
	userCreateCmd.Flags().StringVar(&ucName, "name", "", "Nombre completo")
	userCreateCmd.Flags().StringVar(&ucNetID, "netid", "", "NetID institucional (opcional)")
	userCreateCmd.Flags().StringVar(&ucAuthType, "auth-type", "local", "Tipo de autenticación: local|sso|api")

	userCmd.AddCommand(userCreateCmd)

	root.AddCommand(tokenCmd, userCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

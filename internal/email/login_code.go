package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// LoginCodeVars son las variables del template del código de login.
type LoginCodeVars struct {
	Code string
	TTL  string
}

var loginCodeHTML = template.Must(template.New("login_code").Parse(`<!doctype html>
<html>
<body style="font-family: sans-serif; color: #342f2e;">
  <p>Your sign-in code is:</p>
  <p style="font-size: 28px; letter-spacing: 4px; font-weight: bold;">{{.Code}}</p>
  <p>The code expires in {{.TTL}}. If you did not request it, you can ignore this message.</p>
</body>
</html>`))

// RenderLoginCode arma subject, cuerpo HTML y texto plano del correo.
func RenderLoginCode(code string, ttl time.Duration) (subject, htmlBody, textBody string, err error) {
	vars := LoginCodeVars{Code: code, TTL: formatTTL(ttl)}

	var buf bytes.Buffer
	if err := loginCodeHTML.Execute(&buf, vars); err != nil {
		return "", "", "", fmt.Errorf("render login code: %w", err)
	}

	subject = fmt.Sprintf("%s is your sign-in code", code)
	textBody = fmt.Sprintf("Your sign-in code is: %s\n\nThe code expires in %s. If you did not request it, you can ignore this message.\n", code, vars.TTL)
	return subject, buf.String(), textBody, nil
}

func formatTTL(d time.Duration) string {
	if m := int(d.Minutes()); m >= 1 {
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return fmt.Sprintf("%d seconds", int(d.Seconds()))
}

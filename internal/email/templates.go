package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// DocumentEmail is the data rendered into a quote or invoice email
type DocumentEmail struct {
	CompanyName  string
	ClientName   string
	DocumentKind string // "Quote" or "Invoice"
	Number       string
	Total        string
	DueDate      string
	Site         string
	Message      string
	BankDetails  string
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Dear {{if .ClientName}}{{.ClientName}}{{else}}client{{end}},</p>
  {{if .Message}}<p>{{.Message}}</p>{{end}}
  <p>Please find {{.DocumentKind}} <strong>{{.Number}}</strong>{{if .Site}} for {{.Site}}{{end}}.</p>
  <table cellpadding="4">
    <tr><td>Total</td><td><strong>{{.Total}}</strong></td></tr>
    {{if .DueDate}}<tr><td>Due</td><td>{{.DueDate}}</td></tr>{{end}}
  </table>
  {{if .BankDetails}}<p style="white-space: pre-line;">{{.BankDetails}}</p>{{end}}
  <p>Kind regards,<br>{{.CompanyName}}</p>
</body>
</html>`))

// RenderDocumentEmail renders the HTML body of a document email
func RenderDocumentEmail(data DocumentEmail) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// DefaultSubject is used when the caller does not provide one
func DefaultSubject(data DocumentEmail) string {
	return fmt.Sprintf("%s %s from %s", data.DocumentKind, data.Number, data.CompanyName)
}

package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/Admin-EWorld/contracts/internal/clauses"
	"github.com/Admin-EWorld/contracts/internal/currency"
	"github.com/Admin-EWorld/contracts/internal/intake"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Contract Generator</title>
<style>
body { font-family: Arial, sans-serif; max-width: 640px; margin: 40px auto; }
label { display: block; margin-top: 12px; font-weight: bold; }
input, select { width: 100%; padding: 6px; }
.services label { font-weight: normal; }
.services input { width: auto; }
button { margin-top: 20px; padding: 10px 20px; }
</style>
</head>
<body>
<h2>Professional Services Agreement Generator</h2>
<form method="post" action="/generate">
<label for="client_name">Client Name</label>
<input id="client_name" name="client_name" required>

<label for="country">Country</label>
<select id="country" name="country">
{{- range .Countries}}
  <option>{{.}}</option>
{{- end}}
</select>

<label for="duration">Contract Duration</label>
<select id="duration" name="duration">
{{- range .Durations}}
  <option{{if eq . $.DefaultDuration}} selected{{end}}>{{.}}</option>
{{- end}}
</select>

<label for="fees">Total Fees</label>
<input id="fees" name="fees" required placeholder="10,000.00">

<label for="currency">Currency</label>
<select id="currency" name="currency">
{{- range .Currencies}}
  <option value="{{.Code}}"{{if eq .Code $.DefaultCurrency}} selected{{end}}>{{.Code}} - {{.Name}}</option>
{{- end}}
</select>

<label for="effective_date">Effective Date</label>
<input id="effective_date" name="effective_date" type="date">

<label>Services</label>
<div class="services">
{{- range .Services}}
  <label><input type="checkbox" name="services" value="{{.Key}}"> {{.Title}}</label>
{{- end}}
</div>

<label for="format">Format</label>
<select id="format" name="format">
  <option value="docx">Word (DOCX)</option>
  <option value="pdf">PDF</option>
</select>

<button type="submit">Generate Contract</button>
</form>
</body>
</html>
`))

type formPage struct {
	Countries       []string
	Durations       []string
	DefaultDuration string
	Currencies      []currency.Entry
	DefaultCurrency string
	Services        []clauses.Service
}

func (api *contractsAPI) handleForm(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := formTemplate.Execute(&buf, formPage{
		Countries:       intake.Countries,
		Durations:       intake.Durations,
		DefaultDuration: intake.DefaultDuration,
		Currencies:      api.currencies.Entries(),
		DefaultCurrency: intake.DefaultCurrency,
		Services:        api.catalog.Services,
	})
	if err != nil {
		api.logger.Error("render form", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

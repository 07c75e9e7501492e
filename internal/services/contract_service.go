// internal/services/contract_service.go
package services

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/javajoker/beatmarket/internal/models"
)

// ContractDateLayout renders dates the way en-US locales print them (M/D/YYYY).
const ContractDateLayout = "1/2/2006"

// ContractTerms are the stored facts a contract body is generated from.
type ContractTerms struct {
	Marketplace   string
	BeatTitle     string
	BuyerName     string
	SellerName    string
	LicenseType   models.LicenseType
	Price         float64
	Currency      Currency
	SignatureText string
	SignedAt      time.Time
}

const contractTemplate = `{{.Rule}}
{{.Marketplace}} Beat License Agreement
{{.Rule}}

This agreement is made on {{.Date}} between:
(1) The Producer: {{.SellerName}}
(2) The Licensee (Artist): {{.BuyerName}}

{{.Rule}}
DEAL TERMS
{{.Rule}}
Beat Title: "{{.BeatTitle}}"
License Type: {{.LicenseLabel}}
License Fee: {{.Fee}}

{{.Rule}}
TERMS & CONDITIONS
{{.Rule}}
{{range $i, $clause := .Clauses}}{{inc $i}}. {{$clause}}
{{end}}
{{.Rule}}
AGREEMENT
{{.Rule}}
By signing below, the Producer and the Licensee accept the terms above. This
document forms a legally binding contract.

Producer: {{.SellerName}}
Licensee: {{.BuyerName}} (Signed as: {{.SignatureText}})
Date: {{.Date}}
`

var nonExclusiveClauses = []string{
	"The Licensee may use the beat in one (1) commercial recording or broadcast project.",
	"The Producer retains full ownership of and copyright in the beat.",
	"The Producer may continue to license the beat non-exclusively to other parties.",
	`The Licensee must credit the Producer as "Produced by {{producer}}".`,
}

var exclusiveClauses = []string{
	"The Licensee may use the beat in unlimited commercial recordings and broadcasts.",
	"The beat is withdrawn from sale on the {{marketplace}} marketplace immediately.",
	"The Producer shall not sell or license the beat to any other party in the future.",
	"Publishing rights are split 50% to the Producer and 50% to the Licensee.",
	`The Licensee must credit the Producer as "Produced by {{producer}}".`,
}

// ContractGenerator renders license agreements. Output depends only on its
// inputs, so a stored contract can be regenerated and compared byte for byte.
type ContractGenerator struct {
	tmpl     *template.Template
	currency *CurrencyService
}

func NewContractGenerator(currency *CurrencyService) *ContractGenerator {
	tmpl := template.Must(template.New("contract").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(contractTemplate))

	return &ContractGenerator{tmpl: tmpl, currency: currency}
}

func (g *ContractGenerator) Generate(terms ContractTerms) string {
	clauses := nonExclusiveClauses
	if terms.LicenseType == models.LicenseTypeExclusive {
		clauses = exclusiveClauses
	}

	replacer := strings.NewReplacer("{{producer}}", terms.SellerName, "{{marketplace}}", terms.Marketplace)
	rendered := make([]string, len(clauses))
	for i, clause := range clauses {
		rendered[i] = replacer.Replace(clause)
	}

	data := struct {
		ContractTerms
		Rule         string
		Date         string
		LicenseLabel string
		Fee          string
		Clauses      []string
	}{
		ContractTerms: terms,
		Rule:          strings.Repeat("-", 60),
		Date:          terms.SignedAt.Format(ContractDateLayout),
		LicenseLabel:  terms.LicenseType.Label(),
		Fee:           g.currency.Format(terms.Price, terms.Currency),
		Clauses:       rendered,
	}

	var buf bytes.Buffer
	// Execution only fails on template bugs, which template.Must and tests catch.
	_ = g.tmpl.Execute(&buf, data)
	return buf.String()
}

// FileName is the suggested download name for a contract.
func (g *ContractGenerator) FileName(marketplace, beatTitle string) string {
	title := strings.Join(strings.Fields(beatTitle), "_")
	return marketplace + "_Contract_" + title + ".txt"
}

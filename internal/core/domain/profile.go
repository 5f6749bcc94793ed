package domain

import (
	"fmt"
	"sort"
	"strings"
)

// RepresentativeProfile is the fixed identity of the lawyer named in every
// generated email and document.
type RepresentativeProfile struct {
	Title         string `json:"titolo" yaml:"titolo"`
	FirstName     string `json:"nome" yaml:"nome"`
	LastName      string `json:"cognome" yaml:"cognome"`
	Bar           string `json:"foro" yaml:"foro"`
	FiscalCode    string `json:"codiceFiscale" yaml:"codiceFiscale"`
	Office        string `json:"studio" yaml:"studio"`
	PEC           string `json:"pec" yaml:"pec"`
	StudioName    string `json:"intestazione" yaml:"intestazione"`
	DomicileLabel string `json:"domicilio" yaml:"domicilio"`
	IssueCity     string `json:"luogoRilascio" yaml:"luogoRilascio"`
	FooterAddress string `json:"indirizzoCompleto" yaml:"indirizzoCompleto"`
	Phone         string `json:"telefono" yaml:"telefono"`
	VATNumber     string `json:"partitaIva" yaml:"partitaIva"`
	Email         string `json:"email" yaml:"email"`
}

func (p RepresentativeProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DisplayName prefixes the professional title, e.g. "Avv. Mario Bianchi".
func (p RepresentativeProfile) DisplayName() string {
	if p.Title == "" {
		return p.FullName()
	}
	return p.Title + " " + p.FullName()
}

// FooterLines returns the office contact lines printed at the page bottom.
func (p RepresentativeProfile) FooterLines() []string {
	var lines []string
	if addr := joinDash(p.FooterAddress, prefixed("Tel. ", p.Phone)); addr != "" {
		lines = append(lines, addr)
	}
	if ids := joinDash(prefixed("C.F. ", p.FiscalCode), prefixed("P. IVA ", p.VATNumber)); ids != "" {
		lines = append(lines, ids)
	}
	if mail := joinDash(p.Email, p.PEC); mail != "" {
		lines = append(lines, mail)
	}
	return lines
}

func (p RepresentativeProfile) Validate() error {
	missing := make([]string, 0)
	for name, v := range map[string]string{
		"nome":          p.FirstName,
		"cognome":       p.LastName,
		"foro":          p.Bar,
		"codiceFiscale": p.FiscalCode,
		"studio":        p.Office,
		"pec":           p.PEC,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return WrapError(ErrInvalidInput, "validate representative profile", fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	return nil
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func joinDash(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " – ")
}

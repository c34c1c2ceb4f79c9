// Package profile implements the explore stage: per-column profiles and a
// business-domain guess from column names.
package profile

import (
	"strings"
	"unicode"

	"github.com/KaramelBytes/datalens-cli/internal/dataset"
)

// Domain labels recognised by the insight narrative.
const (
	DomainRetail     = "retail"
	DomainFinance    = "finance"
	DomainHealthcare = "healthcare"
	DomainHR         = "hr"
	DomainUnknown    = "unknown"
)

// domainKeywords is evaluated in order; earlier domains win ties.
var domainKeywords = []struct {
	domain   string
	keywords []string
}{
	{DomainRetail, []string{"product", "price", "sales", "sale", "quantity", "qty", "store", "customer", "order", "sku", "discount", "category", "urun", "ürün", "fiyat", "satis", "satış", "musteri", "müşteri", "siparis", "sipariş", "magaza", "mağaza", "adet"}},
	{DomainFinance, []string{"amount", "balance", "account", "transaction", "interest", "loan", "credit", "debit", "profit", "revenue", "cost", "expense", "budget", "tutar", "bakiye", "hesap", "kredi", "faiz", "gelir", "gider", "kar", "kâr", "maliyet", "butce", "bütçe"}},
	{DomainHealthcare, []string{"patient", "diagnosis", "treatment", "hospital", "doctor", "medication", "blood", "heart", "bmi", "glucose", "cholesterol", "hasta", "teshis", "teşhis", "tedavi", "hastane", "doktor", "ilac", "ilaç", "kan", "nabiz", "nabız"}},
	{DomainHR, []string{"employee", "salary", "department", "hire", "position", "performance", "manager", "tenure", "attrition", "calisan", "çalışan", "maas", "maaş", "departman", "pozisyon", "performans", "yonetici", "yönetici", "kidem", "kıdem"}},
}

// BusinessDomain is the guessed domain and the evidence for it.
type BusinessDomain struct {
	Label          string              `json:"primary"`
	Scores         map[string]int      `json:"scores"`
	MatchedColumns map[string][]string `json:"matched_columns"`
}

// Profile is the explore-stage output.
type Profile struct {
	Rows           int                     `json:"rows"`
	Columns        int                     `json:"columns"`
	ColumnProfiles []dataset.ColumnProfile `json:"column_profiles"`
	BusinessDomain BusinessDomain          `json:"business_domain"`
}

// DomainLabel returns the business-domain label, "unknown" when unset.
func (p *Profile) DomainLabel() string {
	if p == nil || p.BusinessDomain.Label == "" {
		return DomainUnknown
	}
	return p.BusinessDomain.Label
}

// Explore profiles every column and classifies the business domain.
func Explore(ds *dataset.Dataset) *Profile {
	p := &Profile{Rows: ds.Rows(), Columns: ds.Width(), ColumnProfiles: make([]dataset.ColumnProfile, 0, ds.Width())}
	for _, c := range ds.Columns() {
		p.ColumnProfiles = append(p.ColumnProfiles, c.Profile())
	}
	p.BusinessDomain = ClassifyDomain(ds.Names())
	return p
}

// ClassifyDomain scores each domain by the number of column names containing
// one of its keywords as a token.
func ClassifyDomain(names []string) BusinessDomain {
	bd := BusinessDomain{Label: DomainUnknown, Scores: map[string]int{}, MatchedColumns: map[string][]string{}}
	best := 0
	for _, dk := range domainKeywords {
		score := 0
		for _, name := range names {
			if matchesAny(tokens(name), dk.keywords) {
				score++
				bd.MatchedColumns[dk.domain] = append(bd.MatchedColumns[dk.domain], name)
			}
		}
		bd.Scores[dk.domain] = score
		if score > best {
			best = score
			bd.Label = dk.domain
		}
	}
	return bd
}

func tokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func matchesAny(toks, keywords []string) bool {
	for _, t := range toks {
		for _, k := range keywords {
			if t == k || strings.TrimSuffix(t, "s") == k {
				return true
			}
		}
	}
	return false
}

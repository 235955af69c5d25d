/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mapping

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/fjordsales/salesrecon/model"
)

type rule struct {
	field    model.FieldKey
	keywords []string
}

// rules are checked in order against the normalized header; the first match
// wins. Contact fields come before their generic counterparts and name comes
// before org_nr so that "Bedriftsnavn" is read as a name.
var rules = []rule{
	{model.FieldContactEmail, []string{"kontaktepost", "kontaktemail", "contactemail"}},
	{model.FieldContactPhone, []string{"kontakttelefon", "kontakttlf", "kontaktmobil", "contactphone"}},
	{model.FieldContactPerson, []string{"kontaktperson", "kontakt", "contact"}},
	{model.FieldEmail, []string{"epost", "email", "mail"}},
	{model.FieldPhone, []string{"telefon", "tlf", "phone", "mobil"}},
	{model.FieldCustomerNumber, []string{"kundenr", "kundenummer", "customernumber", "customerno"}},
	{model.FieldName, []string{"navn", "name"}},
	{model.FieldOrgNr, []string{"orgnr", "organisasjonsnummer", "org", "bedrift", "foretak"}},
	{model.FieldPostalCode, []string{"postnr", "postnummer", "postalcode", "zip"}},
	{model.FieldCity, []string{"poststed", "sted", "city"}},
	{model.FieldAddress, []string{"adresse", "address"}},
	{model.FieldMarginPercent, []string{"margin", "dekningsgrad"}},
	{model.FieldOrderCount, []string{"antallordre", "ordre", "orders"}},
	{model.FieldTotalProfit, []string{"fortjeneste", "dekningsbidrag", "profit"}},
	{model.FieldTotalCost, []string{"varekost", "kost", "cost"}},
	{model.FieldTotalSales, []string{"omsetning", "salg", "sales", "belop", "beløp", "revenue"}},
}

// fuzzyMinLength keeps short keywords such as "tlf" out of the edit-distance fallback.
const fuzzyMinLength = 5

// Suggest proposes a mapping from header labels. Each field is suggested at
// most once, for the first header that matches it. Headers matching no keyword
// as a substring get a second chance against keywords one edit away, which
// catches typos like "Adrese" or "Telfon".
func Suggest(headers []string) Mapping {
	out := Mapping{}
	taken := map[model.FieldKey]bool{}

	for idx, header := range headers {
		h := normalizeHeader(header)
		if h == "" {
			continue
		}
		field := matchSubstring(h)
		if field == model.FieldNone {
			field = matchFuzzy(h)
		}
		if field == model.FieldNone || taken[field] {
			continue
		}
		taken[field] = true
		out.Assign(idx, field)
	}
	return out
}

func matchSubstring(header string) model.FieldKey {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(header, kw) {
				return r.field
			}
		}
	}
	return model.FieldNone
}

func matchFuzzy(header string) model.FieldKey {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if len([]rune(kw)) < fuzzyMinLength {
				continue
			}
			if levenshtein.DistanceForStrings([]rune(header), []rune(kw), levenshtein.DefaultOptionsWithSub) <= 1 {
				return r.field
			}
		}
	}
	return model.FieldNone
}

// normalizeHeader lowercases the label and drops spaces and punctuation so that
// "Org. nr", "org-nr" and "ORGNR" compare equal.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		switch r {
		case ' ', '\t', '-', '_', '.', ':', '/', '\u00a0':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

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

// Package registry looks up Norwegian companies in the Central Coordinating
// Register for Legal Entities (Enhetsregisteret) by organization number.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/fjordsales/salesrecon/internal/request"
)

var (
	// ErrNotFound means the registry has no entity for the organization number,
	// or the number is not a 9-digit organization number at all.
	ErrNotFound = errors.New("organization not found in registry")
)

var orgNrPattern = regexp.MustCompile(`^\d{9}$`)

// Company is the subset of a registry entity used to enrich a new customer.
type Company struct {
	OrgNr         string
	Name          string
	AddressLines  []string
	PostalCode    string
	City          string
	Industry      string
	EmployeeCount string
	Website       string
	OrgForm       string
}

// Street returns the first address line, which is what customers store as their address.
func (c *Company) Street() string {
	if len(c.AddressLines) == 0 {
		return ""
	}
	return c.AddressLines[0]
}

// Lookup resolves an organization number. Implementations return ErrNotFound
// when the registry has no match; any other error is a failed lookup.
type Lookup interface {
	Lookup(ctx context.Context, orgNr string) (*Company, error)
}

// Client queries the registry's public REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient returns a client for baseURL (the ".../enheter" collection). Every
// lookup is bounded by timeout and never retried.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

type address struct {
	Adresse    []string `json:"adresse"`
	Postnummer string   `json:"postnummer"`
	Poststed   string   `json:"poststed"`
}

type description struct {
	Beskrivelse string `json:"beskrivelse"`
}

type entity struct {
	Organisasjonsnummer string       `json:"organisasjonsnummer"`
	Navn                string       `json:"navn"`
	Forretningsadresse  *address     `json:"forretningsadresse"`
	Postadresse         *address     `json:"postadresse"`
	Naeringskode1       *description `json:"naeringskode1"`
	AntallAnsatte       *int         `json:"antallAnsatte"`
	Hjemmeside          string       `json:"hjemmeside"`
	Organisasjonsform   *description `json:"organisasjonsform"`
}

func (e entity) toCompany() *Company {
	c := &Company{
		OrgNr:   e.Organisasjonsnummer,
		Name:    e.Navn,
		Website: e.Hjemmeside,
	}

	addr := e.Forretningsadresse
	if addr == nil {
		addr = e.Postadresse
	}
	if addr != nil {
		c.AddressLines = addr.Adresse
		c.PostalCode = addr.Postnummer
		c.City = addr.Poststed
	}
	if e.Naeringskode1 != nil {
		c.Industry = e.Naeringskode1.Beskrivelse
	}
	if e.AntallAnsatte != nil {
		c.EmployeeCount = strconv.Itoa(*e.AntallAnsatte)
	}
	if e.Organisasjonsform != nil {
		c.OrgForm = e.Organisasjonsform.Beskrivelse
	}
	return c
}

// Lookup fetches one entity. orgNr must already be normalized to digits.
func (c *Client) Lookup(ctx context.Context, orgNr string) (*Company, error) {
	if !orgNrPattern.MatchString(orgNr) {
		return nil, fmt.Errorf("%w: %q is not a 9-digit organization number", ErrNotFound, orgNr)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, orgNr), nil)
	if err != nil {
		return nil, err
	}

	var e entity
	_, err = request.Call(c.httpClient, req, &e)
	if err != nil {
		var statusErr *request.StatusError
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusNotFound || statusErr.StatusCode == http.StatusGone) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, orgNr)
		}
		return nil, fmt.Errorf("registry lookup for %s failed: %w", orgNr, err)
	}
	return e.toCompany(), nil
}

// Disabled is a Lookup that never finds anything. It is used when registry
// enrichment is switched off in the configuration.
type Disabled struct{}

func (Disabled) Lookup(_ context.Context, orgNr string) (*Company, error) {
	return nil, fmt.Errorf("%w: lookups disabled", ErrNotFound)
}

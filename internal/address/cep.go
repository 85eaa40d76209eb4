package address

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

var (
	ErrCEPNotFound = errors.New("cep not found")
	ErrCEPInvalid  = errors.New("cep must be 8 digits")
)

var cepDigitsRe = regexp.MustCompile(`^\d{8}$`)

// Partial is what a CEP lookup can autofill. Number and complement always
// come from the user.
type Partial struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

// viacepResponse mirrors the ViaCEP wire format. "erro" is set instead of an
// HTTP error status when the CEP does not exist.
type viacepResponse struct {
	Cep          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro,omitempty"`
}

// CEPClient resolves a CEP to a partial address. Lookups are deduplicated
// with singleflight and guarded by a circuit breaker; the lookup service is
// non-critical, callers fall back to manual address entry.
type CEPClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Partial]
	sfg     singleflight.Group
}

func NewCEPClient(baseURL string) *CEPClient {
	breaker := gobreaker.NewCircuitBreaker[*Partial](gobreaker.Settings{
		Name:    "cep-lookup",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &CEPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: breaker,
	}
}

// Lookup fetches street/neighborhood/city/state for a CEP given as 8 digits
// (punctuation stripped by the caller).
func (c *CEPClient) Lookup(ctx context.Context, cep string) (*Partial, error) {
	if !cepDigitsRe.MatchString(cep) {
		return nil, ErrCEPInvalid
	}

	v, err, _ := c.sfg.Do(cep, func() (interface{}, error) {
		return c.breaker.Execute(func() (*Partial, error) {
			return c.fetch(ctx, cep)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*Partial), nil
}

func (c *CEPClient) fetch(ctx context.Context, cep string) (*Partial, error) {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build cep request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cep lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCEPNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cep lookup returned status %d", resp.StatusCode)
	}

	var body viacepResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode cep response: %w", err)
	}
	if body.Erro {
		return nil, ErrCEPNotFound
	}

	return &Partial{
		Street:       body.Street,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
		ZipCode:      body.Cep,
	}, nil
}

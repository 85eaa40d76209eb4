package address

import (
	"regexp"

	"github.com/mercatto/storefront/internal/validation"
)

// Address is a Brazilian shipping address. ZipCode is the CEP in 00000-000
// form.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
}

var zipCodeRe = regexp.MustCompile(`^\d{5}-\d{3}$`)

var brStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true,
	"DF": true, "ES": true, "GO": true, "MA": true, "MT": true, "MS": true,
	"MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true,
	"SP": true, "SE": true, "TO": true,
}

// Validate checks required fields and formats. Complement is optional.
func (a *Address) Validate() validation.FieldErrors {
	errs := validation.FieldErrors{}

	if a.Street == "" {
		errs["street"] = "street is required"
	}
	if a.Number == "" {
		errs["number"] = "number is required"
	}
	if a.Neighborhood == "" {
		errs["neighborhood"] = "neighborhood is required"
	}
	if a.City == "" {
		errs["city"] = "city is required"
	}
	switch {
	case a.State == "":
		errs["state"] = "state is required"
	case !brStates[a.State]:
		errs["state"] = "state must be a two-letter BR state code"
	}
	switch {
	case a.ZipCode == "":
		errs["zip_code"] = "zip code is required"
	case !zipCodeRe.MatchString(a.ZipCode):
		errs["zip_code"] = "zip code must match 00000-000"
	}
	if a.Country == "" {
		errs["country"] = "country is required"
	}

	return errs
}

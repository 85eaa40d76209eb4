package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAddress() Address {
	return Address{
		Street:       "Rua das Flores",
		Number:       "123",
		Neighborhood: "Centro",
		City:         "São Paulo",
		State:        "SP",
		ZipCode:      "01310-100",
		Country:      "BR",
	}
}

func TestValidate_OK(t *testing.T) {
	a := validAddress()
	assert.Empty(t, a.Validate())
}

func TestValidate_RequiredFields(t *testing.T) {
	a := Address{}
	errs := a.Validate()

	for _, field := range []string{"street", "number", "neighborhood", "city", "state", "zip_code", "country"} {
		assert.Contains(t, errs, field)
	}
	assert.NotContains(t, errs, "complement")
}

func TestValidate_ZipCodePattern(t *testing.T) {
	cases := map[string]bool{
		"01310-100": true,
		"01310100":  false,
		"0131-100":  false,
		"abcde-fgh": false,
		"01310-10":  false,
	}
	for zip, ok := range cases {
		a := validAddress()
		a.ZipCode = zip
		errs := a.Validate()
		if ok {
			assert.NotContains(t, errs, "zip_code", "zip %q should be valid", zip)
		} else {
			assert.Contains(t, errs, "zip_code", "zip %q should be invalid", zip)
		}
	}
}

func TestValidate_State(t *testing.T) {
	a := validAddress()
	a.State = "XX"
	assert.Contains(t, a.Validate(), "state")

	a.State = "RJ"
	assert.NotContains(t, a.Validate(), "state")
}

package validate_test

import (
	"testing"

	"github.com/herbveda/storefront/pkg/validate"
)

type registerInput struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Code     string `json:"code"     validate:"nullable,digits=6"`
	Gender   string `json:"gender"   validate:"nullable,in=male,female,other"`
	Dob      string `json:"dob"      validate:"nullable,date"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "longenough",
		Code:     "123456",
		Gender:   "female",
		Dob:      "1990-04-02",
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(registerInput{})
	for _, field := range []string{"name", "email", "password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	if _, ok := errs["code"]; ok {
		t.Error("nullable code should not error when empty")
	}
}

func TestMinAndDigits(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "short",
		Code:     "12ab56",
	})
	if _, ok := errs["password"]; !ok {
		t.Error("expected password min error")
	}
	if _, ok := errs["code"]; !ok {
		t.Error("expected code digits error")
	}
}

func TestInRule(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "longenough",
		Gender:   "unknown",
	})
	if _, ok := errs["gender"]; !ok {
		t.Error("expected gender in-rule error")
	}
}

func TestDateRule(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "longenough",
		Dob:      "not-a-date",
	})
	if _, ok := errs["dob"]; !ok {
		t.Error("expected dob date error")
	}
}

func TestErrorKeysUseJSONNames(t *testing.T) {
	type input struct {
		DateOfBirth string `json:"dateOfBirth,omitempty" validate:"required"`
		Untagged    string `validate:"required"`
	}
	errs := validate.Struct(input{})
	if _, ok := errs["dateOfBirth"]; !ok {
		t.Errorf("expected json tag name without options, got keys: %v", errs)
	}
	if _, ok := errs["untagged"]; !ok {
		t.Errorf("expected lowercased field name fallback, got keys: %v", errs)
	}
}

func TestEmailGrammar(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.co",
		"a_b-c@my-host.org",
	}
	for _, s := range valid {
		if !validate.Email(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"User@Example.com", // uppercase rejected
		"a..b@example.com", // consecutive dots in local part
		"user@example",     // single domain label
		"user@example.c",   // TLD too short
		"user@e.com",       // SLD too short
		"user@example.c0m", // non-letter TLD
	}
	for _, s := range invalid {
		if validate.Email(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

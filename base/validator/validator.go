package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const accountPrefix = "terra"

// IsValidAddress returns is an address valid or not
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, accountPrefix) {
		return false
	}
	return len(address) > len(accountPrefix)
}

func NewCustomValidator(v *validator.Validate) echo.Validator {
	return &CustomValidator{v}
}

type CustomValidator struct {
	validator *validator.Validate
}

func (v *CustomValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

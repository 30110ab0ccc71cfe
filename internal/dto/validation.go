package dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators adds the money validation tags used by the request types.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("positive_money", positiveMoney); err != nil {
		return err
	}
	return v.RegisterValidation("nonnegative_money", nonNegativeMoney)
}

func positiveMoney(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}

func nonNegativeMoney(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && !d.IsNegative()
}

package sales

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// Money limits for a unit price. Two decimal places keep the 10% and 20%
// discounts within the four places stored by the schema.
const (
	MaxPriceScale = 2
	MaxUnitPrice  = 1_000_000_000
)

var maxUnitPrice = decimal.NewFromInt(MaxUnitPrice)

// ValidationResult is the outcome of a rule check. It never carries an error
// value; callers decide how to surface the violations.
type ValidationResult struct {
	IsValid bool
	Errors  []FieldError
}

func newResult(errs []FieldError) ValidationResult {
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateSale checks customer, branch and items. All rules are evaluated.
func ValidateSale(s *Sale) ValidationResult {
	var errs []FieldError
	if strings.TrimSpace(s.Customer) == "" {
		errs = append(errs, FieldError{Field: "customer", Message: "Customer is required."})
	}
	if strings.TrimSpace(s.Branch) == "" {
		errs = append(errs, FieldError{Field: "branch", Message: "Branch is required."})
	}
	if len(s.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "Sale must have at least one item."})
	}
	return newResult(errs)
}

var commandValidator = newCommandValidator()

func newCommandValidator() *validator.Validate {
	v := validator.New()

	// Field paths use the json names, e.g. items[0].quantity.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal is a struct; validate it as its canonical string.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "gt0", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.IsPositive()
	})
	mustRegister(v, "money_scale", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.Equal(d.Truncate(MaxPriceScale))
	})
	mustRegister(v, "money_max", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		return ok && d.LessThanOrEqual(maxUnitPrice)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// messages holds the text reported per struct field and failed tag.
var messages = map[string]string{
	"SaleNumber.max":        "SaleNumber must be at most 50 characters.",
	"Customer.notblank":     "Customer is required.",
	"Customer.max":          "Customer must be at most 100 characters.",
	"Branch.notblank":       "Branch is required.",
	"Branch.max":            "Branch must be at most 100 characters.",
	"Items.required":        "Sale must have at least one item.",
	"Items.min":             "Sale must have at least one item.",
	"ProductID.notblank":    "ProductId is required.",
	"ProductID.max":         "ProductId must be at most 64 characters.",
	"ProductName.notblank":  "ProductName is required.",
	"ProductName.max":       "ProductName must be at most 100 characters.",
	"Quantity.min":          "Quantity must be between 1 and 20.",
	"Quantity.max":          "Quantity must be between 1 and 20.",
	"UnitPrice.gt0":         "UnitPrice must be greater than zero.",
	"UnitPrice.money_scale": "UnitPrice must have at most 2 decimal places.",
	"UnitPrice.money_max":   "UnitPrice must not exceed 1000000000.",
}

// ValidateCreateCommand performs the structural checks on a create command,
// collecting one entry per violated field.
func ValidateCreateCommand(cmd CreateSaleCommand) ValidationResult {
	err := commandValidator.Struct(cmd)
	if err == nil {
		return newResult(nil)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newResult([]FieldError{{Field: "", Message: err.Error()}})
	}

	errs := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, toFieldError(fe))
	}
	return newResult(errs)
}

func toFieldError(fe validator.FieldError) FieldError {
	// Namespace is "CreateSaleCommand.items[0].quantity"; drop the type name.
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}

	msg, ok := messages[fe.StructField()+"."+fe.Tag()]
	if !ok {
		msg = fe.Error()
	}
	return FieldError{Field: path, Message: msg}
}

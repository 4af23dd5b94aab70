package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/ridloal/product-dashboard/internal/product/domain"
)

const (
	FieldName     = "name"
	FieldPrice    = "price"
	FieldCurrency = "currency"

	MsgNameRequired     = "Product name is required"
	MsgNameTooShort     = "Name must be at least 2 characters"
	MsgPriceRequired    = "Price is required"
	MsgPriceNotNumber   = "Price must be a valid number"
	MsgPriceNotPositive = "Price must be a positive number"
	MsgCurrencyRequired = "Currency is required"
	MsgCurrencyInvalid  = "Currency must be a valid 3-letter code"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// messages maps a field and the binding tag that failed on it to the text shown to the user.
var messages = map[string]map[string]string{
	FieldName: {
		"required": MsgNameRequired,
		"min":      MsgNameTooShort,
	},
	FieldPrice: {
		"required": MsgPriceRequired,
		"numeric":  MsgPriceNotNumber,
		"positive": MsgPriceNotPositive,
		"gt":       MsgPriceNotPositive,
	},
	FieldCurrency: {
		"required":  MsgCurrencyRequired,
		"currency3": MsgCurrencyInvalid,
	},
}

// Custom binding tags must exist before anything binds a product form.
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		logger.Warn("validation: binding engine is not go-playground/validator, custom rules not registered")
		return
	}
	if err := v.RegisterValidation("positive", positivePrice); err != nil {
		logger.Error("validation: failed to register positive rule", err, nil)
	}
	if err := v.RegisterValidation("currency3", currencyCode); err != nil {
		logger.Error("validation: failed to register currency3 rule", err, nil)
	}
}

func positivePrice(fl validator.FieldLevel) bool {
	price, err := strconv.ParseFloat(fl.Field().String(), 64)
	return err == nil && price > 0
}

func currencyCode(fl validator.FieldLevel) bool {
	return currencyRe.MatchString(fl.Field().String())
}

// FieldErrors maps a form field to its message. At most one message per field.
type FieldErrors map[string]string

func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

// Translate turns binding validation failures into per-field messages. Errors that are not
// validation failures (malformed body and the like) yield nil.
func Translate(err error) FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	errs := FieldErrors{}
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msg, ok := messages[field][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		errs[field] = msg
	}
	return errs
}

// ValidateProduct runs the form's binding rules. Every field is checked and all violations
// are reported at once; the returned fields are only meaningful when there are none.
func ValidateProduct(form domain.ProductForm) (domain.ProductFields, FieldErrors) {
	form.Price = strings.TrimSpace(form.Price)
	if err := binding.Validator.ValidateStruct(form); err != nil {
		if errs := Translate(err); errs.HasErrors() {
			return domain.ProductFields{}, errs
		}
		logger.Error("ValidateProduct: unexpected validator error", err, nil)
		return domain.ProductFields{}, FieldErrors{FieldName: err.Error()}
	}

	price, _ := strconv.ParseFloat(form.Price, 64)
	return domain.ProductFields{Name: form.Name, Price: price, Currency: form.Currency}, FieldErrors{}
}

// FormFromProduct pre-fills the edit dialog.
func FormFromProduct(f domain.ProductFields) domain.ProductForm {
	return domain.ProductForm{
		Name:     f.Name,
		Price:    strconv.FormatFloat(f.Price, 'f', -1, 64),
		Currency: f.Currency,
	}
}

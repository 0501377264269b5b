package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/GregMSThompson/dispatch-backend/internal/errs"
)

var sortCodePattern = regexp.MustCompile(`^\d{2}[- ]?\d{2}[- ]?\d{2}$`)

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("sortcode", sortCodeValidation)
	return validate
}

// sortCodeValidation accepts 112233, 11-22-33 and 11 22 33.
func sortCodeValidation(fl validator.FieldLevel) bool {
	return sortCodePattern.MatchString(fl.Field().String())
}

// Struct validates v and converts failures into a ValidationError keyed by field.
func Struct(validate *validator.Validate, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return errs.NewFieldValidationError(ParseValidationError(verrs))
	}
	return errs.NewValidationError(err.Error())
}

func ParseValidationError(errors validator.ValidationErrors) map[string]string {
	fieldErrors := make(map[string]string)
	for _, err := range errors {
		fieldErrors[getFieldName(err)] = msgForFieldError(err)
	}
	return fieldErrors
}

func msgForFieldError(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "sortcode":
		return "Sort code must be six digits"
	case "email":
		return "Invalid email address"
	case "e164":
		return "Phone number must be in international format"
	case "datetime":
		return fmt.Sprintf("Date must use the format %s", fieldError.Param())
	case "numeric":
		return "Must contain digits only"
	case "alphanum":
		return "Must contain letters and digits only"
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fieldError.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fieldError.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fieldError.Param())
	case "oneof":
		params := strings.Join(strings.Split(fieldError.Param(), " "), ", ")
		return fmt.Sprintf("Unexpected value %q. Expected one of the following values: %s", fieldError.Value(), params)
	default:
		return "Invalid value"
	}
}

func getFieldName(fieldError validator.FieldError) string {
	// Ex.: BankAccountRequest.SortCode, ProfileEditRequest.Documents[badge].Expiry
	namespace := strings.Split(fieldError.StructNamespace(), ".")
	length := len(namespace)
	if length == 2 {
		return lcFirst(namespace[1])
	}
	if length > 2 {
		return fmt.Sprintf("%s.%s", lcFirst(namespace[length-2]), lcFirst(namespace[length-1]))
	}
	return lcFirst(namespace[0])
}

func lcFirst(str string) string {
	for index, letter := range str {
		return string(unicode.ToLower(letter)) + str[index+1:]
	}
	return ""
}

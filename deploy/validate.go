package deploy

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"gopkg.in/go-playground/validator.v9"
)

var check = validator.New()

func mustRegister(err error) {
	if err != nil {
		panic(fmt.Sprintf("Register custom validator: %v", err))
	}
}

func init() {
	mustRegister(check.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		_, err := arn.Parse(fl.Field().String())
		return err == nil
	}))
	mustRegister(check.RegisterValidation("runtimename", func(fl validator.FieldLevel) bool {
		return validName(fl.Field().String())
	}))
}

// validName reports whether s is a valid runtime name: a letter followed by
// letters, digits or underscores.
func validName(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}

var formats = map[string]string{
	"required": "is required",
	"max":      "must be at most %v characters",

	// custom
	"arn":         "must be a valid arn (https://docs.aws.amazon.com/general/latest/gr/aws-arns-and-namespaces.html)",
	"runtimename": "must start with a letter and contain only letters, digits and underscores",
}

// validate validates a struct and returns an error describing the first
// invalid field.
func validate(v interface{}) error {
	err := check.Struct(v)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	field := strings.ToLower(fe.Field())
	format, ok := formats[fe.Tag()]
	if !ok {
		return fmt.Errorf("%s: failed %q validation", field, fe.Tag())
	}
	if !strings.Contains(format, "%") {
		return fmt.Errorf("%s %s", field, format)
	}
	return fmt.Errorf("%s %s", field, fmt.Sprintf(format, fe.Param()))
}

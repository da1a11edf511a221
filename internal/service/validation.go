package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("field"), ",")
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// fieldMessages maps "<field>.<tag>" to the client-facing message.
var fieldMessages = map[string]string{
	"email.required":    "Please enter a valid email.",
	"email.email":       "Please enter a valid email.",
	"password.required": "Password must be at least 5 characters long.",
	"password.min":      "Password must be at least 5 characters long.",
	"name.required":     "Name must not be empty.",
	"title.required":    "Title must be at least 5 characters long.",
	"title.min":         "Title must be at least 5 characters long.",
	"content.required":  "Content must be at least 5 characters long.",
	"content.min":       "Content must be at least 5 characters long.",
	"status.required":   "Status must not be empty.",
}

type signupFields struct {
	Email    string `field:"email" validate:"required,email"`
	Name     string `field:"name" validate:"required"`
	Password string `field:"password" validate:"required,min=5"`
}

type postFields struct {
	Title   string `field:"title" validate:"required,min=5"`
	Content string `field:"content" validate:"required,min=5"`
}

type statusFields struct {
	Status string `field:"status" validate:"required"`
}

// check runs struct validation and converts failures into a ValidationError.
func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value."
		}
		value, _ := fe.Value().(string)
		if fe.Field() == "password" {
			value = ""
		}
		fields = append(fields, FieldError{
			Field:    fe.Field(),
			Value:    value,
			Message:  msg,
			Location: "body",
		})
	}
	return newValidationError(fields...)
}

// normalizeEmail lowercases and trims an address before lookup or storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

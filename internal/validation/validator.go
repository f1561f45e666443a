// Waypoint - Shortlink Click Capture and Visitor Geolocation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/waypoint

// Package validation checks tracking payloads and owner requests with
// go-playground/validator v10.
//
// A single validator instance is shared by every caller. Fields are reported
// by their JSON key, so a bad ClickEvent names "shortlinkId" or "batteryLevel"
// exactly as the tracking page sent them. Custom rules:
//
//   - slug: ASCII letters and digits, the alphabet of generated shortlink slugs
//
// Example usage:
//
//	if verr := validation.ValidateStruct(&event); verr != nil {
//	    rw.ValidationError(verr)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CodeValidation is the API error code for rejected input.
const CodeValidation = "VALIDATION_ERROR"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// Registration only fails for an empty tag or nil func.
		_ = validate.RegisterValidation("slug", isSlug)
	})
	return validate
}

// FieldError is one rejected field.
type FieldError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field is the JSON name of the rejected field.
func (e FieldError) Field() string { return e.field }

// Tag is the rule that failed, e.g. "required_with".
func (e FieldError) Tag() string { return e.tag }

// Param is the rule argument, e.g. "1024" for max=1024.
func (e FieldError) Param() string { return e.param }

// Value is the submitted value.
func (e FieldError) Value() interface{} { return e.value }

func (e FieldError) Error() string { return e.message }

// RequestValidationError collects every rejected field of one struct.
type RequestValidationError struct {
	errors []FieldError
}

// Errors returns the rejected fields in declaration order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		msgs[i] = fe.message
	}
	return strings.Join(msgs, "; ")
}

// APIError is the envelope-ready form of a RequestValidationError.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError flattens the error for a response body. One field puts its
// field/tag/value in Details; several are listed under Details["fields"].
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.errors) {
	case 0:
		return &APIError{Code: CodeValidation, Message: "Validation failed"}
	case 1:
		fe := ve.errors[0]
		return &APIError{
			Code:    CodeValidation,
			Message: fe.message,
			Details: map[string]interface{}{
				"field": fe.field,
				"tag":   fe.tag,
				"value": fe.value,
			},
		}
	}

	fields := make([]map[string]interface{}, len(ve.errors))
	msgs := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		fields[i] = map[string]interface{}{
			"field":   fe.field,
			"tag":     fe.tag,
			"message": fe.message,
		}
		msgs[i] = fe.field + ": " + fe.message
	}
	return &APIError{
		Code:    CodeValidation,
		Message: strings.Join(msgs, "; "),
		Details: map[string]interface{}{"fields": fields},
	}
}

// ValidateStruct validates s and returns nil or the rejected fields.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was nil or not a struct
		return &RequestValidationError{errors: []FieldError{{
			field:   "unknown",
			tag:     "unknown",
			message: err.Error(),
		}}}
	}

	typ := reflect.TypeOf(s)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	out := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		param := fe.Param()
		if crossFieldTags[fe.Tag()] {
			param = jsonParams(typ, param)
		}
		out[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   param,
			value:   fe.Value(),
			message: describe(fe, param),
		}
	}
	return &RequestValidationError{errors: out}
}

// crossFieldTags name other struct fields in their param.
var crossFieldTags = map[string]bool{
	"required_with":    true,
	"required_without": true,
	"excluded_with":    true,
}

// jsonParams rewrites the Go field names in a cross-field param
// ("Latitude") to their JSON keys ("latitude"). Names not found on typ,
// e.g. on nested structs, are kept as written.
func jsonParams(typ reflect.Type, param string) string {
	if typ == nil || typ.Kind() != reflect.Struct {
		return param
	}
	names := strings.Fields(param)
	for i, name := range names {
		if fld, ok := typ.FieldByName(name); ok {
			if key := jsonFieldName(fld); key != "" {
				names[i] = key
			}
		}
	}
	return strings.Join(names, " ")
}

// describe renders the message for one failed rule.
func describe(fe validator.FieldError, param string) string {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return fmt.Sprintf("%s is required when %s is present", field, param)
	case "latitude":
		return field + " must be a valid latitude (-90 to 90)"
	case "longitude":
		return field + " must be a valid longitude (-180 to 180)"
	case "http_url":
		return field + " must be an absolute http or https URL"
	case "slug":
		return field + " must contain only letters and digits"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// jsonFieldName reports fields by their JSON key.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

func isSlug(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

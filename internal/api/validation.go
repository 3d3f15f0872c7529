package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskmanager/internal/services"
)

var requestValidator = validator.New()

func decodeAndValidate(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return describeDecodeError(err)
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &services.ValidationError{Message: "invalid JSON body"}
	}

	if err := requestValidator.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			field := strings.ToLower(first.Field())
			switch first.Tag() {
			case "required":
				return &services.ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
			case "email":
				return &services.ValidationError{Field: field, Message: "Email is invalid"}
			case "min", "max":
				return &services.ValidationError{Field: field, Message: fmt.Sprintf("invalid %s length", field)}
			case "gte":
				return &services.ValidationError{Field: field, Message: fmt.Sprintf("%s must be a positive number", field)}
			default:
				return &services.ValidationError{Field: field, Message: fmt.Sprintf("invalid %s", field)}
			}
		}

		return &services.ValidationError{Message: "invalid request payload"}
	}

	return nil
}

// decodePatch decodes a partial update into dst after checking that every
// key in the body is in allowed.
func decodePatch(body io.Reader, dst any, allowed ...string) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return &services.ValidationError{Message: "invalid request body"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &services.ValidationError{Message: "invalid JSON body"}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	if err := services.CheckAllowedFields(keys, allowed...); err != nil {
		return err
	}

	return decodeAndValidate(bytes.NewReader(raw), dst)
}

func describeDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &services.ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("invalid %s", typeErr.Field)}
	}
	if strings.HasPrefix(err.Error(), "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return &services.ValidationError{Field: field, Message: fmt.Sprintf("unknown field %q", field)}
	}
	return &services.ValidationError{Message: "invalid JSON body"}
}

// Package validation checks capacity payloads before they reach the handlers.
//
// A payload is decoded in two passes: the raw object is inspected for
// forbidden and unknown keys, then it is decoded into a typed struct whose
// field rules are enforced by go-playground/validator.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/terminal-bench/capacities/internal/models"
)

// SourcePayload marks errors raised while checking the request body
const SourcePayload = "payload"

// maxID is the largest id that survives a float64 round trip
const maxID = 1 << 53

// ValidationError describes why a payload was rejected
type ValidationError struct {
	Source  string   `json:"source"`
	Keys    []string `json:"keys"`
	Message string   `json:"-"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newError(key, format string, args ...interface{}) *ValidationError {
	keys := []string{}
	if key != "" {
		keys = append(keys, key)
	}
	return &ValidationError{
		Source:  SourcePayload,
		Keys:    keys,
		Message: fmt.Sprintf(format, args...),
	}
}

// Schema names the keys a payload may carry
type Schema struct {
	Name      string
	Allowed   []string
	Forbidden []string
}

var (
	CreateSchema = Schema{Name: "create", Allowed: []string{"label"}, Forbidden: []string{"id"}}
	UpdateSchema = Schema{Name: "update", Allowed: []string{"id", "label"}}
)

// createPayload is the body accepted by POST /capacities
type createPayload struct {
	Label *string `json:"label" validate:"required,min=1"`
}

// updatePayload is the body accepted by PUT /capacities/:id. The id may be
// sent as a number or a numeric string.
type updatePayload struct {
	ID    *json.Number `json:"id" validate:"required"`
	Label *string      `json:"label" validate:"required,min=1"`
}

// Validator validates capacity payloads
type Validator struct {
	validate *validator.Validate
}

// New creates a payload validator
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Create validates a create payload and returns the requested label
func (v *Validator) Create(body []byte) (string, error) {
	if err := checkKeys(CreateSchema, body); err != nil {
		return "", err
	}

	var p createPayload
	if err := decode(body, &p); err != nil {
		return "", err
	}
	if err := v.check(&p); err != nil {
		return "", err
	}
	return *p.Label, nil
}

// Update validates a full replacement payload
func (v *Validator) Update(body []byte) (models.Capacity, error) {
	if err := checkKeys(UpdateSchema, body); err != nil {
		return models.Capacity{}, err
	}

	var p updatePayload
	if err := decode(body, &p); err != nil {
		return models.Capacity{}, err
	}
	if err := v.check(&p); err != nil {
		return models.Capacity{}, err
	}

	id, err := p.ID.Float64()
	if err != nil || id != math.Trunc(id) || math.Abs(id) > maxID {
		return models.Capacity{}, newError("id", `"id" must be an integer`)
	}
	return models.Capacity{ID: int(id), Label: *p.Label}, nil
}

func checkKeys(s Schema, body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return newError("", `"value" must be of type object`)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if contains(s.Forbidden, k) || !contains(s.Allowed, k) {
			return newError(k, "%q is not allowed", k)
		}
	}
	return nil
}

func decode(body []byte, dst interface{}) error {
	err := json.Unmarshal(body, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		switch typeErr.Field {
		case "id":
			return newError("id", `"id" must be a number`)
		default:
			return newError(typeErr.Field, "%q must be a string", typeErr.Field)
		}
	}
	// json.Number rejects strings that are not numbers with a plain error
	if strings.Contains(err.Error(), "json.Number") || strings.Contains(err.Error(), "invalid number literal") {
		return newError("id", `"id" must be a number`)
	}
	return newError("", `"value" must be of type object`)
}

func (v *Validator) check(p interface{}) error {
	err := v.validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate payload: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return newError(fe.Field(), "%q is required", fe.Field())
	case "min":
		return newError(fe.Field(), "%q is not allowed to be empty", fe.Field())
	default:
		return newError(fe.Field(), "%q failed on the %s rule", fe.Field(), fe.Tag())
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

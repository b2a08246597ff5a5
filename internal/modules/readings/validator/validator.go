// Package validator checks raw reading payloads against a declarative field
// schema. It never mutates its input: callers get either a normalized
// types.NewReading or field-keyed error messages.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"aquadash/internal/modules/readings/types"
)

const (
	msgRequired  = "Required"
	msgStatusSet = "Status must be either -1, 0, 1!"
)

// FieldErrors maps a payload field to one or more human readable messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(fe[k], "; "))
	}
	return strings.Join(parts, ", ")
}

type kind int

const (
	kindNumber kind = iota
	kindInteger
)

type field struct {
	name    string
	kind    kind
	accept  func(float64) bool
	message string // replaces the default message for integer/accept failures
}

// createSchema is the legal shape of an incoming reading.
var createSchema = []field{
	{name: "temperature", kind: kindNumber},
	{name: "status", kind: kindInteger, accept: validStatus, message: msgStatusSet},
}

// validStatus keeps the float-to-int conversion in range before asking Status.
func validStatus(n float64) bool {
	return math.Abs(n) <= math.MaxInt32 && types.Status(int(n)).Valid()
}

// Validate decodes body and checks it against the reading schema. Unknown
// fields are dropped. A nil FieldErrors means the reading is valid.
func Validate(body []byte) (types.NewReading, FieldErrors) {
	fields, fe := decodeObject(body)
	if fe != nil {
		return types.NewReading{}, fe
	}

	values := make(map[string]float64, len(createSchema))
	errs := FieldErrors{}
	for _, f := range createSchema {
		v, msg := f.check(fields[f.name])
		if msg != "" {
			errs.Add(f.name, msg)
			continue
		}
		values[f.name] = v
	}
	if len(errs) > 0 {
		return types.NewReading{}, errs
	}

	return types.NewReading{
		Temperature: values["temperature"],
		Status:      types.Status(int(values["status"])),
	}, nil
}

func decodeObject(body []byte) (map[string]json.RawMessage, FieldErrors) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, FieldErrors{"body": {"Expected object, received undefined"}}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, FieldErrors{"body": {"Malformed JSON body"}}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, FieldErrors{"body": {"Malformed JSON body"}}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, FieldErrors{"body": {"Expected object, received " + typeName(v)}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, FieldErrors{"body": {"Malformed JSON body"}}
	}
	return fields, nil
}

func (f field) check(raw json.RawMessage) (float64, string) {
	if raw == nil {
		return 0, msgRequired
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, "Invalid value"
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, "Expected number, received " + typeName(v)
	}
	n, err := num.Float64()
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, "Expected number, received " + num.String()
	}

	if f.kind == kindInteger && n != math.Trunc(n) {
		return 0, f.messageOr("Expected integer, received float")
	}
	if f.accept != nil && !f.accept(n) {
		return 0, f.messageOr("Invalid value " + num.String())
	}
	return n, ""
}

func (f field) messageOr(def string) string {
	if f.message != "" {
		return f.message
	}
	return def
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ValueKind string

const (
	ValueNumber ValueKind = "number"
	ValueBool   ValueKind = "bool"
	ValueText   ValueKind = "text"
)

// Value is the tagged scalar threaded from extraction through
// normalization. Extraction sources produce strings, numbers or booleans;
// keeping the tag explicit avoids untyped any-unions at package boundaries.
type Value struct {
	Kind   ValueKind
	Number float64
	Bool   bool
	Text   string
}

func NumberValue(v float64) Value { return Value{Kind: ValueNumber, Number: v} }
func BoolValue(v bool) Value      { return Value{Kind: ValueBool, Bool: v} }
func TextValue(v string) Value    { return Value{Kind: ValueText, Text: v} }

// ParseValue converts an untyped JSON scalar into a tagged Value.
func ParseValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return NumberValue(v), nil
	case int:
		return NumberValue(float64(v)), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return TextValue(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("parse numeric value %q: %w", v.String(), err)
		}
		return NumberValue(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// AsNumber returns the numeric form of the value. Text values are parsed
// leniently (thousands separators and surrounding whitespace stripped).
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Number, true
	case ValueText:
		cleaned := strings.TrimSpace(strings.ReplaceAll(v.Text, ",", ""))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseValue(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

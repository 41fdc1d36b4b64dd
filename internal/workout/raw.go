package workout

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/ptr"
)

// RawPlan is loosely typed plan data as produced by a model or by the rule-based builder.
// Every field tracks whether it was present so that the assembler can tell a missing key from an explicit null.
type RawPlan struct {
	WeeklySchedule []RawDay `json:"weekly_schedule"`
}

// RawDay is one loosely typed day.
type RawDay struct {
	Day           OptInt        `json:"day"`
	Focus         OptString     `json:"focus"`
	Exercises     []RawExercise `json:"exercises"`
	TotalDuration OptInt        `json:"total_duration"`
}

// RawExercise is one loosely typed exercise.
type RawExercise struct {
	Name         OptString `json:"name"`
	Type         OptString `json:"type"`
	Sets         OptInt    `json:"sets"`
	Reps         OptInt    `json:"reps"`
	Duration     OptInt    `json:"duration"`
	Rest         OptInt    `json:"rest"`
	Equipment    OptString `json:"equipment"`
	Instructions OptString `json:"instructions"`
}

// OptInt is an integer that may be absent (Present false), null (Present true, Value nil) or set.
type OptInt struct {
	Value   *int
	Present bool
}

// Int is a present, non-null OptInt.
func Int(v int) OptInt {
	return OptInt{Value: &v, Present: true}
}

// NullInt is a present OptInt holding null.
func NullInt() OptInt {
	return OptInt{Value: nil, Present: true}
}

// UnmarshalJSON accepts integral numbers and numeric strings. Values of any other shape count as absent.
func (o *OptInt) UnmarshalJSON(b []byte) error {
	*o = OptInt{Value: nil, Present: false}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		o.Present = true
		return nil
	}
	text := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return nil //nolint:nilerr // malformed values are treated as absent.
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil //nolint:nilerr // malformed values are treated as absent.
	}
	v := int(f)
	o.Value = &v
	o.Present = true
	return nil
}

// or returns the value when the key was present and def when it was missing. A present null stays nil.
func (o OptInt) or(def int) *int {
	if !o.Present {
		return ptr.Ref(def)
	}
	return clone(o.Value)
}

// OptString is a string that may be absent, null or set.
//
// A value of another JSON shape, such as a number or an object, counts as absent but keeps its JSON text in Raw.
// The exercise type rejects it; other fields fall back to their defaults.
type OptString struct {
	Value   *string
	Present bool
	Raw     json.RawMessage
}

// String is a present, non-null OptString.
func String(v string) OptString {
	return OptString{Value: &v, Present: true, Raw: nil}
}

// NullString is a present OptString holding null.
func NullString() OptString {
	return OptString{Value: nil, Present: true, Raw: nil}
}

func (o *OptString) UnmarshalJSON(b []byte) error {
	*o = OptString{Value: nil, Present: false, Raw: nil}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		o.Present = true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		o.Raw = append(json.RawMessage(nil), b...)
		return nil //nolint:nilerr // the shape mismatch is kept in Raw.
	}
	o.Value = &s
	o.Present = true
	return nil
}

// valueOr returns the value, or def when it is absent, null or not a string.
func (o OptString) valueOr(def string) string {
	return ptr.Deref(o.Value, def)
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.Ref(*p)
}

// DecodeRawPlan converts an extracted JSON object into a RawPlan. Structural mismatches, such as weekly_schedule not
// being a list of objects, are errors.
func DecodeRawPlan(obj map[string]any) (RawPlan, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return RawPlan{}, errors.Wrap(err, "marshal extracted object")
	}
	var raw RawPlan
	if err = json.Unmarshal(b, &raw); err != nil {
		return RawPlan{}, errors.Wrap(err, "decode raw plan")
	}
	return raw, nil
}

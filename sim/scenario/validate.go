package scenario

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/boxsim/boxsim/sim"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report yaml names so errors point at the key the user wrote
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks struct constraints first, then the parameters of the
// selected rate kind. Fails fast with the first *sim.ConfigError.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toConfigError(verrs[0])
		}
		return fmt.Errorf("validating scenario: %w", err)
	}
	return s.Rate.validate()
}

func toConfigError(fe validator.FieldError) *sim.ConfigError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	var reason string
	switch fe.Tag() {
	case "gt":
		reason = "must be greater than " + fe.Param()
	case "gte":
		reason = "must be at least " + fe.Param()
	case "lte":
		reason = "must be at most " + fe.Param()
	case "oneof":
		reason = "must be one of [" + fe.Param() + "]"
	case "ltfield":
		reason = "must be less than " + snakeCase(fe.Param())
	case "ltefield":
		reason = "must not exceed " + snakeCase(fe.Param())
	case "gtefield":
		reason = "must be at least " + snakeCase(fe.Param())
	default:
		reason = "failed " + fe.Tag()
	}
	return &sim.ConfigError{Field: field, Reason: fmt.Sprintf("%s, got %v", reason, fe.Value())}
}

// snakeCase maps a Go field name to its yaml key (TargetMid -> target_mid).
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r RateSpec) validate() error {
	nonNegative := func(field string, v float64) error {
		if !(v >= 0) || math.IsInf(v, 0) {
			return &sim.ConfigError{Field: "rate." + field, Reason: fmt.Sprintf("must be a finite non-negative number, got %g", v)}
		}
		return nil
	}
	positive := func(field string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return &sim.ConfigError{Field: "rate." + field, Reason: fmt.Sprintf("must be a finite positive number, got %g", v)}
		}
		return nil
	}

	switch r.Kind {
	case RateConstant:
		return nonNegative("value", r.Value)
	case RateStep:
		return firstErr(nonNegative("before", r.Before), nonNegative("after", r.After), nonNegative("at", r.At))
	case RatePiecewise:
		if len(r.Points) == 0 {
			return &sim.ConfigError{Field: "rate.points", Reason: "at least one point is required"}
		}
		for i, p := range r.Points {
			if err := nonNegative(fmt.Sprintf("points[%d].t", i), p.T); err != nil {
				return err
			}
			if err := nonNegative(fmt.Sprintf("points[%d].rate", i), p.Rate); err != nil {
				return err
			}
			if i > 0 && p.T <= r.Points[i-1].T {
				return &sim.ConfigError{
					Field:  fmt.Sprintf("rate.points[%d].t", i),
					Reason: fmt.Sprintf("must be after the previous point (%g), got %g", r.Points[i-1].T, p.T),
				}
			}
		}
		return nil
	case RateSquare:
		return firstErr(nonNegative("low", r.Low), nonNegative("high", r.High), positive("period", r.Period))
	case RateSine:
		return firstErr(nonNegative("mean", r.Mean), nonNegative("amplitude", r.Amplitude), positive("period", r.Period))
	}
	return &sim.ConfigError{Field: "rate.kind", Reason: fmt.Sprintf("unknown kind %q", r.Kind)}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

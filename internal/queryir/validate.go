package queryir

import (
	"errors"
	"fmt"
)

// Validate checks that every field in the tree is whitelisted and every
// literal has a supported type. Validate is a pure function.
func Validate(p Predicate) error {
	v := &validator{}
	v.validate(p)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addError(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) field(f Field) {
	if !Known(f) {
		v.addError("unknown field %q", f)
	}
}

func (v *validator) value(f Field, val any) {
	switch val.(type) {
	case string, int, int64, bool:
	case nil:
		v.addError("field %q compared to nil - use IsNull", f)
	default:
		v.addError("field %q: unsupported value type %T", f, val)
	}
}

func (v *validator) validate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// nil predicate means no filter
	case Equals:
		v.field(pred.Field)
		v.value(pred.Field, pred.Value)
	case In:
		v.field(pred.Field)
		for _, val := range pred.Values {
			v.value(pred.Field, val)
		}
	case Between:
		v.field(pred.Field)
		if pred.Low > pred.High {
			v.addError("field %q: empty range %d..%d", pred.Field, pred.Low, pred.High)
		}
	case IsNull:
		v.field(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			v.validate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validate(sub)
		}
	case Not:
		if pred.Predicate == nil {
			v.addError("Not with nil predicate")
			return
		}
		v.validate(pred.Predicate)
	default:
		v.addError("unknown predicate type %T", p)
	}
}

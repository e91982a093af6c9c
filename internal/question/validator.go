package question

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownConcept marks an upload whose concept reference does not exist.
var ErrUnknownConcept = errors.New("referenced concept does not exist")

// ValidationError describes why a question was rejected.
type ValidationError struct {
	Validator string
	Message   string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator checks a question before it is stored or offered for practice.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	Name() string
	Validate(u *Upload) *ValidationError
}

// Validate runs validators in order and returns the first failure.
func Validate(u *Upload, validators ...Validator) error {
	for _, v := range validators {
		if verr := v.Validate(u); verr != nil {
			return verr
		}
	}
	return nil
}

// UploadValidators is the chain applied to every question upload.
func UploadValidators() []Validator {
	return []Validator{&StructuralValidator{}}
}

// GeneratedValidators is the chain applied to synthesized practice items.
func GeneratedValidators() []Validator {
	return []Validator{&StructuralValidator{}, &CompleteChoicesValidator{}}
}

const maxTextLen = 1000

// StructuralValidator checks required fields, the option count and the
// correct-option range.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(u *Upload) *ValidationError {
	fail := func(msg string, args ...any) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf(msg, args...)}
	}

	text := strings.TrimSpace(u.Text)
	switch {
	case text == "":
		return fail("question text is empty")
	case len(text) > maxTextLen:
		return fail("question text exceeds %d characters", maxTextLen)
	case strings.TrimSpace(u.Type) == "":
		return fail("question type is empty")
	case len(u.Options) == 0 || len(u.Options) > MaxOptions:
		return fail("expected 1 to %d options, got %d", MaxOptions, len(u.Options))
	}
	for i, opt := range u.Options {
		if strings.TrimSpace(opt) == "" {
			return fail("option %d is empty", i+1)
		}
	}
	if u.CorrectOption < 1 || u.CorrectOption > len(u.Options) {
		return fail("correct option %d is outside 1..%d", u.CorrectOption, len(u.Options))
	}
	return nil
}

// CompleteChoicesValidator requires exactly four non-empty, distinct
// options, so exactly one of them can be correct.
type CompleteChoicesValidator struct{}

func (v *CompleteChoicesValidator) Name() string { return "complete-choices" }

func (v *CompleteChoicesValidator) Validate(u *Upload) *ValidationError {
	if len(u.Options) != MaxOptions {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected exactly %d options, got %d", MaxOptions, len(u.Options)),
		}
	}
	seen := make(map[string]int, len(u.Options))
	for i, opt := range u.Options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			return &ValidationError{Validator: v.Name(), Message: fmt.Sprintf("option %d is empty", i+1)}
		}
		if prev, ok := seen[key]; ok {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("duplicate choice %q (options %d and %d)", strings.TrimSpace(opt), prev+1, i+1),
			}
		}
		seen[key] = i
	}
	return nil
}

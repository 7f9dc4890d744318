package validator

import "golang.org/x/exp/slices"

// Validator collects human-readable validation messages. A message is kept
// once even when several checks produce it, e.g. one per split participant.
type Validator struct {
	Errors []string `json:",omitempty"`
}

func (v Validator) HasErrors() bool {
	return len(v.Errors) != 0
}

func (v *Validator) AddError(message string) {
	if v.Errors == nil {
		v.Errors = []string{}
	}

	if slices.Contains(v.Errors, message) {
		return
	}

	v.Errors = append(v.Errors, message)
}

func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

package plan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status tags which side of an Outcome is populated.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome is the result of one solver in one run: either a candidate set or
// a failure kind with a human-readable message, never both.
type Outcome struct {
	status  Status
	plans   CandidateSet
	kind    ErrorKind
	message string
}

// Succeeded wraps a candidate set. The plans are deep-copied so nothing the
// adapter still holds can mutate them afterwards.
func Succeeded(set CandidateSet) Outcome {
	return Outcome{status: StatusSuccess, plans: set.Clone()}
}

// Failed records a failure of the given kind.
func Failed(kind ErrorKind, message string) Outcome {
	if !kind.Valid() {
		kind = KindInternal
	}
	return Outcome{status: StatusFailure, kind: kind, message: message}
}

// FailedWith classifies err and records it as a failure.
func FailedWith(err error) Outcome {
	return Failed(KindOf(err), err.Error())
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.status == StatusSuccess }

// Status returns the tag.
func (o Outcome) Status() Status { return o.status }

// Plans returns a copy of the candidate set; nil for a failure.
func (o Outcome) Plans() CandidateSet {
	if !o.OK() {
		return nil
	}
	return o.plans.Clone()
}

// Len returns the number of candidates, 0 for a failure.
func (o Outcome) Len() int { return len(o.plans) }

// Kind returns the failure kind, empty for a success.
func (o Outcome) Kind() ErrorKind { return o.kind }

// Message returns the failure message, empty for a success.
func (o Outcome) Message() string { return o.message }

// String renders the candidates or the failure reason.
func (o Outcome) String() string {
	if o.OK() {
		return o.plans.String()
	}
	return fmt.Sprintf("failed (%s): %s\n", o.kind, o.message)
}

type outcomeJSON struct {
	Status    Status       `json:"status"`
	Plans     CandidateSet `json:"plans,omitempty"`
	ErrorKind ErrorKind    `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// MarshalJSON encodes the outcome as a tagged object.
func (o Outcome) MarshalJSON() ([]byte, error) {
	v := outcomeJSON{Status: o.status, ErrorKind: o.kind, Error: o.message}
	if o.OK() {
		v.Plans = o.plans
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes the tagged object form.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var v outcomeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Status {
	case StatusSuccess:
		*o = Succeeded(v.Plans)
	case StatusFailure:
		*o = Failed(v.ErrorKind, v.Error)
	default:
		return errors.New("outcome: unknown status " + string(v.Status))
	}
	return nil
}

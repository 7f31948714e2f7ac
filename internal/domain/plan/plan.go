// Package plan defines the value types produced by a solver run: grounded
// actions, plans, candidate sets and per-solver outcomes.
package plan

import (
	"strconv"
	"strings"
)

// GroundedAction is an action label with all parameters bound to concrete objects.
type GroundedAction struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// NewAction builds a GroundedAction, copying args so later changes to the
// caller's slice do not leak into the action.
func NewAction(name string, args ...string) GroundedAction {
	return GroundedAction{Name: name, Args: cloneStrings(args)}
}

// String renders the action in PDDL form, e.g. "(stack a b)".
func (a GroundedAction) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(a.Name)
	for _, arg := range a.Args {
		b.WriteByte(' ')
		b.WriteString(arg)
	}
	b.WriteByte(')')
	return b.String()
}

// Plan is an ordered sequence of grounded actions solving one problem instance.
type Plan struct {
	Actions []GroundedAction `json:"actions"`
	// Cost is the solver-reported cost, when the output carried one.
	Cost *float64 `json:"cost,omitempty"`
}

// New builds a Plan from the given actions. The actions are deep-copied.
func New(actions []GroundedAction, cost *float64) Plan {
	p := Plan{Actions: make([]GroundedAction, len(actions))}
	for i, a := range actions {
		p.Actions[i] = NewAction(a.Name, a.Args...)
	}
	if cost != nil {
		c := *cost
		p.Cost = &c
	}
	return p
}

// Len returns the number of actions in the plan.
func (p Plan) Len() int { return len(p.Actions) }

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan { return New(p.Actions, p.Cost) }

// String renders one action per line followed by an optional cost comment.
func (p Plan) String() string {
	var b strings.Builder
	for _, a := range p.Actions {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	if p.Cost != nil {
		b.WriteString("; cost = ")
		b.WriteString(strconv.FormatFloat(*p.Cost, 'f', -1, 64))
		b.WriteByte('\n')
	}
	return b.String()
}

// CandidateSet is the collection of plans one solver run produced for one
// problem. There is no priority among candidates. An empty set means the
// solver ran and found nothing; it is not a failure.
type CandidateSet []Plan

// Clone deep-copies every plan in the set. A nil set clones to an empty one.
func (s CandidateSet) Clone() CandidateSet {
	out := make(CandidateSet, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}

// String renders every candidate, numbered from 1.
func (s CandidateSet) String() string {
	if len(s) == 0 {
		return "no plan found\n"
	}
	var b strings.Builder
	for i, p := range s {
		b.WriteString("candidate ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":\n")
		b.WriteString(p.String())
	}
	return b.String()
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

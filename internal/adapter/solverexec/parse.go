package solverexec

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Strob0t/planforge/internal/domain/plan"
)

// Parser turns one solver output file into a Plan.
type Parser func(r io.Reader) (plan.Plan, error)

var (
	costRe = regexp.MustCompile(`(?i)cost\s*=\s*([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`)
	stepRe = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)?\s*:\s*`)
	durRe  = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
)

// ParseIPC parses the plan format used by the International Planning
// Competition and by Fast Downward:
//
//	(pick-up a)
//	0.000: (stack a b) [1.000]
//	; cost = 2 (unit cost)
//
// Lines starting with ';' are comments; a "cost = N" comment sets the
// plan's cost. Step prefixes and duration suffixes are accepted and dropped.
func ParseIPC(r io.Reader) (plan.Plan, error) {
	var (
		actions []plan.GroundedAction
		cost    *float64
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ";") {
			if m := costRe.FindStringSubmatch(line); m != nil {
				c, err := strconv.ParseFloat(m[1], 64)
				if err != nil {
					return plan.Plan{}, fmt.Errorf("line %d: bad cost %q", lineNo, m[1])
				}
				cost = &c
			}
			continue
		}

		a, err := parseActionLine(line)
		if err != nil {
			return plan.Plan{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		actions = append(actions, a)
	}
	if err := sc.Err(); err != nil {
		return plan.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	return plan.New(actions, cost), nil
}

func parseActionLine(line string) (plan.GroundedAction, error) {
	line = stepRe.ReplaceAllString(line, "")
	line = durRe.ReplaceAllString(line, "")
	if !strings.HasPrefix(line, "(") || !strings.HasSuffix(line, ")") {
		return plan.GroundedAction{}, fmt.Errorf("expected parenthesised action, got %q", line)
	}
	fields := strings.Fields(line[1 : len(line)-1])
	if len(fields) == 0 {
		return plan.GroundedAction{}, fmt.Errorf("empty action %q", line)
	}
	for _, f := range fields {
		if strings.ContainsAny(f, "()") {
			return plan.GroundedAction{}, fmt.Errorf("nested expression in action %q", line)
		}
	}
	return plan.NewAction(fields[0], fields[1:]...), nil
}

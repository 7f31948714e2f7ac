package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Strob0t/planforge/internal/domain/run"
)

// Validate checks that data is JSON matching the schema for subject.
// Subjects without a schema only need to be valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch subject {
	case SubjectRunRequest:
		var p RunRequestPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.Domain == "" || p.Problem == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("domain and problem are required"))
		}
		if _, err := run.TimeoutFromSeconds(p.TimeoutSeconds); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
	case SubjectRunStarted:
		return decode(subject, data, &run.StartedEvent{})
	case SubjectRunOutcome:
		return decode(subject, data, &run.OutcomeEvent{})
	case SubjectRunCompleted:
		return decode(subject, data, &run.CompletedEvent{})
	case SubjectRunRejected:
		return decode(subject, data, &RunRejectedPayload{})
	}
	return nil
}

func decode(subject string, data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}

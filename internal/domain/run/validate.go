package run

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Strob0t/planforge/internal/domain"
)

// Validate checks the request for structural correctness. Defaults for the
// solver list, timeout and mode are applied by the orchestrator beforehand.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Domain) == "" {
		return fmt.Errorf("%w: domain description is required", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Problem) == "" {
		return fmt.Errorf("%w: problem description is required", domain.ErrValidation)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", domain.ErrValidation)
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	seen := make(map[string]struct{}, len(r.Solvers))
	for _, name := range r.Solvers {
		if name == "" {
			return fmt.Errorf("%w: solver name must not be empty", domain.ErrValidation)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: solver %q requested twice", domain.ErrValidation, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// maxTimeoutSeconds is the largest whole-second timeout a time.Duration holds.
const maxTimeoutSeconds = float64(math.MaxInt64 / int64(time.Second))

// TimeoutFromSeconds converts a fractional seconds value to a Duration.
// Zero stays zero so the caller's default applies. A positive value too
// small or too large to be represented is rejected rather than wrapping.
func TimeoutFromSeconds(secs float64) (time.Duration, error) {
	switch {
	case math.IsNaN(secs) || secs < 0:
		return 0, fmt.Errorf("%w: timeout must not be negative", domain.ErrValidation)
	case secs == 0:
		return 0, nil
	case secs > maxTimeoutSeconds:
		return 0, fmt.Errorf("%w: timeout %gs is too large", domain.ErrValidation, secs)
	}
	d := time.Duration(secs * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%w: timeout %gs is below one nanosecond", domain.ErrValidation, secs)
	}
	return d, nil
}

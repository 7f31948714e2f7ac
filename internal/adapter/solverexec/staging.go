package solverexec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Input and log file names written into every staging directory.
const (
	DomainFile  = "domain.pddl"
	ProblemFile = "problem.pddl"
	StdoutFile  = "solver.stdout"
)

// Stage is a private per-invocation working directory. No two invocations
// share a Stage, even when they start within the same clock tick.
type Stage struct {
	Dir string
}

// NewStage creates <root>/<timestamp>_<solver>_<id>.
func NewStage(root, solverName string, now time.Time) (*Stage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root %s: %w", root, err)
	}
	name := fmt.Sprintf("%s_%s_%s",
		now.UTC().Format("20060102T150405.000000000"),
		dirSafe(solverName),
		uuid.NewString()[:8],
	)
	dir := filepath.Join(root, name)
	// Mkdir fails on an existing path, so a collision can never be shared.
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stage{Dir: dir}, nil
}

// Path joins name onto the staging directory.
func (s *Stage) Path(name string) string { return filepath.Join(s.Dir, name) }

// WriteInputs writes the domain (with action extensions appended) and the
// problem description, returning their paths.
func (s *Stage) WriteInputs(domain, actionExtensions, problem string) (domainPath, problemPath string, err error) {
	domainPath = s.Path(DomainFile)
	problemPath = s.Path(ProblemFile)

	content := domain
	if strings.TrimSpace(actionExtensions) != "" {
		content = strings.TrimRight(domain, "\n") + "\n" + actionExtensions
	}
	if err := os.WriteFile(domainPath, []byte(content), 0o600); err != nil {
		return "", "", fmt.Errorf("write domain: %w", err)
	}
	if err := os.WriteFile(problemPath, []byte(problem), 0o600); err != nil {
		return "", "", fmt.Errorf("write problem: %w", err)
	}
	return domainPath, problemPath, nil
}

// Cleanup deletes everything created inside the staging directory. The
// directory itself is kept unless removeDir is set.
func (s *Stage) Cleanup(removeDir bool) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read staging dir: %w", err)
	}

	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(s.Path(e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if removeDir && len(errs) == 0 {
		if err := os.Remove(s.Dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// dirSafe maps a solver name to something usable in a directory name.
func dirSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}

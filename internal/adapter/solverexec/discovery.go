package solverexec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Discovery finds the plan files a solver left in its staging directory.
// It returns absolute paths; an empty result means no plan was found.
type Discovery func(dir string) ([]string, error)

// SingleFile discovers exactly one output file with the given name.
func SingleFile(name string) Discovery {
	return func(dir string) ([]string, error) {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", name)
		}
		return []string{path}, nil
	}
}

// Pattern discovers every file matching a glob (e.g. "sas_plan*"). Input
// and log files are never reported. Results are ordered by numeric suffix
// so "plan.10" follows "plan.9"; the order carries no priority.
func Pattern(glob string) Discovery {
	return func(dir string) ([]string, error) {
		matches, err := filepath.Glob(filepath.Join(dir, glob))
		if err != nil {
			return nil, fmt.Errorf("bad output pattern %q: %w", glob, err)
		}
		out := matches[:0]
		for _, m := range matches {
			switch filepath.Base(m) {
			case DomainFile, ProblemFile, StdoutFile:
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			out = append(out, m)
		}
		sort.SliceStable(out, func(i, j int) bool { return naturalLess(out[i], out[j]) })
		return out, nil
	}
}

// naturalLess orders "x.2" before "x.10" and falls back to string order.
func naturalLess(a, b string) bool {
	pa, na, oka := splitNumericSuffix(a)
	pb, nb, okb := splitNumericSuffix(b)
	if oka && okb && pa == pb {
		return na < nb
	}
	return a < b
}

func splitNumericSuffix(s string) (prefix string, n int, ok bool) {
	i := strings.LastIndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i == len(s)-1 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, 0, false
	}
	return s[:i+1], n, true
}

package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// sink stores records and can be slowed down to back up the queue.
type sink struct {
	mu    sync.Mutex
	recs  []slog.Record
	pause time.Duration
}

func (s *sink) Enabled(context.Context, slog.Level) bool { return true }

func (s *sink) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	time.Sleep(s.pause)
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return nil
}

func (s *sink) WithAttrs([]slog.Attr) slog.Handler { return s }
func (s *sink) WithGroup(string) slog.Handler      { return s }

func (s *sink) records() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]slog.Record(nil), s.recs...)
}

// jsonLines decodes one JSON object per line.
func jsonLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestAsyncHandlerKeepsRunAttributes(t *testing.T) {
	var buf bytes.Buffer
	ah := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16, 1)
	log := slog.New(ah).With("run_id", "run-7")

	log.Info("solver finished", "solver", "LAMA", "candidates", 3)
	log.WithGroup("outcome").Warn("solver failed", "solver", "FD", "kind", "timed_out")
	ah.Close()

	lines := jsonLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0]["run_id"] != "run-7" || lines[0]["solver"] != "LAMA" || lines[0]["candidates"] != float64(3) {
		t.Errorf("unexpected first record %v", lines[0])
	}
	group, ok := lines[1]["outcome"].(map[string]any)
	if !ok || group["kind"] != "timed_out" || lines[1]["run_id"] != "run-7" {
		t.Errorf("unexpected grouped record %v", lines[1])
	}
}

func TestAsyncHandlerParallelSolversLoseNothing(t *testing.T) {
	const solvers = 8
	const perSolver = 250

	s := &sink{}
	ah := NewAsyncHandler(s, solvers*perSolver, 4)
	base := slog.New(ah)

	var wg sync.WaitGroup
	for i := range solvers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log := base.With("solver", fmt.Sprintf("S%d", i))
			for range perSolver {
				log.Debug("solver output")
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := len(s.records()); got != solvers*perSolver {
		t.Fatalf("expected %d records, got %d", solvers*perSolver, got)
	}
	if ah.DroppedCount() != 0 {
		t.Fatalf("nothing should be dropped, got %d", ah.DroppedCount())
	}
}

func TestAsyncHandlerDiagnosticBurstIsSummarised(t *testing.T) {
	s := &sink{pause: 10 * time.Millisecond}
	ah := NewAsyncHandler(s, 1, 1)

	const burst = 50
	for range burst {
		_ = ah.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelDebug, "stderr line", 0))
	}
	ah.Close()

	dropped := ah.DroppedCount()
	if dropped == 0 {
		t.Fatal("expected part of the burst to be dropped")
	}
	recs := s.records()
	if got, want := len(recs), burst-int(dropped)+1; got != want {
		t.Fatalf("expected %d records including the summary, got %d", want, got)
	}

	summary := recs[len(recs)-1]
	if summary.Level != slog.LevelWarn {
		t.Errorf("summary level = %v, want WARN", summary.Level)
	}
	var reported int64
	summary.Attrs(func(a slog.Attr) bool {
		if a.Key == "dropped" {
			reported = a.Value.Int64()
		}
		return true
	})
	if reported != dropped {
		t.Errorf("summary reports %d dropped, handler counted %d", reported, dropped)
	}
}

func TestAsyncHandlerCloseDrainsOnce(t *testing.T) {
	s := &sink{}
	ah := NewAsyncHandler(s, 512, 2)
	child := ah.WithAttrs([]slog.Attr{slog.String("solver", "FD")}).WithGroup("run")

	for i := range 200 {
		h := slog.Handler(ah)
		if i%2 == 0 {
			h = child
		}
		_ = h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "queued", 0))
	}
	ah.Close()
	ah.Close()

	if got := len(s.records()); got != 200 {
		t.Fatalf("expected 200 records after close, got %d", got)
	}
}

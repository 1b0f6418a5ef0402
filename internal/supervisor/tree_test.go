package supervisor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingService struct {
	name   string
	starts atomic.Int32
	fails  int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.fails {
		return errors.New("boom")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestNewTree_Defaults(t *testing.T) {
	tree := NewTree(zerolog.Nop(), TreeConfig{})
	if tree.config != DefaultTreeConfig() {
		t.Fatalf("defaults not applied: %+v", tree.config)
	}
	tree = NewTree(zerolog.Nop(), TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second})
	if tree.config.FailureThreshold != 2 || tree.config.FailureBackoff != time.Second || tree.config.FailureDecay != 30 {
		t.Fatalf("overrides lost: %+v", tree.config)
	}
}

func TestTree_RestartsFailingJobAndLogs(t *testing.T) {
	buf := &syncBuffer{}
	tree := NewTree(zerolog.New(buf), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := &countingService{name: "sync-scheduler", fails: 2}
	stable := &countingService{name: "http-server"}
	tree.AddJobService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for failing.starts.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-errCh

	if failing.starts.Load() < 3 {
		t.Fatalf("failing service started %d times", failing.starts.Load())
	}
	if stable.starts.Load() != 1 {
		t.Fatalf("stable service started %d times", stable.starts.Load())
	}
	if out := buf.String(); !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "sync-scheduler") {
		t.Fatalf("expected termination to be logged, got %q", out)
	}
	if rep, err := tree.UnstoppedServiceReport(); err != nil || len(rep) != 0 {
		t.Fatalf("unstopped: %v %v", rep, err)
	}
}

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"insighthub/internal/amqp"
	"insighthub/internal/core"
	"insighthub/internal/log"
	"insighthub/internal/service"
)

type refreshCall struct {
	period string
	locale string
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls []refreshCall
	err   error
}

func (f *fakeRefresher) Refresh(_ context.Context, p core.Period, locale string) (*service.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, refreshCall{p.Key(), locale})
	if f.err != nil {
		return nil, f.err
	}
	return &service.Report{Period: p}, nil
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestWorker(r Refresher, interval time.Duration) *RefreshWorker {
	w := NewRefreshWorker(r, interval, "en", log.Discard())
	w.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }
	return w
}

func TestHandleRefreshRequest(t *testing.T) {
	window := core.Period{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}

	tests := []struct {
		name       string
		req        *amqp.RefreshRequest
		refreshErr error
		wantErr    bool
		wantCall   *refreshCall
	}{
		{
			name:     "empty request refreshes current month",
			req:      &amqp.RefreshRequest{MessageID: "1"},
			wantCall: &refreshCall{"2024-05-01_2024-05-31", "en"},
		},
		{
			name:     "explicit window and locale",
			req:      amqp.NewRefreshRequest(&window, "pt-BR"),
			wantCall: &refreshCall{"2024-03-01_2024-03-31", "pt-BR"},
		},
		{
			name: "invalid window is dropped",
			req:  &amqp.RefreshRequest{MessageID: "2", Start: "2024-03-31", End: "2024-03-01"},
		},
		{
			name:       "refresh failure is returned",
			req:        &amqp.RefreshRequest{MessageID: "3"},
			refreshErr: errors.New("upstream down"),
			wantErr:    true,
			wantCall:   &refreshCall{"2024-05-01_2024-05-31", "en"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRefresher{err: tt.refreshErr}
			w := newTestWorker(r, 0)

			err := w.HandleRefreshRequest(context.Background(), tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantCall == nil {
				if r.count() != 0 {
					t.Fatalf("unexpected refresh %+v", r.calls)
				}
				return
			}
			if r.count() != 1 || r.calls[0] != *tt.wantCall {
				t.Fatalf("calls = %+v, want %+v", r.calls, *tt.wantCall)
			}
		})
	}
}

func TestRefreshCurrent(t *testing.T) {
	r := &fakeRefresher{}
	w := newTestWorker(r, 0)
	if err := w.RefreshCurrent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.calls[0].period != "2024-05-01_2024-05-31" {
		t.Errorf("refreshed %s", r.calls[0].period)
	}

	r.err = errors.New("boom")
	if err := w.RefreshCurrent(context.Background()); !errors.Is(err, r.err) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestRefreshWorker_Lifecycle(t *testing.T) {
	r := &fakeRefresher{}
	w := newTestWorker(r, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if w.IsRunning() {
		t.Fatal("worker should not be running initially")
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if r.count() == 0 {
		t.Fatal("ticker never refreshed")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should not be running after Stop")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestRefreshWorker_StartWithoutInterval(t *testing.T) {
	w := newTestWorker(&fakeRefresher{}, 0)
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected error without an interval")
	}
}

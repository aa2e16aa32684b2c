package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestWatcher(backoff time.Duration) (*fsWatcher, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &fsWatcher{
		updates: make(chan Snapshot, 16),
		cancel:  cancel,
		backoff: backoff,
	}, ctx
}

func TestWatcherResumeSurvivesStreamErrors(t *testing.T) {
	w, ctx := newTestWatcher(time.Millisecond)
	defer w.Stop()

	boom := errors.New("boom")
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(w.updates)

		calls := 0
		w.resume(ctx, func(ctx context.Context) (bool, error) {
			calls++
			if calls <= 2 {
				return false, boom
			}
			w.deliver(ctx, Snapshot{Docs: []Document{{ID: "d1"}}})
			<-ctx.Done()
			return true, ctx.Err()
		})
	}()

	// both failures degrade the stream without closing it
	for i := 0; i < 2; i++ {
		select {
		case snap, ok := <-w.updates:
			if !ok {
				t.Fatalf("updates closed after failure %d", i+1)
			}
			if snap.Err == nil {
				t.Fatalf("delivery %d = %+v, want degraded snapshot", i+1, snap)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for degraded delivery %d", i+1)
		}
	}

	// the stream is re-established and delivers again
	select {
	case snap := <-w.updates:
		if snap.Err != nil || len(snap.Docs) != 1 {
			t.Fatalf("post-reconnect delivery = %+v, want one healthy document", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the reconnected stream")
	}

	w.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resume did not return after Stop")
	}
}

func TestWatcherResumeStopsDuringBackoff(t *testing.T) {
	w, ctx := newTestWatcher(time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.resume(ctx, func(context.Context) (bool, error) {
			return false, errors.New("boom")
		})
	}()

	select {
	case snap := <-w.updates:
		if snap.Err == nil {
			t.Fatalf("delivery = %+v, want degraded snapshot", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for degraded delivery")
	}

	w.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("resume did not return after Stop during backoff")
	}
}

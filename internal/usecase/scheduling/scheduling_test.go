package scheduling

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(newTestLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSchedulerActionFires(t *testing.T) {
	var count atomic.Int32

	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	if err := s.AddTask(ScheduledTask{
		Name: "tick", Schedule: "50ms", Action: ActionSynthesize,
	}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if c := count.Load(); c < 1 {
		t.Errorf("action fired %d times, expected at least 1", c)
	}
}

func TestSchedulerUnknownAction(t *testing.T) {
	s := NewScheduler(newTestLogger())

	err := s.AddTask(ScheduledTask{
		Name: "unknown", Schedule: "100ms", Action: "does_not_exist",
	})
	if err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestSchedulerContextCancellation(t *testing.T) {
	var count atomic.Int32

	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	s.AddTask(ScheduledTask{
		Name: "ctx-task", Schedule: "50ms", Action: ActionSynthesize,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(150 * time.Millisecond)
	cancel()
	s.Stop()

	countAfterCancel := count.Load()
	time.Sleep(100 * time.Millisecond)

	if count.Load() != countAfterCancel {
		t.Error("task continued after context cancellation")
	}
}

func TestSchedulerMultipleTasks(t *testing.T) {
	var tickCount, healthCount atomic.Int32

	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error {
		tickCount.Add(1)
		return nil
	})
	s.RegisterAction(ActionHealthReport, func(ctx context.Context) error {
		healthCount.Add(1)
		return nil
	})

	s.AddTask(ScheduledTask{Name: "tick", Schedule: "50ms", Action: ActionSynthesize})
	s.AddTask(ScheduledTask{Name: "health", Schedule: "50ms", Action: ActionHealthReport})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if tickCount.Load() < 1 {
		t.Error("synthesize action never fired")
	}
	if healthCount.Load() < 1 {
		t.Error("health_report action never fired")
	}
}

func TestSchedulerActionError(t *testing.T) {
	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error {
		return fmt.Errorf("simulated error")
	})
	s.AddTask(ScheduledTask{Name: "failing", Schedule: "50ms", Action: ActionSynthesize})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	time.Sleep(150 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSchedulerDoubleStop(t *testing.T) {
	s := NewScheduler(newTestLogger())
	s.Start(context.Background())

	if err := s.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(newTestLogger())
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop without start: %v", err)
	}
}

func TestSchedulerOneShot(t *testing.T) {
	var count atomic.Int32

	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})
	if err := s.AddTask(ScheduledTask{
		Name: "one-shot", Schedule: "50ms", Action: ActionSynthesize, OneShot: true,
	}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// Wait for first fire + extra cycles.
	time.Sleep(300 * time.Millisecond)
	s.Stop()

	if c := count.Load(); c != 1 {
		t.Errorf("one-shot fired %d times, expected exactly 1", c)
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	s := NewScheduler(newTestLogger())
	s.RegisterAction(ActionSynthesize, func(ctx context.Context) error { return nil })

	err := s.AddTask(ScheduledTask{Name: "bad", Schedule: "not-valid", Action: ActionSynthesize})
	if err == nil {
		t.Error("expected error for invalid schedule string")
	}
}

func TestParseScheduleCron(t *testing.T) {
	sched, err := parseSchedule("*/5 * * * *")
	if err != nil {
		t.Fatalf("parseSchedule cron: %v", err)
	}
	if sched == nil {
		t.Fatal("expected non-nil schedule")
	}
}

func TestParseScheduleDuration(t *testing.T) {
	for _, in := range []string{"30m", "60s", "100ms"} {
		sched, err := parseSchedule(in)
		if err != nil {
			t.Fatalf("parseSchedule %q: %v", in, err)
		}
		if sched == nil {
			t.Fatalf("expected non-nil schedule for %q", in)
		}
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	for _, in := range []string{"", "not-a-schedule", "-5m"} {
		if _, err := parseSchedule(in); err == nil {
			t.Errorf("expected error for schedule %q", in)
		}
	}
}

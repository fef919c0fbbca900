package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/samirrijal/kadal/internal/pkg/resilience"
)

func TestNewBreaker_OpensAfterFailures(t *testing.T) {
	cb := resilience.NewBreaker[string]("test-open", resilience.BreakerSettings{MinRequests: 3, FailureRatio: 0.5})
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (string, error) { return "", boom })
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	_, err := cb.Execute(func() (string, error) { return "ok", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestNewBreaker_StaysClosedBelowMinimum(t *testing.T) {
	cb := resilience.NewBreaker[int]("test-min", resilience.BreakerSettings{MinRequests: 10})

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, errors.New("boom") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestStateValue(t *testing.T) {
	if resilience.StateValue(gobreaker.StateClosed) != 0 ||
		resilience.StateValue(gobreaker.StateHalfOpen) != 1 ||
		resilience.StateValue(gobreaker.StateOpen) != 2 {
		t.Error("unexpected state mapping")
	}
}

func TestNewBreaker_SuccessfulErrorsDoNotTrip(t *testing.T) {
	notFound := errors.New("no match")
	cb := resilience.NewBreaker[int]("test-successful", resilience.BreakerSettings{
		MinRequests: 2,
		Successful:  func(err error) bool { return errors.Is(err, notFound) },
	})

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, notFound })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) PingContext(_ context.Context) error { return m.err }

type mockConversionChecker struct {
	err error
}

func (m *mockConversionChecker) Health(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockConversionChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Checks["conversion"] != CheckOK {
		t.Errorf("expected conversion %q, got %q", CheckOK, r.Checks["conversion"])
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockConversionChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["conversion"] != CheckOK {
		t.Errorf("expected conversion %q, got %q", CheckOK, r.Checks["conversion"])
	}
}

func TestCheck_ConversionError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockConversionChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["conversion"] != CheckError {
		t.Errorf("expected conversion %q, got %q", CheckError, r.Checks["conversion"])
	}
}

func TestCheck_NoConversionChecker(t *testing.T) {
	svc := New(&mockDBPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["conversion"]; ok {
		t.Error("conversion check should be absent when checker is nil")
	}
}

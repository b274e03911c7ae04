package ledger

import (
	"errors"
	"testing"
)

func TestTransitions(t *testing.T) {
	l := New()

	if st := l.StatusOf(7); st != StatusNone {
		t.Fatalf("expected None for unseen nonce, got %s", st)
	}

	if err := l.SetPending(7); err != nil {
		t.Fatalf("None -> Pending failed: %v", err)
	}
	if st := l.StatusOf(7); st != StatusPending {
		t.Fatalf("expected Pending, got %s", st)
	}

	if err := l.SetDone(7); err != nil {
		t.Fatalf("Pending -> Done failed: %v", err)
	}
	if st := l.StatusOf(7); st != StatusDone {
		t.Fatalf("expected Done, got %s", st)
	}
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(l *Ledger)
		op      func(l *Ledger) error
		wantErr error
	}{
		{
			name:    "None -> Done",
			setup:   func(*Ledger) {},
			op:      func(l *Ledger) error { return l.SetDone(1) },
			wantErr: ErrNotPending,
		},
		{
			name:    "Pending -> Pending",
			setup:   func(l *Ledger) { _ = l.SetPending(1) },
			op:      func(l *Ledger) error { return l.SetPending(1) },
			wantErr: ErrAlreadySeen,
		},
		{
			name: "Done -> Pending",
			setup: func(l *Ledger) {
				_ = l.SetPending(1)
				_ = l.SetDone(1)
			},
			op:      func(l *Ledger) error { return l.SetPending(1) },
			wantErr: ErrAlreadySeen,
		},
		{
			name: "Done -> Done",
			setup: func(l *Ledger) {
				_ = l.SetPending(1)
				_ = l.SetDone(1)
			},
			op:      func(l *Ledger) error { return l.SetDone(1) },
			wantErr: ErrNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			tt.setup(l)
			err := tt.op(l)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRestore(t *testing.T) {
	l := New()
	if err := l.Restore(map[uint64]Status{
		1: StatusPending,
		2: StatusDone,
		3: StatusNone,
	}); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if st := l.StatusOf(1); st != StatusPending {
		t.Errorf("nonce 1: expected Pending, got %s", st)
	}
	if st := l.StatusOf(2); st != StatusDone {
		t.Errorf("nonce 2: expected Done, got %s", st)
	}
	if st := l.StatusOf(3); st != StatusNone {
		t.Errorf("nonce 3: expected None, got %s", st)
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 tracked nonces, got %d", l.Len())
	}
}

func TestRestoreRefusesDowngrade(t *testing.T) {
	l := New()
	if err := l.SetPending(5); err != nil {
		t.Fatal(err)
	}
	if err := l.SetDone(5); err != nil {
		t.Fatal(err)
	}

	if err := l.Restore(map[uint64]Status{5: StatusPending}); err == nil {
		t.Fatal("expected downgrade to be rejected")
	}

	if st := l.StatusOf(5); st != StatusDone {
		t.Errorf("expected Done to survive, got %s", st)
	}
}

func TestStatusStringRoundTrip(t *testing.T) {
	for _, st := range []Status{StatusNone, StatusPending, StatusDone} {
		parsed, err := ParseStatus(st.String())
		if err != nil {
			t.Fatalf("parse %s: %v", st, err)
		}
		if parsed != st {
			t.Errorf("round trip %s: got %s", st, parsed)
		}
	}

	if _, err := ParseStatus("BOGUS"); err == nil {
		t.Error("expected error for unknown status string")
	}
}

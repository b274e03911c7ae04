package ledger

import (
	"fmt"
	"sync"
)

// Status represents the lifecycle state of a single cross-domain transfer
// as observed by the attested burn/mint relay.
type Status uint8

const (
	// StatusNone means no relay has ever been observed for this nonce.
	StatusNone Status = iota
	// StatusPending means the domain messenger delivered the withdrawal
	// notification but the attested mint has not been claimed yet.
	StatusPending
	// StatusDone means the attested mint has been claimed. Terminal.
	StatusDone
)

// String returns the persisted representation of a status.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusPending:
		return "PENDING"
	case StatusDone:
		return "DONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// ParseStatus parses the persisted representation back into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "NONE":
		return StatusNone, nil
	case "PENDING":
		return StatusPending, nil
	case "DONE":
		return StatusDone, nil
	default:
		return StatusNone, fmt.Errorf("unknown transfer status %q", s)
	}
}

// Transition errors. Callers distinguish replay from premature claims by
// matching against these with errors.Is.
var (
	// ErrAlreadySeen is returned when SetPending finds the nonce past None.
	ErrAlreadySeen = fmt.Errorf("transfer already relayed")
	// ErrNotPending is returned when SetDone finds the nonce not Pending.
	ErrNotPending = fmt.Errorf("transfer not pending")
)

// Ledger is an append-only map from transfer nonce to Status. The only legal
// transition chain is None -> Pending -> Done; entries are never deleted and
// never revisited once Done. Each transition is a single compare-and-set
// under the internal mutex, which is never held across external calls.
type Ledger struct {
	mu       sync.Mutex
	statuses map[uint64]Status
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{statuses: make(map[uint64]Status)}
}

// StatusOf returns the status for a nonce, StatusNone if unseen.
func (l *Ledger) StatusOf(nonce uint64) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statuses[nonce]
}

// SetPending transitions nonce from None to Pending.
func (l *Ledger) SetPending(nonce uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur := l.statuses[nonce]; cur != StatusNone {
		return fmt.Errorf("nonce %d: status %s: %w", nonce, cur, ErrAlreadySeen)
	}
	l.statuses[nonce] = StatusPending
	return nil
}

// SetDone transitions nonce from Pending to Done.
func (l *Ledger) SetDone(nonce uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur := l.statuses[nonce]; cur != StatusPending {
		return fmt.Errorf("nonce %d: status %s: %w", nonce, cur, ErrNotPending)
	}
	l.statuses[nonce] = StatusDone
	return nil
}

// Restore replays persisted statuses into the ledger at startup. It refuses
// to downgrade: an entry already at Done stays Done, an entry at Pending can
// only move to Done. None entries in the input are ignored.
func (l *Ledger) Restore(statuses map[uint64]Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for nonce, status := range statuses {
		if status == StatusNone {
			continue
		}
		if cur := l.statuses[nonce]; status < cur {
			return fmt.Errorf("nonce %d: refusing to restore %s over %s", nonce, status, cur)
		}
		l.statuses[nonce] = status
	}
	return nil
}

// Snapshot returns a copy of the full nonce -> status mapping.
func (l *Ledger) Snapshot() map[uint64]Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[uint64]Status, len(l.statuses))
	for nonce, status := range l.statuses {
		out[nonce] = status
	}
	return out
}

// Len returns the number of tracked nonces.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.statuses)
}

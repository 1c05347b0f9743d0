package engine

import (
	"github.com/coinsim/trade-engine/internal/model"
)

// Ledger is the append-only trade log. Every attempted action — executed,
// rejected, or cancelled — is recorded here in append order. Entries are
// never modified or removed.
type Ledger struct {
	entries []model.LedgerEntry
}

// Record appends an entry. It never fails.
func (l *Ledger) Record(e model.LedgerEntry) {
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in append order.
func (l *Ledger) Entries() []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

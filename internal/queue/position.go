// Package queue computes a requester's place in the global pending
// queue. It is deliberately free of any data access: callers pass a
// fresh snapshot of the pending set and the package only sorts and
// ranks it, so the same code serves the HTTP layer and the tests.
package queue

import (
	"sort"
	"time"
)

// PendingTransaction is the slice of a transaction the calculator
// needs: identity, owner, and arrival time.
type PendingTransaction struct {
	ID          string
	RequesterID string
	CreatedAt   time.Time
}

// Position is the result of a rank computation. Rank is 1-based and
// only meaningful when Found is true.
type Position struct {
	Found bool
	Rank  int
}

// ComputePosition returns the 1-based rank of the requester's latest
// pending transaction within the whole pending set ordered by arrival.
// A requester with several pending transactions is shown the rank of
// the most recent one; their earlier submissions are ahead of it and
// will be reached first. Ties on arrival time are broken by
// transaction id ascending so ranks are stable across refreshes.
func ComputePosition(pending []PendingTransaction, requesterID string) Position {
	if len(pending) == 0 || requesterID == "" {
		return Position{}
	}

	ordered := make([]PendingTransaction, len(pending))
	copy(ordered, pending)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	// Latest submission of this requester is the last of their
	// entries in the ordered set.
	latest := -1
	for i, tx := range ordered {
		if tx.RequesterID == requesterID {
			latest = i
		}
	}
	if latest < 0 {
		return Position{}
	}

	return Position{Found: true, Rank: latest + 1}
}

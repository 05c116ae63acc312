package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// fundingMarginPercent covers price drift between quote and settlement.
const fundingMarginPercent = 105

// FundingAmount is price plus the safety margin, rounded up to a whole unit.
func FundingAmount(price int64) int64 {
	if price <= 0 {
		return 0
	}
	return (price*fundingMarginPercent + 99) / 100
}

// FundingQueue serializes the price, fund and upload steps per signer so
// two flows of one wallet never race on its gateway balance. Different
// signers proceed independently. A signer's slot is dropped once nobody
// holds or waits for it.
type FundingQueue struct {
	mu    sync.Mutex
	slots map[string]*fundingSlot
}

type fundingSlot struct {
	sem  *semaphore.Weighted
	refs int
}

func NewFundingQueue() *FundingQueue {
	return &FundingQueue{slots: make(map[string]*fundingSlot)}
}

func (q *FundingQueue) acquire(signer string) *fundingSlot {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.slots[signer]
	if !ok {
		s = &fundingSlot{sem: semaphore.NewWeighted(1)}
		q.slots[signer] = s
	}
	s.refs++
	return s
}

func (q *FundingQueue) release(signer string, s *fundingSlot) {
	q.mu.Lock()
	defer q.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(q.slots, signer)
	}
}

// Do runs fn while holding signer's slot. Waiting honors ctx; once fn has
// started it runs to completion.
func (q *FundingQueue) Do(ctx context.Context, signer string, fn func(ctx context.Context) error) error {
	s := q.acquire(signer)
	defer q.release(signer, s)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	return fn(context.WithoutCancel(ctx))
}

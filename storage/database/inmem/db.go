// Package inmemdb is the storage of the sandbox API: every table lives in memory behind one lock.
package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/seminarist"
)

type DB struct {
	year    int
	nowFunc func() time.Time

	mu           sync.RWMutex
	participants map[int]*seminarist.Participant
	notes        map[int]*grading.Note
	users        map[int]*account.User
	feedbacks    map[int]*feedback.Feedback

	// primary keys; matricules use participantSeq
	participantSeq int
	noteSeq        int
	userSeq        int
	feedbackSeq    int
}

type Option func(*DB)

// WithYear sets the year embedded in new matricules.
func WithYear(year int) Option {
	return func(db *DB) { db.year = year }
}

// WithClock overrides time.Now; for tests.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.nowFunc = now }
}

func New(opts ...Option) *DB {
	db := &DB{
		nowFunc:      time.Now,
		participants: make(map[int]*seminarist.Participant),
		notes:        make(map[int]*grading.Note),
		users:        make(map[int]*account.User),
		feedbacks:    make(map[int]*feedback.Feedback),
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.year == 0 {
		db.year = db.nowFunc().Year()
	}
	return db
}

func (db *DB) now() time.Time { return db.nowFunc().UTC() }

// sortedIDs returns the keys of a table in insertion order.
func sortedIDs[T any](table map[int]*T) []int {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func rows[T any](table map[int]*T) []T {
	out := make([]T, 0, len(table))
	for _, id := range sortedIDs(table) {
		out = append(out, *table[id])
	}
	return out
}

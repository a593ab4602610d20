// Package platform provides the shared repository machinery: time-derived
// record identifiers and a generic collection persisted through kvstore.
package platform

import (
	"strings"
	"sync"
	"time"
)

// ID identifies a stored record. IDs are derived from the wall clock in
// milliseconds and compared by value; when the clock has not advanced since
// the previous call the generator bumps by one so ids stay unique and
// strictly increasing within a process.
type ID int64

var (
	idMu   sync.Mutex
	lastID ID
)

func NewID() ID {
	idMu.Lock()
	defer idMu.Unlock()
	id := ID(time.Now().UnixMilli())
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}

// Today returns the creation-date string stamped on new records.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// Record is any stored entity addressable by its identifier.
type Record interface {
	RecordID() ID
}

// ContainsFold reports whether substr occurs in s, case-insensitively.
// All textual search in the platform is a plain substring match.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package inmemdb

import (
	"sync"

	"github.com/cutm/results/core/result"
)

type (
	DB struct {
		record *recordTable
	}

	// recordTable keeps rows in display order; index maps a roll to its row.
	recordTable struct {
		sync.RWMutex
		rows  []*result.Record
		index map[string]int
	}
)

func Open() (*DB, error) {
	db := &DB{
		record: &recordTable{index: make(map[string]int)},
	}
	return db, nil
}

// Package storage persists ledger snapshots and the append-only event journal
// on leveldb. The snapshot is the canonical RLP state produced by the ledger;
// the journal preserves the exact emission order the audit contract requires.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"entledger/core/types"
)

var (
	snapshotKey      = []byte("ledger/snapshot")
	journalSeqKey    = []byte("journal/seq")
	journalKeyPrefix = []byte("journal/event/")
)

// SequencedEvent pairs a journal entry with its position in the global order.
type SequencedEvent struct {
	Seq   uint64       `json:"seq"`
	Event *types.Event `json:"event"`
}

// Store owns the leveldb handle backing snapshots and the event journal.
type Store struct {
	db *leveldb.DB
}

// Open opens (or creates) the store at the given directory.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory backs the store with leveldb's memory storage. Intended for
// tests and ephemeral deployments.
func OpenInMemory() (*Store, error) {
	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open in-memory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutSnapshot replaces the persisted ledger snapshot.
func (s *Store) PutSnapshot(data []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage: store not initialised")
	}
	return s.db.Put(snapshotKey, data, nil)
}

// Snapshot returns the persisted ledger snapshot. The second return value is
// false when no snapshot has been written yet.
func (s *Store) Snapshot() ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage: store not initialised")
	}
	data, err := s.db.Get(snapshotKey, nil)
	if err == ldberrors.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// AppendEvent adds an event to the journal and returns its sequence number.
// The sequence counter and the record are written in one batch so a crash
// cannot leave them inconsistent.
func (s *Store) AppendEvent(evt *types.Event) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage: store not initialised")
	}
	if evt == nil {
		return 0, fmt.Errorf("storage: event must not be nil")
	}
	seq, err := s.nextSeq()
	if err != nil {
		return 0, err
	}
	payload, err := json.Marshal(SequencedEvent{Seq: seq, Event: evt})
	if err != nil {
		return 0, fmt.Errorf("storage: encode event: %w", err)
	}
	batch := new(leveldb.Batch)
	batch.Put(journalSeqKey, encodeSeq(seq))
	batch.Put(journalKey(seq), payload)
	if err := s.db.Write(batch, nil); err != nil {
		return 0, err
	}
	return seq, nil
}

// Events replays journal entries with sequence numbers greater than after, up
// to limit entries (no limit when limit <= 0), preserving emission order.
func (s *Store) Events(after uint64, limit int) ([]SequencedEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage: store not initialised")
	}
	iter := s.db.NewIterator(util.BytesPrefix(journalKeyPrefix), nil)
	defer iter.Release()

	var out []SequencedEvent
	for ok := iter.Seek(journalKey(after + 1)); ok; ok = iter.Next() {
		var entry SequencedEvent
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return nil, fmt.Errorf("storage: decode journal entry: %w", err)
		}
		out = append(out, entry)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// LastSeq returns the sequence number of the newest journal entry, zero when
// the journal is empty.
func (s *Store) LastSeq() (uint64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("storage: store not initialised")
	}
	raw, err := s.db.Get(journalSeqKey, nil)
	if err == ldberrors.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("storage: corrupt journal sequence")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (s *Store) nextSeq() (uint64, error) {
	last, err := s.LastSeq()
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func journalKey(seq uint64) []byte {
	key := make([]byte, len(journalKeyPrefix)+8)
	copy(key, journalKeyPrefix)
	binary.BigEndian.PutUint64(key[len(journalKeyPrefix):], seq)
	return key
}

func encodeSeq(seq uint64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, seq)
	return out
}

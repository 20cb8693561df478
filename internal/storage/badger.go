package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"tourney/internal/model"
)

const (
	runPrefix        = "run/"
	generationPrefix = "gen/"
	championPrefix   = "champion/"
)

// BadgerStore keeps records in a badger key-value database. Keys are the
// record kind prefix followed by the run id; values are the JSON codec
// payloads.
type BadgerStore struct {
	path string

	mu sync.RWMutex
	db *badger.DB
}

// NewBadgerStore opens dir on Init; an empty dir keeps everything in memory.
func NewBadgerStore(dir string) *BadgerStore {
	return &BadgerStore{path: dir}
}

func (s *BadgerStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	opts := badger.DefaultOptions(s.path).WithLogger(nil)
	if s.path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger store: %w", err)
	}
	s.db = db
	return nil
}

func (s *BadgerStore) SaveRun(_ context.Context, run model.RunRecord) error {
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	return s.put(runPrefix+run.ID, payload)
}

func (s *BadgerStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	payload, ok, err := s.get(runPrefix + id)
	if err != nil || !ok {
		return model.RunRecord{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunRecord{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *BadgerStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var runs []model.RunRecord
	err = db.View(func(txn *badger.Txn) error {
		prefix := []byte(runPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			payload, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			run, err := DecodeRun(payload)
			if err != nil {
				return fmt.Errorf("decode run %s: %w", item.Key()[len(prefix):], err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func (s *BadgerStore) SaveGenerations(_ context.Context, runID string, generations []model.GenerationRecord) error {
	payload, err := EncodeGenerations(generations)
	if err != nil {
		return err
	}
	return s.put(generationPrefix+runID, payload)
}

func (s *BadgerStore) GetGenerations(_ context.Context, runID string) ([]model.GenerationRecord, bool, error) {
	payload, ok, err := s.get(generationPrefix + runID)
	if err != nil || !ok {
		return nil, false, err
	}
	generations, err := DecodeGenerations(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode generations %s: %w", runID, err)
	}
	return generations, true, nil
}

func (s *BadgerStore) SaveChampion(_ context.Context, champion model.ChampionRecord) error {
	payload, err := EncodeChampion(champion)
	if err != nil {
		return err
	}
	return s.put(championPrefix+champion.RunID, payload)
}

func (s *BadgerStore) GetChampion(_ context.Context, runID string) (model.ChampionRecord, bool, error) {
	payload, ok, err := s.get(championPrefix + runID)
	if err != nil || !ok {
		return model.ChampionRecord{}, false, err
	}
	champion, err := DecodeChampion(payload)
	if err != nil {
		return model.ChampionRecord{}, false, fmt.Errorf("decode champion %s: %w", runID, err)
	}
	return champion, true, nil
}

func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *BadgerStore) put(key string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
}

func (s *BadgerStore) get(key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *BadgerStore) getDB() (*badger.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

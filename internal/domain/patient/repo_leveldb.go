package patient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	levelRecordPrefix = "patient/"
	levelSeqKey       = "meta/seq"
)

// levelRepo keeps each record under "patient/<20-digit seq>" so that key
// order is insertion order. Values use the same line encoding as the file
// backend.
type levelRepo struct {
	db *leveldb.DB
	mu sync.Mutex
}

// OpenLevelDBRepo opens (or creates) the LevelDB database at path. The
// returned close func must be called on shutdown.
func OpenLevelDBRepo(path string) (Repository, func() error, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &levelRepo{db: db}, db.Close, nil
}

func levelKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", levelRecordPrefix, seq))
}

func (r *levelRepo) Create(_ context.Context, p *Patient) error {
	line, err := p.MarshalLine()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seq, err := r.lastSeq()
	if err != nil {
		return err
	}
	seq++

	batch := new(leveldb.Batch)
	batch.Put(levelKey(seq), []byte(line))
	batch.Put([]byte(levelSeqKey), []byte(strconv.FormatUint(seq, 10)))
	if err := r.db.Write(batch, nil); err != nil {
		return fmt.Errorf("store patient %s: %w", p.CI, err)
	}
	return nil
}

func (r *levelRepo) List(_ context.Context) ([]*Patient, error) {
	entries, err := r.scan()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyList
	}
	patients := make([]*Patient, len(entries))
	for i, e := range entries {
		patients[i] = e.patient
	}
	return patients, nil
}

func (r *levelRepo) GetByCI(_ context.Context, ci string) (*Patient, error) {
	entries, err := r.scan()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.patient.CI == ci {
			return e.patient, nil
		}
	}
	return nil, notFound(ci)
}

func (r *levelRepo) Update(_ context.Context, ci, name, lastName string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.scan()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.patient.CI != ci {
			continue
		}
		e.patient.Name = name
		e.patient.LastName = lastName
		line, err := e.patient.MarshalLine()
		if err != nil {
			return nil, err
		}
		if err := r.db.Put(e.key, []byte(line), nil); err != nil {
			return nil, fmt.Errorf("update patient %s: %w", ci, err)
		}
		return e.patient, nil
	}
	return nil, notFound(ci)
}

func (r *levelRepo) Delete(_ context.Context, ci string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.scan()
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, e := range entries {
		if e.patient.CI == ci {
			batch.Delete(e.key)
		}
	}
	if batch.Len() == 0 {
		return notFound(ci)
	}
	if err := r.db.Write(batch, nil); err != nil {
		return fmt.Errorf("delete patient %s: %w", ci, err)
	}
	return nil
}

type levelEntry struct {
	key     []byte
	patient *Patient
}

func (r *levelRepo) scan() ([]levelEntry, error) {
	iter := r.db.NewIterator(util.BytesPrefix([]byte(levelRecordPrefix)), nil)
	defer iter.Release()

	var entries []levelEntry
	for iter.Next() {
		p, err := ParseLine(string(iter.Value()))
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", iter.Key(), err)
		}
		key := append([]byte(nil), iter.Key()...)
		entries = append(entries, levelEntry{key: key, patient: p})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return entries, nil
}

func (r *levelRepo) lastSeq() (uint64, error) {
	v, err := r.db.Get([]byte(levelSeqKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	seq, err := strconv.ParseUint(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sequence %q: %w", v, err)
	}
	return seq, nil
}

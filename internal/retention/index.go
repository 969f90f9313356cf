package retention

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kodflow/spiketrace/internal/dump"
)

var bucketDumps = []byte("dumps")

// Index is the embedded metadata store recording one entry per dump file,
// keyed by a big-endian timestamp so iteration is chronological for free.
type Index struct {
	db *bolt.DB
}

// OpenIndex opens (creating if absent) the bbolt index file at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open retention index: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDumps)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init retention index schema: %w", err)
	}
	return idx, nil
}

// Record inserts or overwrites the metadata entry for one dump file.
func (idx *Index) Record(rec Record) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDumps)
		value, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		return b.Put(timeKey(rec.CreatedAtNs), value)
	})
}

// All returns every indexed record, oldest first.
func (idx *Index) All() ([]Record, error) {
	var out []Record
	err := idx.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDumps)
		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := decodeRecord(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	return out, err
}

// Delete removes the indexed entry for the dump created at createdAtNs.
func (idx *Index) Delete(createdAtNs int64) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDumps).Delete(timeKey(createdAtNs))
	})
}

// Close releases the database file.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func timeKey(ns int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(ns))
	return buf[:]
}

func encodeRecord(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("gob encode dump record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, dest *Record) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(dest)
}

// DumpIndexAdapter satisfies dump.Indexer over an Index, translating the
// writer's IndexRecord into this package's own Record shape so dump never
// needs to import retention.
type DumpIndexAdapter struct {
	Index *Index
}

func (a DumpIndexAdapter) Record(rec dump.IndexRecord) error {
	return a.Index.Record(Record{
		Filename:    rec.Filename,
		CreatedAtNs: rec.CreatedAtNs,
		SizeBytes:   rec.SizeBytes,
		TriggerKind: rec.TriggerKind,
	})
}

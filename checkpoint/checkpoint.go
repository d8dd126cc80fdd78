// Package checkpoint stores sampler and model state in a bolt
// database so that an interrupted run can be resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all checkpoints.
var MAIN = []byte("main")

// CheckpointData stores checkpoint data.
type CheckpointData struct {
	// RunID identifies the run which saved the checkpoint.
	RunID      string
	Parameters map[string]float64
	Likelihood float64
	Iter       int
	Final      bool
	// State is a model specific state, e.g. per-pattern allelic
	// coverage statistics.
	State json.RawMessage `json:",omitempty"`
}

// CheckpointIO saves and loads checkpoints under a key.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) (s *CheckpointIO) {
	s = &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
	return
}

// Save saves checkpoint to the database given all the values needed.
func (s *CheckpointIO) Save(data *CheckpointData) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Errorf("Error serializing checkpoint: %v", err)
		return err
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Errorf("Error saving checkpoint: %v", err)
	}
	return err
}

// Load returns the checkpoint data or nil if there is no
// checkpoint.
func (s *CheckpointIO) Load() (*CheckpointData, error) {
	var data *CheckpointData

	b, err := LoadData(s.db, s.key)

	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &data)

	if err != nil {
		return nil, err
	}

	if data == nil || len(data.Parameters) == 0 {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished checkpoint of run %v (iter=%v, lnL=%v)", data.RunID, data.Iter, data.Likelihood)
	} else {
		log.Noticef("Found unfinished checkpoint of run %v (iter=%v, lnL=%v)", data.RunID, data.Iter, data.Likelihood)
	}

	return data, nil
}

// Old returns true if last checkpoint save time too long ago.
func (s *CheckpointIO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		v := b.Get(key)
		if v != nil {
			// v is only valid within the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"
)

func init() {
	logging.SetLevel(logging.WARNING, "checkpoint")
}

func TestSaveLoad(tst *testing.T) {
	db, err := bolt.Open(filepath.Join(tst.TempDir(), "cp.db"), 0600, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	defer db.Close()

	cp := NewCheckpointIO(db, []byte("run"), 60)
	if data, err := cp.Load(); err != nil || data != nil {
		tst.Fatal("Expected no checkpoint, got ", data, err)
	}
	err = cp.Save(&CheckpointData{
		RunID:      "abc",
		Parameters: map[string]float64{"adoRate": 0.1},
		Likelihood: -12.5,
		Iter:       100,
		State:      []byte(`{"cov":[1,2]}`),
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if cp.Old() {
		tst.Error("Checkpoint was just saved")
	}

	data, err := cp.Load()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if data.Iter != 100 || data.Likelihood != -12.5 || data.Parameters["adoRate"] != 0.1 {
		tst.Error("Unexpected checkpoint: ", data)
	}
	if string(data.State) != `{"cov":[1,2]}` {
		tst.Error("Unexpected state: ", string(data.State))
	}

	other := NewCheckpointIO(db, []byte("other"), 60)
	if data, _ := other.Load(); data != nil {
		tst.Error("Checkpoints with different keys should be independent")
	}
}

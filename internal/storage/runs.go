package storage

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"github.com/hakim/tlsgrind/internal/models"
	"go.etcd.io/bbolt"
)

// SaveRun persists an ingestion run record and indexes it by report directory
func (s *Store) SaveRun(run *models.IngestRun) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return err
		}

		runs := tx.Bucket([]byte(bucketRuns))
		if err := runs.Put([]byte(run.ID), data); err != nil {
			return err
		}

		// Update run index (report dir -> []run_id mapping)
		index := tx.Bucket([]byte(bucketRunIndex))
		key := []byte(run.ReportDir)

		var runIDs []string
		if existing := index.Get(key); existing != nil {
			if err := json.Unmarshal(existing, &runIDs); err != nil {
				return err
			}
		}

		if !slices.Contains(runIDs, run.ID) {
			runIDs = append(runIDs, run.ID)
		}

		indexData, err := json.Marshal(runIDs)
		if err != nil {
			return err
		}
		return index.Put(key, indexData)
	})
}

// GetRun retrieves a run record by ID. It returns nil, nil when absent.
func (s *Store) GetRun(id string) (*models.IngestRun, error) {
	var run *models.IngestRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketRuns)).Get([]byte(id))
		if data == nil {
			return nil
		}

		run = &models.IngestRun{}
		return json.Unmarshal(data, run)
	})

	return run, err
}

// ListRuns retrieves all runs for a report directory, newest first.
// An empty reportDir lists every run.
func (s *Store) ListRuns(reportDir string) ([]*models.IngestRun, error) {
	var runs []*models.IngestRun

	err := s.db.View(func(tx *bbolt.Tx) error {
		runsBucket := tx.Bucket([]byte(bucketRuns))

		if reportDir == "" {
			return runsBucket.ForEach(func(_, v []byte) error {
				var run models.IngestRun
				if err := json.Unmarshal(v, &run); err != nil {
					return err
				}
				runs = append(runs, &run)
				return nil
			})
		}

		data := tx.Bucket([]byte(bucketRunIndex)).Get([]byte(reportDir))
		if data == nil {
			return nil
		}

		var runIDs []string
		if err := json.Unmarshal(data, &runIDs); err != nil {
			return err
		}

		for _, id := range runIDs {
			runData := runsBucket.Get([]byte(id))
			if runData == nil {
				continue
			}
			var run models.IngestRun
			if err := json.Unmarshal(runData, &run); err != nil {
				return err
			}
			runs = append(runs, &run)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

// GetLatestRun retrieves the most recent run for a report directory
func (s *Store) GetLatestRun(reportDir string) (*models.IngestRun, error) {
	runs, err := s.ListRuns(reportDir)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// FinishRun sets the terminal status of a run and stamps CompletedAt
func (s *Store) FinishRun(id string, status models.RunStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(bucketRuns))

		data := runs.Get([]byte(id))
		if data == nil {
			return nil // Not found, no-op
		}

		var run models.IngestRun
		if err := json.Unmarshal(data, &run); err != nil {
			return err
		}

		run.Status = status
		if (status == models.StatusComplete || status == models.StatusPartial || status == models.StatusFailed) && run.CompletedAt == nil {
			now := time.Now()
			run.CompletedAt = &now
		}

		updated, err := json.Marshal(&run)
		if err != nil {
			return err
		}
		return runs.Put([]byte(id), updated)
	})
}

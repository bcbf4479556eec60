package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/san-kum/pidlab/internal/metrics"
)

const runKeyPrefix = "run:"

// Rank returns stored runs ordered by the named metric, smallest first,
// keeping at most n of them (all when n <= 0). Runs without a stored value
// for the metric are left out.
func (s *Store) Rank(metric string, n int) ([]RunMetadata, error) {
	if !slices.Contains(metrics.Names(), metric) {
		return nil, fmt.Errorf("unknown metric: %s (available: %v)", metric, metrics.Names())
	}
	runs, err := s.List()
	if err != nil {
		return nil, err
	}

	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.CreateIndex(metric, runKeyPrefix+"*", buntdb.IndexJSON("metrics."+metric)); err != nil {
		return nil, err
	}

	byID := make(map[string]RunMetadata, len(runs))
	err = db.Update(func(tx *buntdb.Tx) error {
		for _, run := range runs {
			if _, ok := run.Metrics[metric]; !ok {
				continue
			}
			data, err := json.Marshal(run)
			if err != nil {
				return fmt.Errorf("run %s: %w", run.ID, err)
			}
			if _, _, err := tx.Set(runKeyPrefix+run.ID, string(data), nil); err != nil {
				return err
			}
			byID[run.ID] = run
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]RunMetadata, 0, len(byID))
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(metric, func(key, _ string) bool {
			ranked = append(ranked, byID[strings.TrimPrefix(key, runKeyPrefix)])
			return n <= 0 || len(ranked) < n
		})
	})
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

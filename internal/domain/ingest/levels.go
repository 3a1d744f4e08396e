package ingest

import (
	"strings"

	"github.com/okian/stagerank/internal/domain/model"
)

// ValidateLevels rejects a scout level table that is not strictly ascending
// by MinSP, has negative thresholds or unnamed rows. An empty table is valid.
func ValidateLevels(levels []model.ScoutLevel) error {
	for i, l := range levels {
		if strings.TrimSpace(l.Name) == "" {
			return &ConfigurationError{Index: i, Reason: "name must not be empty"}
		}
		if l.MinSP < 0 {
			return &ConfigurationError{Index: i, Reason: "minSP must not be negative"}
		}
		if i > 0 && l.MinSP <= levels[i-1].MinSP {
			return &ConfigurationError{Index: i, Reason: "minSP must be strictly greater than the previous level"}
		}
	}
	return nil
}

package pipeline

import (
	"github.com/fellrunner/trailnet/pkg/errors"
)

// monitor tracks the connectivity score across loop iterations and raises
// a regression when it drops beyond the threshold. The optimization phases
// only ever consolidate the network, so a drop is a correctness bug; the
// resulting error is always fatal, ReportOnly notwithstanding.
type monitor struct {
	prev float64
	seen bool
}

// observe records one iteration's score and returns a
// CONNECTIVITY_REGRESSION error when it fell more than RegressionThreshold
// below the previous iteration's.
func (m *monitor) observe(iteration int, score float64) error {
	defer func() {
		m.prev = score
		m.seen = true
	}()
	if !m.seen {
		return nil
	}
	if m.prev-score > RegressionThreshold {
		return errors.New(errors.ErrCodeConnectivityRegression,
			"connectivity dropped from %.3f to %.3f in iteration %d", m.prev, score, iteration)
	}
	return nil
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSolveCountsStatus(t *testing.T) {
	before := testutil.ToFloat64(SolvesTotal.WithLabelValues("greedy", "error"))
	RecordSolve("greedy", 10*time.Millisecond, errors.New("boom"))
	RecordSolve("greedy", 10*time.Millisecond, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(SolvesTotal.WithLabelValues("greedy", "error")))
}

func TestRecordPlans(t *testing.T) {
	before := testutil.ToFloat64(PiecesPlanned.WithLabelValues("waterfall"))
	RecordPlans("waterfall", 2, 120, 0, 150.5)
	assert.Equal(t, before+120, testutil.ToFloat64(PiecesPlanned.WithLabelValues("waterfall")))
}

func TestRecordInvalidInputIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(InvalidInput.WithLabelValues("csv"))
	RecordInvalidInput("csv", 0)
	RecordInvalidInput("csv", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(InvalidInput.WithLabelValues("csv")))
}

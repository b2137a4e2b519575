package jobs

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule(t *testing.T) {
	job := &BudgetExpiry{Log: logrus.New()}

	for _, spec := range []string{"@hourly", "0 3 * * *", "@every 30m"} {
		c, err := Schedule(spec, job)
		require.NoError(t, err, spec)
		assert.Len(t, c.Entries(), 1, spec)
	}

	_, err := Schedule("every now and then", job)
	assert.Error(t, err)
}

func TestBudgetExpiryNow(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job := &BudgetExpiry{Now: func() time.Time { return fixed }}
	assert.Equal(t, fixed, job.now())

	assert.WithinDuration(t, time.Now(), (&BudgetExpiry{}).now(), time.Minute)
}

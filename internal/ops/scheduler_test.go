package ops_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opereon/opereon/internal/ops"
)

func TestSchedulerStartsAndStopsWithScheduledCheck(t *testing.T) {
	eng := testEngine(t, newFakeBackend(sampleManifestYAML))

	sched := ops.NewScheduler(eng)
	id, err := sched.AddCheck("@every 50ms", "/ws", "", "")
	require.NoError(t, err)
	defer sched.Remove(id)

	sched.Start()
	defer sched.Stop()

	time.Sleep(200 * time.Millisecond)
}

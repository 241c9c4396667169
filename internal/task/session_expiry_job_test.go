package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expirerStub struct {
	calls []time.Duration
	n     int
}

func (e *expirerStub) Expire(idle time.Duration) int {
	e.calls = append(e.calls, idle)
	return e.n
}

func TestSessionExpiryJob_Execute(t *testing.T) {
	sessions := &expirerStub{n: 2}
	job := NewSessionExpiryJob(sessions, 60, 1800)

	job.Execute()
	sessions.n = 0
	job.Execute()

	assert.Equal(t, []time.Duration{30 * time.Minute, 30 * time.Minute}, sessions.calls)
	assert.Equal(t, "wizard_session_expiry", job.GetName())
}

func TestManager_RegistersBothJobs(t *testing.T) {
	m, err := NewManager(
		NewOrphanSweepJob(catalogStub{}, &payloadStub{ids: map[string]bool{}}, 3600),
		NewSessionExpiryJob(&expirerStub{}, 3600, 1800),
	)
	require.NoError(t, err)
	m.Start()
	defer m.Stop()

	assert.Equal(t, 2, m.Jobs())
}

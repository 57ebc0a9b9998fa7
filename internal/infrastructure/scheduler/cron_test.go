package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate("0 7 * * *"))
	require.NoError(t, Validate("@hourly"))
	require.Error(t, Validate("not a cron"))
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("61 * * * *", nil)
	err := s.Start(context.Background(), func(time.Time) {})
	require.Error(t, err)
}

func TestStartRunsJobInLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+3", 3*60*60)
	s := NewCronScheduler("@every 1s", loc)

	fired := make(chan time.Time, 1)
	require.NoError(t, s.Start(context.Background(), func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}))
	defer s.Stop(context.Background())

	assert.False(t, s.Next().IsZero())

	select {
	case at := <-fired:
		assert.Equal(t, loc, at.Location())
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("@daily", nil)
	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, s.Next().IsZero())
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bucket-ledger/finance"
)

func TestDueReminder_RunNowPublishesUpcoming(t *testing.T) {
	// GIVEN: Energia due in 5 days and Água in 8 days
	// WHEN: Checking with a 7 day horizon
	// THEN: Only Energia is announced

	s := newTestServer(t)
	for _, d := range finance.SampleDues(finance.DateOf(testNow)) {
		_, err := s.handler.Dues.Save(context.Background(), d)
		require.NoError(t, err)
	}

	sched := NewDueReminderScheduler(s.handler.Reports, s.recorder, nil)
	sched.HorizonDays = 7

	assert.Equal(t, 1, sched.RunNow(context.Background()))

	envs := s.recorder.Envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, finance.EventDuesUpcoming, envs[0].Type)

	var payload DuesUpcomingPayload
	require.NoError(t, json.Unmarshal(envs[0].Payload, &payload))
	assert.Equal(t, 7, payload.HorizonDays)
	assert.Equal(t, "280.00", payload.Total)
	require.Len(t, payload.Dues, 1)
	assert.Equal(t, "Energia", payload.Dues[0].Name)
}

func TestDueReminder_NothingDue(t *testing.T) {
	s := newTestServer(t)
	sched := NewDueReminderScheduler(s.handler.Reports, s.recorder, nil)

	assert.Equal(t, 0, sched.RunNow(context.Background()))
	assert.Empty(t, s.recorder.Types())
}

func TestDueReminder_PublishFailureIsNotFatal(t *testing.T) {
	s := newTestServer(t)
	_, err := s.handler.Dues.Save(context.Background(), finance.Due{
		Name:    "Internet",
		DueDate: finance.DateOf(testNow).AddDays(1),
		Amount:  finance.MustMoney("99.90"),
	})
	require.NoError(t, err)

	failing := finance.PublisherFunc(func(context.Context, finance.Event) error {
		return errors.New("broker down")
	})
	sched := NewDueReminderScheduler(s.handler.Reports, failing, nil)

	assert.Equal(t, 1, sched.RunNow(context.Background()))
}

func TestDueReminder_StartStop(t *testing.T) {
	// GIVEN: A scheduler with one due tomorrow
	// WHEN: Started
	// THEN: It checks immediately, and Stop is safe to call twice

	s := newTestServer(t)
	_, err := s.handler.Dues.Save(context.Background(), finance.Due{
		Name:    "Aluguel",
		DueDate: finance.DateOf(testNow).AddDays(1),
		Amount:  finance.MustMoney("1500"),
	})
	require.NoError(t, err)

	sched := NewDueReminderScheduler(s.handler.Reports, s.recorder, nil)
	sched.CheckInterval = time.Hour
	sched.Start()

	assert.Eventually(t, func() bool {
		return len(s.recorder.Types()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	sched.Stop()
	sched.Stop()
}

func TestDueReminder_Disabled(t *testing.T) {
	s := newTestServer(t)
	sched := NewDueReminderScheduler(s.handler.Reports, s.recorder, nil)
	sched.Enabled = false

	sched.Start()
	sched.Stop()

	assert.Empty(t, s.recorder.Types())
}

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
)

type fakeLabels struct {
	got time.Duration
	n   int64
	err error
}

func (f *fakeLabels) ExpirePending(_ context.Context, olderThan time.Duration) (int64, error) {
	f.got = olderThan
	return f.n, f.err
}

type fakeNotes struct{ got time.Duration }

func (f *fakeNotes) PruneRead(_ context.Context, olderThan time.Duration) (int64, error) {
	f.got = olderThan
	return 3, nil
}

func TestReconcileLabelsPassesTimeout(t *testing.T) {
	f := &fakeLabels{n: 2}
	ReconcileLabels(context.Background(), f, 15*time.Minute, log.New("test"))
	assert.Equal(t, 15*time.Minute, f.got)

	f.err = errors.New("db down")
	ReconcileLabels(context.Background(), f, time.Minute, log.New("test"))
	assert.Equal(t, time.Minute, f.got)
}

func TestPruneNotifications(t *testing.T) {
	f := &fakeNotes{}
	PruneNotifications(context.Background(), f, 48*time.Hour, log.New("test"))
	assert.Equal(t, 48*time.Hour, f.got)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LabelSchedule = "not a schedule"
	_, err := Start(cfg, &fakeLabels{}, &fakeNotes{}, log.New("test"))
	assert.Error(t, err)

	s, err := Start(DefaultConfig(), &fakeLabels{}, &fakeNotes{}, log.New("test"))
	assert.NoError(t, err)
	s.Stop()
}

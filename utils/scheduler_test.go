package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub/services/enrollment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintainer struct {
	fixed     int64
	err       error
	idle      []enrollment.IdleEnrollment
	idleSince time.Time
}

func (f *fakeMaintainer) ReconcileCounts(context.Context) (int64, error) {
	return f.fixed, f.err
}

func (f *fakeMaintainer) IdleEnrollments(_ context.Context, since time.Time) ([]enrollment.IdleEnrollment, error) {
	f.idleSince = since
	return f.idle, f.err
}

type reminder struct {
	email, course    string
	completed, total int
}

type fakeReminders struct{ sent []reminder }

func (f *fakeReminders) SendProgressReminder(email, _, courseTitle string, completed, total int) {
	f.sent = append(f.sent, reminder{email, courseTitle, completed, total})
}

func TestSchedulerSendsReminders(t *testing.T) {
	svc := &fakeMaintainer{idle: []enrollment.IdleEnrollment{
		{EnrollmentID: 1, UserName: "Ann", UserEmail: "ann@example.com", CourseTitle: "Go", SectionCount: 4, Completed: 1},
		{EnrollmentID: 2, UserName: "Bob", UserEmail: "bob@example.com", CourseTitle: "SQL", SectionCount: 2, Completed: 0},
	}}
	mail := &fakeReminders{}
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	s := NewScheduler(svc, mail, zerolog.Nop())
	s.idleDays = 7
	s.now = func() time.Time { return now }
	s.SendReminders()

	assert.Equal(t, now.AddDate(0, 0, -7), svc.idleSince)
	require.Len(t, mail.sent, 2)
	assert.Equal(t, reminder{"ann@example.com", "Go", 1, 4}, mail.sent[0])
	assert.Equal(t, reminder{"bob@example.com", "SQL", 0, 2}, mail.sent[1])
}

func TestSchedulerSurvivesErrors(t *testing.T) {
	svc := &fakeMaintainer{err: errors.New("db down")}
	mail := &fakeReminders{}
	s := NewScheduler(svc, mail, zerolog.Nop())
	s.idleDays = 3

	s.ReconcileCounts()
	s.SendReminders()
	assert.Empty(t, mail.sent)
}

func TestSchedulerStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeMaintainer{}, &fakeReminders{}, zerolog.Nop())
	assert.Error(t, s.Start(SchedulerConfig{ReconcileCron: "not a cron"}))

	s = NewScheduler(&fakeMaintainer{}, &fakeReminders{}, zerolog.Nop())
	require.NoError(t, s.Start(SchedulerConfig{ReconcileCron: "0 3 * * *", ReminderCron: "0 9 * * *", IdleDays: 7}))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

func notificationFixture() (*fakeStudentRepo, *fakeAssessmentRepo) {
	students := &fakeStudentRepo{roster: []student.Record{
		{ID: "STU1", Name: "Aruzhan Bekova", MentorID: "MENT1", GuardianName: "Dana Bekova", GuardianEmail: "dana@example.com"},
		{ID: "STU2", Name: "Timur Akhmetov", MentorID: "MENT1"},
		{ID: "STU3", Name: "Alia Nurlanova", MentorID: "MENT2", GuardianName: "Nurlan Nurlanov", GuardianEmail: "nurlan@example.com"},
		{ID: "STU4", Name: "Safe Student", MentorID: "MENT1"},
	}}

	assessments := newFakeAssessmentRepo()
	date := timeutil.StartOfDay(runNow)
	assessments.byDate[timeutil.DateString(date)] = []risk.Assessment{
		{StudentID: "STU1", Date: date, OverallScore: 85.5, Level: risk.LevelHigh, Reasons: "Low attendance (45.0%), Fee payment issues"},
		{StudentID: "STU2", Date: date, OverallScore: 55.0, Level: risk.LevelMedium, Reasons: "Poor academic performance (52.0%)"},
		{StudentID: "STU3", Date: date, OverallScore: 90.0, Level: risk.LevelHigh, Reasons: "Multiple test attempts (4)"},
		{StudentID: "STU4", Date: date, OverallScore: 10.0, Level: risk.LevelLow, Reasons: "No significant risk factors"},
	}
	return students, assessments
}

func TestGenerateNotifications_MentorDigests(t *testing.T) {
	students, assessments := notificationFixture()
	log := newFakeNotificationRepo()
	channel := &fakeChannel{}
	h := NewGenerateNotificationsHandler(students, assessments, log, channel, testLogger())

	result, err := h.Execute(context.Background(), GenerateNotificationsCommand{Now: runNow})
	require.NoError(t, err)

	assert.Equal(t, 2, result.MentorAlerts)
	assert.Equal(t, 2, result.GuardianAlerts)

	var mentorAlerts []notification.Notification
	for _, n := range log.saved {
		if n.Type == notification.TypeMentorAlert {
			mentorAlerts = append(mentorAlerts, n)
		}
	}
	require.Len(t, mentorAlerts, 2)

	// Mentor order is stable: MENT1 before MENT2.
	ment1 := mentorAlerts[0]
	assert.Equal(t, "MENT1", ment1.MentorID)
	assert.Equal(t, "ALL", ment1.StudentID)
	assert.Equal(t, notification.StatusPending, ment1.Status)
	assert.Equal(t,
		"Alert: 2 students under your mentorship require attention:\n\n"+
			"• Aruzhan Bekova (STU1) - High Risk (85.5/100)\n"+
			"  Reasons: Low attendance (45.0%), Fee payment issues\n\n"+
			"• Timur Akhmetov (STU2) - Medium Risk (55.0/100)\n"+
			"  Reasons: Poor academic performance (52.0%)\n\n"+
			"Please schedule counseling sessions and contact guardians if necessary.",
		ment1.Message)

	ment2 := mentorAlerts[1]
	assert.Equal(t, "MENT2", ment2.MentorID)
	assert.Contains(t, ment2.Message, "Alert: 1 students under your mentorship require attention:")
	assert.Contains(t, ment2.Message, "• Alia Nurlanova (STU3) - High Risk (90.0/100)")
}

func TestGenerateNotifications_GuardianAlerts(t *testing.T) {
	students, assessments := notificationFixture()
	log := newFakeNotificationRepo()
	channel := &fakeChannel{}
	h := NewGenerateNotificationsHandler(students, assessments, log, channel, testLogger())

	_, err := h.Execute(context.Background(), GenerateNotificationsCommand{Now: runNow})
	require.NoError(t, err)

	var guardianAlerts []notification.Notification
	for _, n := range log.saved {
		if n.Type == notification.TypeGuardianAlert {
			guardianAlerts = append(guardianAlerts, n)
		}
	}
	// High risk only: STU1 and STU3, never the Medium STU2.
	require.Len(t, guardianAlerts, 2)

	first := guardianAlerts[0]
	assert.Equal(t, "STU1", first.StudentID)
	assert.Equal(t, "GUARDIAN", first.MentorID)
	assert.Equal(t, "dana@example.com", first.Recipient)
	assert.Equal(t,
		"Dear Dana Bekova,\n\n"+
			"We would like to inform you that Aruzhan Bekova has been identified as high risk for academic challenges. "+
			"Current risk score: 85.5/100.\n\n"+
			"Primary concerns: Low attendance (45.0%), Fee payment issues\n\n"+
			"Please contact the student's mentor to discuss support strategies.",
		first.Message)
}

func TestGenerateNotifications_DeliveryAndStatus(t *testing.T) {
	students, assessments := notificationFixture()
	log := newFakeNotificationRepo()
	channel := &fakeChannel{failFor: map[string]bool{"nurlan@example.com": true}}
	h := NewGenerateNotificationsHandler(students, assessments, log, channel, testLogger())

	result, err := h.Execute(context.Background(), GenerateNotificationsCommand{Now: runNow})
	require.NoError(t, err)

	// Mentor digests have no recipient address and stay PENDING; of the two
	// guardian alerts, one delivers and one fails.
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"dana@example.com"}, channel.sent)

	for _, n := range log.saved {
		switch {
		case n.Recipient == "dana@example.com":
			assert.Equal(t, notification.StatusSent, log.statuses[n.ID])
		case n.Recipient == "nurlan@example.com":
			assert.Equal(t, notification.StatusFailed, log.statuses[n.ID])
		default:
			_, updated := log.statuses[n.ID]
			assert.False(t, updated, "recipient-less alert must keep its PENDING row")
		}
	}
}

func TestGenerateNotifications_EmptySnapshot(t *testing.T) {
	students, _ := notificationFixture()
	assessments := newFakeAssessmentRepo()
	log := newFakeNotificationRepo()
	h := NewGenerateNotificationsHandler(students, assessments, log, &fakeChannel{}, testLogger())

	result, err := h.Execute(context.Background(), GenerateNotificationsCommand{Now: runNow})
	require.NoError(t, err)

	assert.Zero(t, result.MentorAlerts)
	assert.Zero(t, result.GuardianAlerts)
	assert.Empty(t, log.saved)
}

func TestGenerateNotifications_LogWriteFailureDoesNotFailRun(t *testing.T) {
	students, assessments := notificationFixture()
	log := newFakeNotificationRepo()
	log.saveErr = context.DeadlineExceeded
	channel := &fakeChannel{}
	h := NewGenerateNotificationsHandler(students, assessments, log, channel, testLogger())

	result, err := h.Execute(context.Background(), GenerateNotificationsCommand{Now: runNow})
	require.NoError(t, err)

	// Nothing persisted, nothing delivered.
	assert.Zero(t, result.Delivered)
	assert.Empty(t, channel.sent)
}

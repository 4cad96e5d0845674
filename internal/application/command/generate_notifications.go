package command

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// GenerateNotificationsCommand configures a notification generation run.
type GenerateNotificationsCommand struct {
	// Now determines which day's snapshot is used. Defaults to time.Now.
	Now time.Time
}

// GenerateNotificationsResult reports generated and delivered alerts.
type GenerateNotificationsResult struct {
	MentorAlerts   int
	GuardianAlerts int
	Delivered      int
	Failed         int
}

// GenerateNotificationsHandler turns today's risk snapshot into mentor and
// guardian alerts: mentors get a digest of their Medium and High risk
// students, guardians of High risk students get an individual alert.
// The exact reasons text from the snapshot is embedded verbatim.
type GenerateNotificationsHandler struct {
	students      student.Repository
	assessments   risk.AssessmentRepository
	notifications notification.Repository
	channel       notification.Channel
	log           *logger.Logger
}

// NewGenerateNotificationsHandler creates a GenerateNotificationsHandler.
func NewGenerateNotificationsHandler(
	students student.Repository,
	assessments risk.AssessmentRepository,
	notifications notification.Repository,
	channel notification.Channel,
	log *logger.Logger,
) *GenerateNotificationsHandler {
	if channel == nil {
		channel = notification.NopChannel{}
	}
	return &GenerateNotificationsHandler{
		students:      students,
		assessments:   assessments,
		notifications: notifications,
		channel:       channel,
		log:           log.With(logger.Component("notifications")),
	}
}

// Execute generates, persists, and attempts delivery of the day's alerts.
// Delivery failures mark individual rows FAILED but never fail the run.
func (h *GenerateNotificationsHandler) Execute(ctx context.Context, cmd GenerateNotificationsCommand) (*GenerateNotificationsResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	date := timeutil.StartOfDay(now)

	result := &GenerateNotificationsResult{}

	atRisk, err := h.assessments.ListForDateByLevels(ctx, date, []risk.Level{risk.LevelMedium, risk.LevelHigh})
	if err != nil {
		h.log.Error("assessment read failed, no notifications generated", logger.Err(err))
		return result, nil
	}
	if len(atRisk) == 0 {
		h.log.Info("no at-risk students in today's snapshot",
			logger.AssessmentDate(timeutil.DateString(date)))
		return result, nil
	}

	roster, err := h.students.GetAll(ctx)
	if err != nil {
		h.log.Error("roster read failed, no notifications generated", logger.Err(err))
		return result, nil
	}
	byID := make(map[string]student.Record, len(roster))
	for _, rec := range roster {
		byID[rec.ID] = rec
	}

	var batch []notification.Notification
	batch = append(batch, h.mentorAlerts(atRisk, byID, date)...)
	batch = append(batch, h.guardianAlerts(atRisk, byID, date)...)

	for _, n := range batch {
		switch n.Type {
		case notification.TypeMentorAlert:
			result.MentorAlerts++
		case notification.TypeGuardianAlert:
			result.GuardianAlerts++
		}
	}

	if len(batch) == 0 {
		return result, nil
	}

	if err := h.notifications.SaveBatch(ctx, batch); err != nil {
		h.log.Error("notification log write failed", logger.Err(err))
		return result, nil
	}

	for _, n := range batch {
		if n.Recipient == "" {
			continue
		}
		subject := "Student risk alert"
		if n.Type == notification.TypeMentorAlert {
			subject = "At-risk students under your mentorship"
		}
		status := notification.StatusSent
		if err := h.channel.Send(ctx, n.Recipient, subject, n.Message); err != nil {
			h.log.Warn("notification delivery failed",
				logger.String("notification_id", n.ID), logger.Err(err))
			status = notification.StatusFailed
			result.Failed++
		} else {
			result.Delivered++
		}
		if err := h.notifications.UpdateStatus(ctx, n.ID, status); err != nil {
			h.log.Warn("notification status update failed",
				logger.String("notification_id", n.ID), logger.Err(err))
		}
	}

	h.log.Info("notifications generated",
		logger.Int("mentor_alerts", result.MentorAlerts),
		logger.Int("guardian_alerts", result.GuardianAlerts),
		logger.Int("delivered", result.Delivered),
		logger.Int("failed", result.Failed))

	return result, nil
}

// mentorAlerts builds one digest per mentor covering their Medium and High
// risk students, in stable mentor and student order.
func (h *GenerateNotificationsHandler) mentorAlerts(atRisk []risk.Assessment, byID map[string]student.Record, date time.Time) []notification.Notification {
	byMentor := make(map[string][]risk.Assessment)
	for _, a := range atRisk {
		rec, ok := byID[a.StudentID]
		if !ok || rec.MentorID == "" {
			continue
		}
		byMentor[rec.MentorID] = append(byMentor[rec.MentorID], a)
	}

	mentorIDs := make([]string, 0, len(byMentor))
	for id := range byMentor {
		mentorIDs = append(mentorIDs, id)
	}
	sort.Strings(mentorIDs)

	var out []notification.Notification
	for _, mentorID := range mentorIDs {
		group := byMentor[mentorID]

		var b strings.Builder
		fmt.Fprintf(&b, "Alert: %d students under your mentorship require attention:\n\n", len(group))
		for _, a := range group {
			rec := byID[a.StudentID]
			fmt.Fprintf(&b, "• %s (%s) - %s Risk (%.1f/100)\n", rec.Name, a.StudentID, a.Level, a.OverallScore)
			fmt.Fprintf(&b, "  Reasons: %s\n\n", a.Reasons)
		}
		b.WriteString("Please schedule counseling sessions and contact guardians if necessary.")

		out = append(out, notification.Notification{
			ID:        uuid.NewString(),
			StudentID: "ALL",
			MentorID:  mentorID,
			Type:      notification.TypeMentorAlert,
			Message:   b.String(),
			SentDate:  date,
			Status:    notification.StatusPending,
		})
	}
	return out
}

// guardianAlerts builds one alert per High risk student addressed to the
// student's guardian.
func (h *GenerateNotificationsHandler) guardianAlerts(atRisk []risk.Assessment, byID map[string]student.Record, date time.Time) []notification.Notification {
	var out []notification.Notification
	for _, a := range atRisk {
		if a.Level != risk.LevelHigh {
			continue
		}
		rec, ok := byID[a.StudentID]
		if !ok {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Dear %s,\n\n", rec.GuardianName)
		fmt.Fprintf(&b, "We would like to inform you that %s has been identified as high risk for academic challenges. ", rec.Name)
		fmt.Fprintf(&b, "Current risk score: %.1f/100.\n\n", a.OverallScore)
		fmt.Fprintf(&b, "Primary concerns: %s\n\n", a.Reasons)
		b.WriteString("Please contact the student's mentor to discuss support strategies.")

		out = append(out, notification.Notification{
			ID:        uuid.NewString(),
			StudentID: a.StudentID,
			MentorID:  "GUARDIAN",
			Type:      notification.TypeGuardianAlert,
			Message:   b.String(),
			Recipient: rec.GuardianEmail,
			SentDate:  date,
			Status:    notification.StatusPending,
		})
	}
	return out
}

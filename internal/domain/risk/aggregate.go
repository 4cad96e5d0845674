package risk

import (
	"sort"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// Aggregate reduces the raw event tables to one feature row per enrolled
// student. It is a pure function of its inputs: callers fetch the rows,
// Aggregate applies the trailing windows and grouping.
//
// Contract: exactly one row per roster entry, no duplicates, no omissions.
// Students with zero matching rows in a source get the safe defaults from
// DefaultFeatureVector. The output is sorted by student ID so repeated runs
// over unchanged data produce identical tables.
func Aggregate(
	roster []student.Record,
	attendance []records.AttendanceEvent,
	scores []records.TestScoreEvent,
	fees []records.FeePayment,
	now time.Time,
) []FeatureVector {
	attendanceAgg := aggregateAttendance(attendance, timeutil.WindowStart(now, AttendanceWindowDays))
	academicAgg := aggregateAcademic(scores, timeutil.WindowStart(now, AcademicWindowDays))
	financialAgg := aggregateFinancial(fees, timeutil.WindowStart(now, FinancialWindowDays), now)

	// Left-join each aggregate onto the full roster, never onto each other,
	// so a student missing from every source still appears.
	features := make([]FeatureVector, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, rec := range roster {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		fv := DefaultFeatureVector(rec.ID)
		if a, ok := attendanceAgg[rec.ID]; ok {
			fv.AttendancePercentage = a.meanPercentage
			fv.AttendanceRisk = clamp01((100 - a.meanPercentage) / 100)
		}
		if s, ok := academicAgg[rec.ID]; ok {
			fv.AvgScore = s.meanScore
			fv.MaxAttempts = s.maxAttempts
			fv.AcademicRisk = academicRisk(s.meanScore, s.maxAttempts)
		}
		if f, ok := financialAgg[rec.ID]; ok && f {
			fv.FinancialRisk = 1
		}
		features = append(features, fv)
	}

	sort.Slice(features, func(i, j int) bool {
		return features[i].StudentID < features[j].StudentID
	})
	return features
}

// academicRisk computes the weighted academic risk blend. Unclamped: the
// attempts term pushes it past 1 when a student needed more than 3 attempts.
func academicRisk(avgScore float64, maxAttempts int) float64 {
	return 0.7*(100-avgScore)/100 + 0.3*(float64(maxAttempts)/3)
}

// subjectKey identifies one (student, subject) group.
type subjectKey struct{ studentID, subject string }

func sortKeys(keys []subjectKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].studentID != keys[j].studentID {
			return keys[i].studentID < keys[j].studentID
		}
		return keys[i].subject < keys[j].subject
	})
}

type attendanceAggregate struct {
	meanPercentage float64
}

type subjectAttendance struct {
	total   int
	present int
}

// aggregateAttendance groups events by (student, subject), computes each
// subject's attendance percentage, then averages the percentages per student.
// The mean of per-subject percentages - not a global present/total ratio -
// weights a subject with 3 records the same as one with 30.
func aggregateAttendance(events []records.AttendanceEvent, since time.Time) map[string]attendanceAggregate {
	bySubject := make(map[subjectKey]*subjectAttendance)
	for _, e := range events {
		if e.Date.Before(since) {
			continue
		}
		k := subjectKey{e.StudentID, e.Subject}
		s := bySubject[k]
		if s == nil {
			s = &subjectAttendance{}
			bySubject[k] = s
		}
		s.total++
		if e.Present {
			s.present++
		}
	}

	// Sum in sorted key order: float addition is order-sensitive, and the
	// output must be identical across runs over the same inputs.
	keys := make([]subjectKey, 0, len(bySubject))
	for k := range bySubject {
		keys = append(keys, k)
	}
	sortKeys(keys)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, k := range keys {
		s := bySubject[k]
		pct := float64(s.present) * 100 / float64(s.total)
		sums[k.studentID] += pct
		counts[k.studentID]++
	}

	out := make(map[string]attendanceAggregate, len(sums))
	for id, sum := range sums {
		out[id] = attendanceAggregate{meanPercentage: sum / float64(counts[id])}
	}
	return out
}

type academicAggregate struct {
	meanScore   float64
	maxAttempts int
}

type subjectScores struct {
	scoreSum    float64
	scoreCount  int
	maxAttempts int
}

// aggregateAcademic groups test scores by (student, subject), computes the
// per-subject average score and max attempt number, then takes the mean of
// subject averages and the max of subject max-attempts per student.
func aggregateAcademic(events []records.TestScoreEvent, since time.Time) map[string]academicAggregate {
	bySubject := make(map[subjectKey]*subjectScores)
	for _, e := range events {
		if e.Date.Before(since) {
			continue
		}
		k := subjectKey{e.StudentID, e.Subject}
		s := bySubject[k]
		if s == nil {
			s = &subjectScores{}
			bySubject[k] = s
		}
		s.scoreSum += e.Score
		s.scoreCount++
		if e.AttemptNumber > s.maxAttempts {
			s.maxAttempts = e.AttemptNumber
		}
	}

	// Same ordering constraint as attendance: sum per-subject averages in
	// sorted key order so repeated calls produce bitwise-equal means.
	keys := make([]subjectKey, 0, len(bySubject))
	for k := range bySubject {
		keys = append(keys, k)
	}
	sortKeys(keys)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	maxes := make(map[string]int)
	for _, k := range keys {
		s := bySubject[k]
		sums[k.studentID] += s.scoreSum / float64(s.scoreCount)
		counts[k.studentID]++
		if s.maxAttempts > maxes[k.studentID] {
			maxes[k.studentID] = s.maxAttempts
		}
	}

	out := make(map[string]academicAggregate, len(sums))
	for id, sum := range sums {
		out[id] = academicAggregate{
			meanScore:   sum / float64(counts[id]),
			maxAttempts: maxes[id],
		}
	}
	return out
}

// aggregateFinancial marks a student overdue when any fee row due within the
// window has status Pending with a due date in the past.
func aggregateFinancial(fees []records.FeePayment, since, now time.Time) map[string]bool {
	out := make(map[string]bool)
	for _, f := range fees {
		if f.DueDate.Before(since) {
			continue
		}
		if _, ok := out[f.StudentID]; !ok {
			out[f.StudentID] = false
		}
		if f.IsOverdue(now) {
			out[f.StudentID] = true
		}
	}
	return out
}

package timetable

import (
	"sort"
	"strings"
	"time"

	"github.com/prepdesk/prepdesk/core/exam"
)

// Sessions
const (
	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
)

// afternoon starts at noon
const noon = "12:00"

type (
	// Slot is one scheduled exam sitting in the official timetable.
	// Level "" means the sitting covers all levels of the subject.
	Slot struct {
		ID        string    `json:"id"`
		Subject   string    `json:"subject"`
		Level     string    `json:"level,omitempty"`
		Date      time.Time `json:"date"`
		StartTime string    `json:"start_time"` // "09:30"
		EndTime   string    `json:"end_time"`
		Session   string    `json:"session"`
	}

	// Day is one calendar day of the exam period.
	Day struct {
		Date  time.Time `json:"date"`
		Slots []Slot    `json:"slots"`
		Free  bool      `json:"free"`
	}

	Insights struct {
		BusiestDay     time.Time `json:"busiest_day"`
		BusiestDayLoad int       `json:"busiest_day_load"`
		MorningCount   int       `json:"morning_count"`
		AfternoonCount int       `json:"afternoon_count"`
		TotalExams     int       `json:"total_exams"`
		FreeDays       int       `json:"free_days"`
	}
)

func (s Slot) session() string {
	if s.StartTime < noon {
		return SessionMorning
	}
	return SessionAfternoon
}

// Match filters the timetable down to the sittings of the given subjects.
// The result is sorted by date then start time and never contains the same
// slot twice, whatever duplication the subject list carries.
func Match(table []Slot, subjects []exam.Subject) []Slot {
	matched := make([]Slot, 0)
	seen := make(map[string]struct{})
	for _, slot := range table {
		for _, subj := range subjects {
			if !strings.EqualFold(slot.Subject, subj.Name) {
				continue
			}
			if slot.Level != "" && slot.Level != subj.Level {
				continue
			}
			if _, ok := seen[slot.ID]; ok {
				continue
			}
			seen[slot.ID] = struct{}{}
			slot.Session = slot.session()
			matched = append(matched, slot)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		if matched[i].StartTime != matched[j].StartTime {
			return matched[i].StartTime < matched[j].StartTime
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

// GroupByDay buckets matched slots per calendar day over the exam period,
// synthesizing free days between the first and last sitting.
func GroupByDay(slots []Slot) []Day {
	if len(slots) == 0 {
		return []Day{}
	}

	byDay := make(map[time.Time][]Slot)
	for _, slot := range slots {
		d := slot.Date.Truncate(24 * time.Hour)
		byDay[d] = append(byDay[d], slot)
	}

	first := slots[0].Date.Truncate(24 * time.Hour)
	last := slots[len(slots)-1].Date.Truncate(24 * time.Hour)

	days := make([]Day, 0)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		daySlots, ok := byDay[d]
		days = append(days, Day{
			Date:  d,
			Slots: daySlots,
			Free:  !ok,
		})
	}
	return days
}

// Summarize computes insight counters over the grouped exam period.
func Summarize(days []Day) Insights {
	var in Insights
	for _, day := range days {
		if day.Free {
			in.FreeDays++
			continue
		}
		if len(day.Slots) > in.BusiestDayLoad {
			in.BusiestDay = day.Date
			in.BusiestDayLoad = len(day.Slots)
		}
		for _, slot := range day.Slots {
			in.TotalExams++
			if slot.Session == SessionMorning {
				in.MorningCount++
			} else {
				in.AfternoonCount++
			}
		}
	}
	return in
}

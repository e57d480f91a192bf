package timetable

import "time"

// Table returns the official exam timetable for the given year. The schedule
// repeats every year with fixed day offsets from the first Wednesday of June.
func Table(year int) []Slot {
	day := firstExamDay(year)
	d := func(offset int) time.Time { return day.AddDate(0, 0, offset) }

	return []Slot{
		{ID: "eng-p1", Subject: "English", Date: d(0), StartTime: "09:30", EndTime: "12:20"},
		{ID: "hsb-p1", Subject: "Home Economics", Date: d(0), StartTime: "14:00", EndTime: "16:30"},

		{ID: "eng-p2", Subject: "English", Date: d(1), StartTime: "09:30", EndTime: "12:50"},
		{ID: "geo-p1", Subject: "Geography", Date: d(1), StartTime: "14:00", EndTime: "16:50"},

		{ID: "mat-p1", Subject: "Mathematics", Date: d(2), StartTime: "09:30", EndTime: "12:00"},
		{ID: "iri-p1-h", Subject: "Irish", Level: "Higher", Date: d(2), StartTime: "14:00", EndTime: "16:50"},
		{ID: "iri-p1-o", Subject: "Irish", Level: "Ordinary", Date: d(2), StartTime: "14:00", EndTime: "16:00"},

		{ID: "mat-p2", Subject: "Mathematics", Date: d(4), StartTime: "09:30", EndTime: "12:00"},
		{ID: "iri-p2-h", Subject: "Irish", Level: "Higher", Date: d(4), StartTime: "14:00", EndTime: "17:05"},
		{ID: "iri-p2-o", Subject: "Irish", Level: "Ordinary", Date: d(4), StartTime: "14:00", EndTime: "16:20"},

		{ID: "bio-p1", Subject: "Biology", Date: d(5), StartTime: "09:30", EndTime: "12:30"},
		{ID: "fre-p1", Subject: "French", Date: d(5), StartTime: "14:00", EndTime: "16:30"},

		{ID: "bus-p1", Subject: "Business", Date: d(6), StartTime: "09:30", EndTime: "12:30"},
		{ID: "his-p1", Subject: "History", Date: d(6), StartTime: "14:00", EndTime: "16:50"},

		{ID: "che-p1", Subject: "Chemistry", Date: d(7), StartTime: "09:30", EndTime: "12:30"},
		{ID: "acc-p1", Subject: "Accounting", Date: d(7), StartTime: "14:00", EndTime: "17:00"},

		{ID: "ger-p1", Subject: "German", Date: d(8), StartTime: "09:30", EndTime: "12:00"},
		{ID: "spa-p1", Subject: "Spanish", Date: d(8), StartTime: "14:00", EndTime: "16:30"},

		{ID: "phy-p1", Subject: "Physics", Date: d(11), StartTime: "09:30", EndTime: "12:30"},
		{ID: "mus-p1", Subject: "Music", Date: d(11), StartTime: "14:00", EndTime: "15:30"},

		{ID: "eco-p1", Subject: "Economics", Date: d(12), StartTime: "09:30", EndTime: "12:00"},
		{ID: "app-p1", Subject: "Applied Mathematics", Date: d(12), StartTime: "14:00", EndTime: "16:30"},
	}
}

// firstExamDay returns the first Wednesday of June, UTC midnight.
func firstExamDay(year int) time.Time {
	d := time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Wednesday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

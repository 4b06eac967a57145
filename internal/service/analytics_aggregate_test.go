package service

import (
	"learnhub_backend/internal/model"
	"testing"
	"time"
)

func endedSession(id uint, start time.Time, duration int) model.CourseSession {
	end := start.Add(time.Duration(duration) * time.Second)
	return model.CourseSession{ID: id, StartedAt: start, EndedAt: &end, TotalDuration: duration}
}

func TestAverageDurationIgnoresOpenSessions(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := []model.CourseSession{
		endedSession(1, start, 600),
		endedSession(2, start, 300),
		{ID: 3, StartedAt: start, TotalDuration: 0},
	}
	report := AggregateCourse(1, sessions, nil, nil, time.UTC)
	if report.Sessions.TotalSessions != 3 || report.Sessions.CompletedSessions != 2 {
		t.Fatalf("sessions: %+v", report.Sessions)
	}
	if report.Sessions.AverageSessionDuration != 450 {
		t.Fatalf("average: want=450 got=%v", report.Sessions.AverageSessionDuration)
	}
}

func TestSlideRankings(t *testing.T) {
	views := []model.SlideView{
		{ID: 1, SessionID: 1, SlideID: 10, ViewCount: 3, ScrollDepth: 80, Completed: true},
		{ID: 2, SessionID: 1, SlideID: 20, ViewCount: 5, ScrollDepth: 40},
		{ID: 3, SessionID: 2, SlideID: 10, ViewCount: 2, ScrollDepth: 60},
		{ID: 4, SessionID: 2, SlideID: 30, ViewCount: 5, ScrollDepth: 10},
		{ID: 5, SessionID: 2, SlideID: 40, ViewCount: 1, ScrollDepth: 40},
	}
	report := AggregateCourse(1, nil, views, nil, time.UTC)

	// 10 与 20、30 的浏览次数都是 5，并列时保持首次出现顺序
	wantViewed := []uint{10, 20, 30, 40}
	if len(report.MostViewedSlides) != len(wantViewed) {
		t.Fatalf("most viewed: %+v", report.MostViewedSlides)
	}
	for i, id := range wantViewed {
		if report.MostViewedSlides[i].SlideID != id {
			t.Fatalf("most viewed[%d]: want=%d got=%d", i, id, report.MostViewedSlides[i].SlideID)
		}
	}

	wantStruggling := []uint{30, 20, 40}
	if len(report.StrugglingSlides) != len(wantStruggling) {
		t.Fatalf("struggling: %+v", report.StrugglingSlides)
	}
	for i, id := range wantStruggling {
		if report.StrugglingSlides[i].SlideID != id {
			t.Fatalf("struggling[%d]: want=%d got=%d", i, id, report.StrugglingSlides[i].SlideID)
		}
	}
	if report.MostViewedSlides[0].AvgScrollDepth != 70 {
		t.Fatalf("avg scroll depth: want=70 got=%v", report.MostViewedSlides[0].AvgScrollDepth)
	}
}

func TestMostViewedCapsAtFive(t *testing.T) {
	var views []model.SlideView
	for i := 1; i <= 8; i++ {
		views = append(views, model.SlideView{ID: uint(i), SlideID: uint(i), ViewCount: i})
	}
	report := AggregateCourse(1, nil, views, nil, time.UTC)
	if len(report.MostViewedSlides) != 5 || report.MostViewedSlides[0].SlideID != 8 {
		t.Fatalf("most viewed: %+v", report.MostViewedSlides)
	}
	if len(report.StrugglingSlides) != 5 {
		t.Fatalf("struggling: want=5 got=%d", len(report.StrugglingSlides))
	}
}

func TestActivityBucketsUseTimezone(t *testing.T) {
	shanghai := time.FixedZone("UTC+8", 8*3600)
	// 周六 UTC 20:00 = 周日 04:00 (UTC+8)
	start := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	sessions := []model.CourseSession{{ID: 1, StartedAt: start}}

	utc := AggregateCourse(1, sessions, nil, nil, time.UTC)
	if utc.HourlyActivity[20].Sessions != 1 || utc.WeekdayActivity[6].Sessions != 1 {
		t.Fatalf("utc buckets: hour20=%d saturday=%d", utc.HourlyActivity[20].Sessions, utc.WeekdayActivity[6].Sessions)
	}

	local := AggregateCourse(1, sessions, nil, nil, shanghai)
	if local.HourlyActivity[4].Sessions != 1 || local.WeekdayActivity[0].Sessions != 1 {
		t.Fatalf("local buckets: hour4=%d sunday=%d", local.HourlyActivity[4].Sessions, local.WeekdayActivity[0].Sessions)
	}
	if len(local.HourlyActivity) != 24 || len(local.WeekdayActivity) != 7 || local.WeekdayActivity[0].Day != "Sunday" {
		t.Fatalf("bucket shape: %d hours, %d days, first=%s", len(local.HourlyActivity), len(local.WeekdayActivity), local.WeekdayActivity[0].Day)
	}
}

func TestTopInteractions(t *testing.T) {
	events := []model.InteractionEvent{
		{ID: 1, EventType: "click", EventName: "next"},
		{ID: 2, EventType: "quiz", EventName: "answer"},
		{ID: 3, EventType: "quiz", EventName: "answer"},
		{ID: 4, EventType: "click", EventName: "prev"},
		{ID: 5, EventType: "click", EventName: "next"},
		{ID: 6, EventType: "video", EventName: "play"},
	}
	report := AggregateCourse(1, nil, nil, events, time.UTC)
	want := []model.InteractionStat{
		{EventType: "click", EventName: "next", Count: 2},
		{EventType: "quiz", EventName: "answer", Count: 2},
		{EventType: "click", EventName: "prev", Count: 1},
		{EventType: "video", EventName: "play", Count: 1},
	}
	if len(report.TopInteractions) != len(want) {
		t.Fatalf("top interactions: %+v", report.TopInteractions)
	}
	for i := range want {
		if report.TopInteractions[i] != want[i] {
			t.Fatalf("top[%d]: want=%+v got=%+v", i, want[i], report.TopInteractions[i])
		}
	}
}

func TestBuildProgressSeries(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	sessions := []model.CourseSession{
		endedSession(1, now.Add(-2*time.Hour), 1800),
		endedSession(2, now.Add(-26*time.Hour), 600),
		{ID: 3, StartedAt: now.Add(-time.Hour)},
		endedSession(4, now.AddDate(0, 0, -20), 900),
	}
	series := BuildProgressSeries(sessions, 7, now, time.UTC)
	if len(series.Daily) != 7 {
		t.Fatalf("daily: want=7 got=%d", len(series.Daily))
	}
	last := series.Daily[6]
	if last.Date != "2024-03-10" || last.Minutes != 30 || last.Sessions != 1 {
		t.Fatalf("today: %+v", last)
	}
	if series.Daily[5].Minutes != 10 {
		t.Fatalf("yesterday: %+v", series.Daily[5])
	}
	if series.Weekday[0].Minutes != 30 || series.Weekday[6].Minutes != 10 {
		t.Fatalf("weekday: %+v", series.Weekday)
	}
}

package service

import (
	"learnhub_backend/internal/model"
	"math"
	"sort"
	"time"
)

const (
	topSlideLimit       = 5
	topInteractionLimit = 10
)

// AggregateCourse 由会话、幻灯片浏览与交互记录计算课程分析，纯函数
// 输入按 id 升序，并列时保持首次出现的顺序
func AggregateCourse(courseID uint, sessions []model.CourseSession, views []model.SlideView, events []model.InteractionEvent, loc *time.Location) model.CourseAnalyticsReport {
	if loc == nil {
		loc = time.UTC
	}
	return model.CourseAnalyticsReport{
		CourseID:         courseID,
		Timezone:         loc.String(),
		Sessions:         sessionInsights(sessions),
		MostViewedSlides: mostViewedSlides(views),
		StrugglingSlides: strugglingSlides(views),
		HourlyActivity:   hourlyActivity(sessions, loc),
		WeekdayActivity:  weekdayActivity(sessions, loc),
		TopInteractions:  topInteractions(events),
	}
}

// sessionInsights 平均时长只统计已结束的会话
func sessionInsights(sessions []model.CourseSession) model.SessionInsights {
	out := model.SessionInsights{TotalSessions: len(sessions)}
	for _, s := range sessions {
		if !s.Ended() {
			continue
		}
		out.CompletedSessions++
		out.TotalTimeSpent += s.TotalDuration
	}
	if out.CompletedSessions > 0 {
		out.AverageSessionDuration = round2(float64(out.TotalTimeSpent) / float64(out.CompletedSessions))
	}
	return out
}

// slideStats 按幻灯片合并多个会话的浏览记录
func slideStats(views []model.SlideView) []model.SlideStat {
	index := make(map[uint]int)
	var stats []model.SlideStat
	depthSum := make([]float64, 0)
	rows := make([]int, 0)

	for _, v := range views {
		i, ok := index[v.SlideID]
		if !ok {
			i = len(stats)
			index[v.SlideID] = i
			stats = append(stats, model.SlideStat{SlideID: v.SlideID})
			depthSum = append(depthSum, 0)
			rows = append(rows, 0)
		}
		stats[i].Views += v.ViewCount
		stats[i].TimeSpent += v.TimeSpent
		stats[i].Completed = stats[i].Completed || v.Completed
		depthSum[i] += v.ScrollDepth
		rows[i]++
	}
	for i := range stats {
		stats[i].AvgScrollDepth = round2(depthSum[i] / float64(rows[i]))
	}
	return stats
}

func mostViewedSlides(views []model.SlideView) []model.SlideStat {
	stats := slideStats(views)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Views > stats[j].Views
	})
	return limitSlides(stats, topSlideLimit)
}

// strugglingSlides 从未完成过的幻灯片，平均滚动深度越低越靠前
func strugglingSlides(views []model.SlideView) []model.SlideStat {
	var stuck []model.SlideStat
	for _, st := range slideStats(views) {
		if !st.Completed {
			stuck = append(stuck, st)
		}
	}
	sort.SliceStable(stuck, func(i, j int) bool {
		return stuck[i].AvgScrollDepth < stuck[j].AvgScrollDepth
	})
	return limitSlides(stuck, topSlideLimit)
}

func limitSlides(stats []model.SlideStat, n int) []model.SlideStat {
	if len(stats) > n {
		stats = stats[:n]
	}
	if stats == nil {
		return []model.SlideStat{}
	}
	return stats
}

func hourlyActivity(sessions []model.CourseSession, loc *time.Location) []model.HourBucket {
	buckets := make([]model.HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, s := range sessions {
		buckets[s.StartedAt.In(loc).Hour()].Sessions++
	}
	return buckets
}

// weekdayActivity 周日到周六
func weekdayActivity(sessions []model.CourseSession, loc *time.Location) []model.WeekdayBucket {
	buckets := make([]model.WeekdayBucket, 7)
	for d := range buckets {
		buckets[d].Day = time.Weekday(d).String()
	}
	for _, s := range sessions {
		buckets[int(s.StartedAt.In(loc).Weekday())].Sessions++
	}
	return buckets
}

func topInteractions(events []model.InteractionEvent) []model.InteractionStat {
	type key struct{ typ, name string }
	index := make(map[key]int)
	stats := make([]model.InteractionStat, 0)
	for _, e := range events {
		k := key{e.EventType, e.EventName}
		i, ok := index[k]
		if !ok {
			i = len(stats)
			index[k] = i
			stats = append(stats, model.InteractionStat{EventType: e.EventType, EventName: e.EventName})
		}
		stats[i].Count++
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	if len(stats) > topInteractionLimit {
		stats = stats[:topInteractionLimit]
	}
	return stats
}

// BuildProgressSeries 最近 days 天（含今天）每天的学习分钟数与会话数，仅统计已结束会话
func BuildProgressSeries(sessions []model.CourseSession, days int, now time.Time, loc *time.Location) model.ProgressSeries {
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now, loc)
	first := today.AddDate(0, 0, -(days - 1))

	daily := make([]model.DailyProgress, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := first.AddDate(0, 0, i).Format("2006-01-02")
		daily[i].Date = date
		index[date] = i
	}
	seconds := make([]int, days)

	weekday := make([]model.WeekdayProgress, 7)
	for d := range weekday {
		weekday[d].Day = time.Weekday(d).String()
	}
	weekdaySeconds := make([]int, 7)

	for _, s := range sessions {
		if !s.Ended() {
			continue
		}
		started := s.StartedAt.In(loc)
		i, ok := index[started.Format("2006-01-02")]
		if !ok {
			continue
		}
		daily[i].Sessions++
		seconds[i] += s.TotalDuration

		wd := int(started.Weekday())
		weekday[wd].Sessions++
		weekdaySeconds[wd] += s.TotalDuration
	}
	for i := range daily {
		daily[i].Minutes = seconds[i] / 60
	}
	for d := range weekday {
		weekday[d].Minutes = weekdaySeconds[d] / 60
	}

	return model.ProgressSeries{
		Timezone: loc.String(),
		Days:     days,
		Daily:    daily,
		Weekday:  weekday,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package model

// SessionInsights 会话时长统计
type SessionInsights struct {
	TotalSessions          int     `json:"totalSessions"`
	CompletedSessions      int     `json:"completedSessions"`
	AverageSessionDuration float64 `json:"averageSessionDuration"` // 秒，仅统计已结束会话
	TotalTimeSpent         int     `json:"totalTimeSpent"`         // 秒
}

// SlideStat 幻灯片维度统计
type SlideStat struct {
	SlideID        uint    `json:"slideId"`
	Views          int     `json:"views"`
	TimeSpent      int     `json:"timeSpent"`
	AvgScrollDepth float64 `json:"avgScrollDepth"`
	Completed      bool    `json:"completed"`
}

// HourBucket 按小时分桶（0-23）
type HourBucket struct {
	Hour     int `json:"hour"`
	Sessions int `json:"sessions"`
}

// WeekdayBucket 按星期分桶
type WeekdayBucket struct {
	Day      string `json:"day"`
	Sessions int    `json:"sessions"`
}

// InteractionStat 交互事件排行
type InteractionStat struct {
	EventType string `json:"eventType"`
	EventName string `json:"eventName"`
	Count     int    `json:"count"`
}

// CourseAnalyticsReport 课程学习分析结果
type CourseAnalyticsReport struct {
	CourseID         uint              `json:"courseId"`
	Timezone         string            `json:"timezone"`
	Sessions         SessionInsights   `json:"sessions"`
	MostViewedSlides []SlideStat       `json:"mostViewedSlides"`
	StrugglingSlides []SlideStat       `json:"strugglingSlides"`
	HourlyActivity   []HourBucket      `json:"hourlyActivity"`
	WeekdayActivity  []WeekdayBucket   `json:"weekdayActivity"`
	TopInteractions  []InteractionStat `json:"topInteractions"`
}

// DailyProgress 每日学习时长
type DailyProgress struct {
	Date     string `json:"date"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// WeekdayProgress 按星期汇总的学习时长
type WeekdayProgress struct {
	Day      string `json:"day"`
	Minutes  int    `json:"minutes"`
	Sessions int    `json:"sessions"`
}

// ProgressSeries 学习进度时间序列
type ProgressSeries struct {
	Timezone string            `json:"timezone"`
	Days     int               `json:"days"`
	Daily    []DailyProgress   `json:"daily"`
	Weekday  []WeekdayProgress `json:"weekday"`
}

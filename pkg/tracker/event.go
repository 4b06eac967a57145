package tracker

// 与 POST /api/progress 的 type 字段一致
const (
	EventSessionStart  = "session_start"
	EventSlideView     = "slide_view"
	EventInteraction   = "interaction"
	EventSlideComplete = "slide_complete"
	EventSessionEnd    = "session_end"
)

// Event 一次进度上报请求体
type Event struct {
	Type        string        `json:"type"`
	CourseID    uint          `json:"courseId,omitempty"`
	TotalSlides *int          `json:"totalSlides,omitempty"`
	SessionID   uint          `json:"sessionId,omitempty"`
	SlideID     uint          `json:"slideId,omitempty"`
	ModuleID    uint          `json:"moduleId,omitempty"`
	LessonID    uint          `json:"lessonId,omitempty"`
	TimeSpent   *int          `json:"timeSpent,omitempty"`
	ScrollDepth *float64      `json:"scrollDepth,omitempty"`
	Completed   bool          `json:"completed,omitempty"`
	Events      []Interaction `json:"events,omitempty"`
}

type Interaction struct {
	EventType string                 `json:"eventType"`
	EventName string                 `json:"eventName"`
	EventData map[string]interface{} `json:"eventData,omitempty"`
}

// Result 服务端返回的 data 部分，只关心 tracker 需要的字段
type Result struct {
	SessionID uint `json:"sessionId"`
	Inserted  int  `json:"inserted"`
}

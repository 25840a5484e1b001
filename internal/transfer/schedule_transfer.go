package transfer

type PostCreation struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ScheduleCreation struct {
	PostID      int64  `json:"post_id"`
	ScheduledAt string `json:"scheduled_at"`
}

type ScheduleUpdate struct {
	ScheduledAt string `json:"scheduled_at"`
}

type MarkReadRequest struct {
	IDs []int64 `json:"ids"`
}

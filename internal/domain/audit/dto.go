package audit

type LogListFilters struct {
	AdminID    *int64     `form:"admin_id"`
	TargetType TargetType `form:"target_type"`
	TargetID   *int64     `form:"target_id"`
	Action     Action     `form:"action"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

type LogListResponse struct {
	Logs       []AdminLog `json:"logs"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

package therapy

// PlatformStats aggregates record counts for the admin dashboard.
type PlatformStats struct {
	Users struct {
		Total      int64 `json:"total"`
		Clients    int64 `json:"clients"`
		Therapists int64 `json:"therapists"`
	} `json:"users"`
	Sessions struct {
		Total     int64 `json:"total"`
		Active    int64 `json:"active"`
		Completed int64 `json:"completed"`
		Today     int64 `json:"today"`
	} `json:"sessions"`
	Messages    int64 `json:"messages"`
	MoodLogs    int64 `json:"moodLogs"`
	Suggestions int64 `json:"suggestions"`
	Resources   int64 `json:"resources"`
}

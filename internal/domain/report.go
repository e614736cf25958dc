package domain

import "time"

// ReportRecord is the stored metadata for one generated report file
type ReportRecord struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	Label       string    `json:"label"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	ItemCount   int       `json:"item_count"`
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Interval is the schedule frequency for the periodic runner
type Interval string

const (
	IntervalDaily  Interval = "daily"
	IntervalWeekly Interval = "weekly"
)

// LookbackDays returns how many trailing days of activity a run under this
// interval should request: a week of activity for weekly runs, one day
// otherwise
func (i Interval) LookbackDays() int {
	if i == IntervalWeekly {
		return 7
	}
	return 1
}

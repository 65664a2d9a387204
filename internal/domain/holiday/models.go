package holiday

import "time"

// Holiday spans an inclusive range of calendar days. Single-day holidays
// have StartDate == EndDate.
type Holiday struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
	CreatedAt time.Time `json:"createdAt"`
}

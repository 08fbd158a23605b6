package core

// MonthTotal is the paid tithe total for one month.
type MonthTotal struct {
	Month Month `json:"month"`
	Total Money `json:"total"`
}

// Observation is one long-form attendance value, the shape charted per
// Saturday, session type and counter.
type Observation struct {
	Saturday string      `json:"saturday"`
	Type     SessionType `json:"type"`
	Kind     CounterKind `json:"kind"`
	Value    int         `json:"value"`
}

// RollingAverage is the mean weekly attendance of a group in one month.
type RollingAverage struct {
	Month     Month       `json:"month"`
	Discipler string      `json:"discipler"`
	Type      SessionType `json:"type"`
	Average   float64     `json:"average"`
}

// TitheOverview is what the dashboard shows for the tithe ledger.
type TitheOverview struct {
	Total  Money              `json:"total"`
	Series []MonthTotal       `json:"series"`
	Month  Month              `json:"month"`
	Status map[PaidStatus]int `json:"status"`
}

// AttendanceOverview is what the dashboard shows for one month of attendance.
type AttendanceOverview struct {
	Month        Month                `json:"month"`
	Saturdays    []string             `json:"saturdays"`
	Observations []Observation        `json:"observations"`
	Totals       map[SessionType]Slot `json:"totals"`
	Rolling      []RollingAverage     `json:"rolling"`
}

package models

// Unknown is the sentinel substituted when real data is unavailable,
// distinct from an absent field or a failed entry.
const Unknown = "unknown"

// Quake represents one raw entry from the earthquake feed
type Quake struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Comments  string `json:"comments"`
	Link      string `json:"link"`
	Magnitude string `json:"magnitude"`
	TimeUTC   string `json:"time_utc"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Depth     string `json:"depth_km"`
}

// Report represents a fully enriched, display-ready earthquake alert
type Report struct {
	ID          string  `json:"id"`
	Magnitude   float64 `json:"magnitude"`
	Severity    string  `json:"severity"`
	TimeUTC     string  `json:"time_utc"`
	TimeLocal   string  `json:"time_local"`
	Latitude    string  `json:"latitude"`
	Longitude   string  `json:"longitude"`
	Depth       string  `json:"depth_km"`
	Location    string  `json:"location"`
	Details     string  `json:"details"`
	NearestCity string  `json:"nearest_city"`
	CountryCode string  `json:"country_code"`
	Link        string  `json:"link"`
}

// DeliveryOutcome classifies the result of one delivery attempt sequence
type DeliveryOutcome int

const (
	// Delivered means the transport accepted the message.
	Delivered DeliveryOutcome = iota
	// PermanentFailure means the recipient is unreachable and the entry
	// must never be retried.
	PermanentFailure
	// TransientFailure means the retry budget ran out without a terminal
	// answer; the entry stays eligible for the next cycle.
	TransientFailure
)

// Handled reports whether the outcome settles the entry's fate.
// Delivered and PermanentFailure both mean the entry is done with;
// TransientFailure leaves it open for retry.
func (o DeliveryOutcome) Handled() bool {
	return o == Delivered || o == PermanentFailure
}

// String returns the outcome label used in logs and metrics
func (o DeliveryOutcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case PermanentFailure:
		return "permanent_failure"
	case TransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

package domain

import "time"

// ReportKind distinguishes library floor reports from cafeteria queue reports.
type ReportKind string

const (
	ReportLibrary   ReportKind = "library"
	ReportCafeteria ReportKind = "cafeteria"
)

// QueueStatus is the cafeteria queue length reported by a user.
type QueueStatus string

const (
	QueueShort  QueueStatus = "short"
	QueueMedium QueueStatus = "medium"
	QueueLong   QueueStatus = "long"
)

// Occupancy maps a queue status to the occupancy percentage stored with the report.
func (q QueueStatus) Occupancy() (int, bool) {
	switch q {
	case QueueShort:
		return 30, true
	case QueueMedium:
		return 60, true
	case QueueLong:
		return 90, true
	}
	return 0, false
}

// Where a report's coordinates came from.
const (
	LocationSourceDevice   = "device"
	LocationSourceCache    = "cache"
	LocationSourceFallback = "fallback"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude" dynamodbav:"latitude"`
	Longitude float64 `json:"longitude" dynamodbav:"longitude"`
}

// CampusFallback is used when the submitter's position cannot be acquired.
var CampusFallback = Coordinates{Latitude: 39.8917, Longitude: 32.7806}

// OccupancyReport is an append-only crowd report. It is never mutated.
type OccupancyReport struct {
	ReportID       string      `json:"id" dynamodbav:"report_id"`
	Kind           ReportKind  `json:"kind" dynamodbav:"kind"`
	Location       string      `json:"location" dynamodbav:"location"`
	Occupancy      int         `json:"occupancy" dynamodbav:"occupancy"`
	QueueStatus    QueueStatus `json:"queue_status,omitempty" dynamodbav:"queue_status,omitempty"`
	SubmitterID    string      `json:"submitter_id" dynamodbav:"submitter_id"`
	SubmitterEmail string      `json:"-" dynamodbav:"submitter_email"`
	Coordinates    Coordinates `json:"coordinates" dynamodbav:"coordinates"`
	LocationSource string      `json:"location_source" dynamodbav:"location_source"`
	CreatedAt      time.Time   `json:"timestamp" dynamodbav:"created_at"`
}

// Location is a reportable place from the catalog.
type Location struct {
	ID   string     `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
	Kind ReportKind `json:"kind" yaml:"kind"`
}

// LocationStatus pairs a catalog location with its most recent report.
type LocationStatus struct {
	Location Location         `json:"location"`
	Latest   *OccupancyReport `json:"latest,omitempty"`
}

// Overview is the dashboard read model. The averages cover locations that
// have at least one report and stay nil while none of that kind has.
type Overview struct {
	Locations        []LocationStatus `json:"locations"`
	AverageLibrary   *int             `json:"average_library"`
	AverageCafeteria *int             `json:"average_cafeteria"`
}

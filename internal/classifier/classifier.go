package classifier

import (
	"github.com/rajasatyajit/QuakeAlert/internal/models"
)

// Classifier assigns a named severity class to parsed earthquake magnitudes
type Classifier struct{}

// New creates a new classifier instance
func New() *Classifier {
	return &Classifier{}
}

// Classify sets the severity class derived from the report's magnitude.
// The class feeds logs, metrics labels and the status endpoint; it never
// changes what gets delivered.
func (c *Classifier) Classify(report *models.Report) {
	report.Severity = c.severityClass(report.Magnitude)
}

// severityClass buckets a magnitude on the commonly used class scale
func (c *Classifier) severityClass(magnitude float64) string {
	switch {
	case magnitude < 2.0:
		return "micro"
	case magnitude < 4.0:
		return "minor"
	case magnitude < 5.0:
		return "light"
	case magnitude < 6.0:
		return "moderate"
	case magnitude < 7.0:
		return "strong"
	case magnitude < 8.0:
		return "major"
	default:
		return "great"
	}
}

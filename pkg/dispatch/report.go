package dispatch

import (
	"math"
	"time"

	"tvfleet/pkg/models"
)

// assemble builds a report from the filled outcome slots and the
// wall-clock duration of the fan-out. Pure function, no I/O.
func assemble(results []models.CommandOutcome, elapsed time.Duration) models.BulkReport {
	report := models.BulkReport{
		Results:   results,
		TotalTime: roundSeconds(elapsed),
	}
	for _, outcome := range results {
		if outcome.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
	}
	return report
}

// roundSeconds converts a duration to seconds rounded to the millisecond.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

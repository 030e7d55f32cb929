// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Recognition constants
const (
	// UnknownLabel is the label reported for a face that matched no enrolled employee
	UnknownLabel = "unknown"

	// EmbeddingDim is the dimension of face embeddings returned by the embedding server
	EmbeddingDim = 512

	// MinFaceSize is the smallest face bounding box side, in pixels, worth recognizing
	MinFaceSize = 40

	// MinTrainEmployees is the number of enrolled employees required to train the index
	MinTrainEmployees = 2

	// RepeatedPhotoBits is the dHash distance below which two enrollment photos
	// are treated as the same shot
	RepeatedPhotoBits = 5

	// EmbeddingTimeout bounds one request to the embedding server
	EmbeddingTimeout = 30 * time.Second
)

// Report constants
const (
	// DefaultEmployeeHistoryLimit is the number of days shown in an employee report
	DefaultEmployeeHistoryLimit = 30

	// MaxEmployeeHistoryLimit caps the history limit accepted by the web API
	MaxEmployeeHistoryLimit = 366

	// MaxReportRangeDays caps the width of a date range report
	MaxReportRangeDays = 366
)

// Date and time layouts used at the storage and presentation boundaries
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

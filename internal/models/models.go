package models

import (
	"fmt"
	"strings"
	"time"
)

// Patient is one record as returned by the patient API. BMI and Verdict are
// computed by the backend and used as-is.
type Patient struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Gender  string  `json:"gender"`
	Age     int     `json:"age"`
	Height  float64 `json:"height"`
	Weight  float64 `json:"weight"`
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

const VerdictObese = "Obese"

type SortField string

const (
	SortByHeight SortField = "height"
	SortByWeight SortField = "weight"
	SortByBMI    SortField = "bmi"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortField accepts the field names the backend accepts, in any case.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByHeight, SortByWeight, SortByBMI:
		return f, nil
	}
	return "", fmt.Errorf("Invalid sort field. Use one of: weight, height, bmi")
}

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderAsc, OrderDesc:
		return o, nil
	}
	return "", fmt.Errorf("Invalid order. Use asc or desc")
}

// Stats is derived from the current patient list and never stored.
type Stats struct {
	Total  int     `json:"total"`
	AvgBMI float64 `json:"avgBmi"`
	Obese  int     `json:"obese"`
}

// ErrorPayload is the body the patient API sends with non-success responses.
type ErrorPayload struct {
	Detail string `json:"detail"`
}

// --- Fetch journal ---

const (
	OpFetchSorted = "fetch_sorted"
	OpFetchOne    = "fetch_one"
)

// FetchRecord describes one request made to the patient API.
type FetchRecord struct {
	ID         string
	Operation  string
	URL        string
	StatusCode int
	Duration   time.Duration
	Error      string
	StartedAt  time.Time
}

// --- Outgoing dashboard events ---

const (
	EventStats    = "stats"
	EventSelected = "selected"
	EventFailed   = "failed"
)

type DashboardEvent struct {
	Type      string    `json:"type"`
	Timestamp int64     `json:"timestamp"`
	SortBy    SortField `json:"sortBy"`
	Order     SortOrder `json:"order"`
	Stats     *Stats    `json:"stats,omitempty"`
	PatientID string    `json:"patientId,omitempty"`
	Verdict   string    `json:"verdict,omitempty"`
	Error     string    `json:"error,omitempty"`
}

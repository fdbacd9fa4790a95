package models

import "time"

// Reading is one timestamped observation reported by a station. Readings are never updated.
type Reading struct {
	ID          string    `json:"id,omitempty"`
	EquipmentID string    `json:"equipmentId"`
	Timestamp   time.Time `json:"timestamp"`
	Value       float64   `json:"value"`
}

// ReadingValue is the per-station projection of a reading; the equipment id is implied by the query.
type ReadingValue struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// StationAverage is the mean value of one station inside a query window.
type StationAverage struct {
	EquipmentID string  `json:"equipmentId"`
	Average     float64 `json:"average"`
}

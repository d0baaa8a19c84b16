package domain

import "time"

// DataPoint is a single dated observation of an economic indicator.
type DataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// IndicatorSeries is the ordered time series for one indicator, as returned
// by the storage layer for a requested date range.
type IndicatorSeries struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Unit      string      `json:"unit"`
	Frequency string      `json:"frequency"`
	Values    []DataPoint `json:"values"`
}

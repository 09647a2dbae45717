package metrics

// FanoutStats captures what a multi-request aggregation consumed.
type FanoutStats struct {
	Requests int `json:"requests"`
	Buckets  int `json:"buckets"`
	Excluded int `json:"excluded,omitempty"`
	Skipped  int `json:"skipped,omitempty"`
}

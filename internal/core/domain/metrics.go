package domain

import "time"

// PerformanceMetrics is the rolling-window snapshot produced by the aggregator.
// Rates are percentages on a 0-100 scale.
type PerformanceMetrics struct {
	TotalOperations      int                      `json:"totalOperations"`
	SuccessfulOperations int                      `json:"successfulOperations"`
	FailedOperations     int                      `json:"failedOperations"`
	SuccessRate          float64                  `json:"successRate"`
	ErrorRate            float64                  `json:"errorRate"`
	AverageRenderTimeMs  float64                  `json:"averageRenderTimeMs"`
	AverageMemoryMB      float64                  `json:"averageMemoryMB"`
	FallbackRate         float64                  `json:"fallbackRate"`
	MethodSuccessRates   map[RenderMethod]float64 `json:"methodSuccessRates"`
	ErrorRates           map[ErrorType]float64    `json:"errorRates"`
	Trends               Trends                   `json:"trends"`
	GeneratedAt          time.Time                `json:"generatedAt"`
}

// Trends compares a snapshot to the one computed immediately before it.
// Rate changes are in percentage points, the others in percent.
type Trends struct {
	SuccessRateChange float64 `json:"successRateChange"`
	ErrorRateChange   float64 `json:"errorRateChange"`
	RenderTimeChange  float64 `json:"renderTimeChange"`
	MemoryUsageChange float64 `json:"memoryUsageChange"`
}

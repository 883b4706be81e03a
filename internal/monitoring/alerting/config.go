package alerting

import "time"

// Thresholds are the configured alert boundaries.
type Thresholds struct {
	ErrorRate         float64 `yaml:"error_rate"`          // percent, ceiling
	SuccessRate       float64 `yaml:"success_rate"`        // percent, floor
	AverageRenderTime float64 `yaml:"average_render_time"` // milliseconds, ceiling
	MemoryUsage       float64 `yaml:"memory_usage"`        // megabytes, ceiling
}

// Rules toggles each check independently.
type Rules struct {
	LowSuccessRate         bool `yaml:"low_success_rate"`
	HighErrorRate          bool `yaml:"high_error_rate"`
	SlowPerformance        bool `yaml:"slow_performance"`
	HighMemoryUsage        bool `yaml:"high_memory_usage"`
	MethodFailure          bool `yaml:"method_failure"`
	ErrorPattern           bool `yaml:"error_pattern"`
	PerformanceDegradation bool `yaml:"performance_degradation"`
	PoorUserExperience     bool `yaml:"poor_user_experience"`
}

// AllRules enables every check.
func AllRules() Rules {
	return Rules{
		LowSuccessRate:         true,
		HighErrorRate:          true,
		SlowPerformance:        true,
		HighMemoryUsage:        true,
		MethodFailure:          true,
		ErrorPattern:           true,
		PerformanceDegradation: true,
		PoorUserExperience:     true,
	}
}

// Fixed policy values that are not exposed as configuration.
const (
	MethodFailureFloor     = 50.0 // percent
	PatternMinOccurrences  = 3
	PatternRate            = 10.0 // percent of recent records
	PatternCriticalRate    = 30.0
	DegradationThreshold   = 50.0 // percent render time or memory regression
	PoorRatingMax          = 2
	DefaultDedupWindow     = 5 * time.Minute
	DefaultAckRetention    = 7 * 24 * time.Hour
	DefaultDeliveryTimeout = 5 * time.Second
)

// Config controls the alert manager.
type Config struct {
	Enabled           bool
	FeedbackEnabled   bool
	Thresholds        Thresholds
	Rules             Rules
	DedupWindow       time.Duration
	AckRetention      time.Duration
	FeedbackRetention time.Duration // 0 keeps feedback for the process lifetime
	DeliveryTimeout   time.Duration
}

// DefaultConfig returns sensible defaults for a document viewer.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		FeedbackEnabled: true,
		Thresholds: Thresholds{
			ErrorRate:         10,
			SuccessRate:       90,
			AverageRenderTime: 5000,
			MemoryUsage:       200,
		},
		Rules:             AllRules(),
		DedupWindow:       DefaultDedupWindow,
		AckRetention:      DefaultAckRetention,
		FeedbackRetention: 7 * 24 * time.Hour,
		DeliveryTimeout:   DefaultDeliveryTimeout,
	}
}

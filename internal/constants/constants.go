package constants

import "time"

var CacheKeys = struct {
	RecordPrefix string
}{
	RecordPrefix: "gamegen:record:",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var AIInputLimits = struct {
	MaxURLLength  int
	MaxHintLength int
}{
	MaxURLLength:  2048,
	MaxHintLength: 300,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // 3 consecutive failures open the circuit
	ResetTimeout:        30 * time.Second, // default wait before retrying
	RateLimitTimeout:    10 * time.Minute, // 429 responses back off longer
	HealthCheckInterval: 2 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var PageHintConfig = struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}{
	Timeout:      10 * time.Second,
	MaxBodyBytes: 2 << 20, // 2 MiB
	UserAgent:    "gamegen/1.0 (+https://github.com/kapu/gamegen-go)",
}

var ServerConfig = struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	WSWriteTimeout    time.Duration
	MaxRequestBytes   int64
}{
	ReadHeaderTimeout: 10 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	WSWriteTimeout:    10 * time.Second,
	MaxRequestBytes:   1 << 20,
}

var GameDefaults = struct {
	FailedName     string
	FailedExcerpt  string
	FallbackFile   string
	RelatedCount   int
	IconSizeSuffix string
	IconExtension  string
}{
	FailedName:     "Failed to process URL",
	FailedExcerpt:  "<p>Error generating data for this URL.</p>",
	FallbackFile:   "game",
	RelatedCount:   3,
	IconSizeSuffix: "-150x150",
	IconExtension:  ".webp",
}

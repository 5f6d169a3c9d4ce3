package config

import "time"

func DefaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			URL:             "nats://localhost:4222",
			ConnectionName:  "tiervecd",
			MaxReconnects:   -1,
			ReconnectWait:   Duration(2 * time.Second),
			ReconnectBuffer: ByteSize(16 * 1024 * 1024), // 16MB
		},
		API: APIConfig{
			Enabled: true,
			Listen:  ":8080",
			MaxBody: ByteSize(1024 * 1024), // 1MB
			NATSResponder: NATSResponderConfig{
				Enabled:       false,
				SubjectPrefix: "tiervec",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Listen:  ":9090",
				Path:    "/metrics",
			},
			Health: HealthConfig{
				Enabled:       true,
				Listen:        ":8081",
				LivenessPath:  "/healthz",
				ReadinessPath: "/readyz",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stderr",
			},
		},
	}
}

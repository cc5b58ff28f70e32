package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Server contains the settings of the bundled signaling server. All values
// are loaded from environment variables.
type Server struct {
	Environment    string
	Port           int
	AllowedOrigins []string

	// UpgradeRate is the per-IP websocket upgrade rate, in requests per second.
	UpgradeRate  float64
	UpgradeBurst int
}

// IsDevelopment reports whether origin checks should be relaxed.
func (s *Server) IsDevelopment() bool {
	return s.Environment == "development"
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LoadServer reads and validates the signaling server configuration.
func LoadServer() (*Server, error) {
	cfg := &Server{
		Environment: firstNonEmpty(os.Getenv("ENVIRONMENT"), "development"),
	}

	port, err := strconv.Atoi(firstNonEmpty(os.Getenv("PORT"), "4444"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	cfg.UpgradeRate, err = strconv.ParseFloat(firstNonEmpty(os.Getenv("UPGRADE_RATE"), "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPGRADE_RATE environment variable: %w", err)
	}
	cfg.UpgradeBurst, err = strconv.Atoi(firstNonEmpty(os.Getenv("UPGRADE_BURST"), "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPGRADE_BURST environment variable: %w", err)
	}

	return cfg, nil
}

// Package config loads application configuration from environment
// variables with sensible defaults.
package config

import (
	"os"
	"strconv"
)

// Config holds every tunable the server reads from the environment.
type Config struct {
	Port string

	// Transport / identity collaborators.
	RedisURL  string
	JWTSecret string
	LevelsDir string

	// Game rules.
	TurnPreparationTime     int // seconds
	DefaultActionPoints     int
	MaxTurns                int
	WinningCoreControlTurns int
	MarchActionPoints       int
	SpawnActionPoints       int
	MinLobby                int
	MaxLobby                int
	PlayerUsernameMin       int
	PlayerUsernameMax       int
	RandomSeed              int64

	// Controller pacing.
	PlanningTickInterval float64 // seconds
	SendUpdateRation     float64 // seconds
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for local development.
func Load() *Config {
	return &Config{
		Port:      envOrDefault("PORT", "8009"),
		RedisURL:  envOrDefault("REDIS_URL", ""),
		JWTSecret: envOrDefault("JWT_SECRET", "dev-secret-change-me"),
		LevelsDir: envOrDefault("LEVELS_DIR", "./levels"),

		TurnPreparationTime:     envOrDefaultInt("TURN_PREPARATION_TIME", 30),
		DefaultActionPoints:     envOrDefaultInt("DEFAULT_ACTION_POINTS", 3),
		MaxTurns:                envOrDefaultInt("MAX_TURNS", 20),
		WinningCoreControlTurns: envOrDefaultInt("WINNING_CORE_CONTROL_TURNS", 3),
		MarchActionPoints:       envOrDefaultInt("MARCH_ACTION_POINTS", 1),
		SpawnActionPoints:       envOrDefaultInt("SPAWN_ACTION_POINTS", 2),
		MinLobby:                envOrDefaultInt("MIN_LOBBY", 3),
		MaxLobby:                envOrDefaultInt("MAX_LOBBY", 8),
		PlayerUsernameMin:       envOrDefaultInt("PLAYER_MIN", 3),
		PlayerUsernameMax:       envOrDefaultInt("PLAYER_MAX", 8),
		RandomSeed:              envOrDefaultInt64("RANDOM_SEED", 1234),

		PlanningTickInterval: envOrDefaultFloat("PLANNING_TICK_INTERVAL", 0.2),
		SendUpdateRation:     envOrDefaultFloat("SEND_UPDATE_RATION", 2.0),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	JWTSecret     string
	AdminUser     string
	AdminPassHash string // bcrypt

	// Inspector working state.
	WorkDir       string
	URLCachePath  string
	ClassroomHost string // submission links on this host are ignored

	// External judge.
	JudgeBaseURL string

	// Upstream classroom gradebook.
	ClassroomBaseURL   string
	ClassroomTokenURL  string
	ClassroomClientID  string
	ClassroomSecret    string
	RosterSyncInterval time.Duration
	EnableRosterSync   bool

	// Optional YAML seed applied at startup.
	CourseloadPath string

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		JWTSecret:     envOr("JWT_SECRET", "dev-secret-change-me"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", ""),

		WorkDir:       envOr("WORK_DIR", "studentwork"),
		URLCachePath:  envOr("URL_CACHE_PATH", "targets.json"),
		ClassroomHost: envOr("CLASSROOM_HOST", "classroom.github.com"),

		JudgeBaseURL: envOr("JUDGE_BASE_URL", ""),

		ClassroomBaseURL:   envOr("CLASSROOM_BASE_URL", ""),
		ClassroomTokenURL:  envOr("CLASSROOM_TOKEN_URL", ""),
		ClassroomClientID:  envOr("CLASSROOM_CLIENT_ID", ""),
		ClassroomSecret:    envOr("CLASSROOM_CLIENT_SECRET", ""),
		RosterSyncInterval: envDur("ROSTER_SYNC_INTERVAL", 5*time.Minute),
		EnableRosterSync:   envBool("ENABLE_ROSTER_SYNC", false),

		CourseloadPath: envOr("COURSELOAD_PATH", ""),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

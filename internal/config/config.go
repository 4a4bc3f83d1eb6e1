package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
    "time"
)

// Showtime end-time policies.  Strict requires a showtime to end exactly
// movie.duration minutes after it starts; lenient only requires the end
// to come after the start.
const (
    DurationPolicyStrict  = "strict"
    DurationPolicyLenient = "lenient"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  A single Config is built in main and passed to
// the components that need it.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    RunMigrations  bool   // apply embedded migrations on startup
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    DurationPolicy string        // showtime end-time policy (strict|lenient)
    AdminEmail     string        // seeded admin account, optional
    AdminPassword  string        // password of the seeded admin
    RabbitMQURL    string        // broker for reservation events; empty disables publishing
    SeatCacheTTL   time.Duration // lifetime of cached seat maps
    RequestTimeout time.Duration // per-request deadline for store calls
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:            must("APP_ENV"),                      // environment (dev/test/prod)
        Port:           must("APP_PORT"),                     // port to bind the HTTP server
        DBUser:         must("DB_USER"),                      // database user
        DBPass:         os.Getenv("DB_PASS"),                 // database password (empty allowed)
        DBHost:         must("DB_HOST"),                      // database host
        DBPort:         must("DB_PORT"),                      // database port
        DBName:         must("DB_NAME"),                      // database name
        RunMigrations:  envBool("RUN_MIGRATIONS", true),      // apply schema on boot
        JWTSecret:      must("JWT_SECRET"),                   // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),      // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),    // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),               // bcrypt cost factor
        DurationPolicy: strings.ToLower(envStr("SHOWTIME_DURATION_POLICY", DurationPolicyLenient)),
        AdminEmail:     os.Getenv("ADMIN_EMAIL"),
        AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
        RabbitMQURL:    firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
        SeatCacheTTL:   envDur("SEAT_CACHE_TTL", 30*time.Second),
        RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
    }
    if cfg.DurationPolicy != DurationPolicyStrict && cfg.DurationPolicy != DurationPolicyLenient {
        log.Fatalf("invalid SHOWTIME_DURATION_POLICY: %q", cfg.DurationPolicy)
    }
    return cfg
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return c.Env == "prod" || c.Env == "production" }

// StrictDuration reports whether showtimes must match the movie length.
func (c Config) StrictDuration() bool { return c.DurationPolicy == DurationPolicyStrict }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

func firstNonEmpty(vals ...string) string {
    for _, v := range vals {
        if v != "" {
            return v
        }
    }
    return ""
}

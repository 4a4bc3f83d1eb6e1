package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// The env* helpers read optional variables.  Unset, empty or malformed
// values fall back to the given default.

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return d
	}
	return n
}

func envDur(k string, d time.Duration) time.Duration {
	dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return d
	}
	return dur
}

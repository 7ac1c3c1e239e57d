package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	defaultWindow = 24 * time.Hour
	day           = 24 * time.Hour
	week          = 7 * day
)

// ParseTimeWindow reads a chart window such as "30m", "2h", "7d" or "1w".
// A bare number counts hours. A suffix with an unreadable number falls back
// to that suffix's default, and anything else to 24h.
func ParseTimeWindow(text string) time.Duration {
	w := strings.ToLower(strings.TrimSpace(text))
	if w == "" {
		return defaultWindow
	}

	switch w[len(w)-1] {
	case 'w':
		return scaleWindow(w[:len(w)-1], week, week)
	case 'd':
		return scaleWindow(w[:len(w)-1], day, week)
	case 'h':
		return scaleWindow(w[:len(w)-1], time.Hour, defaultWindow)
	case 'm':
		return scaleWindow(w[:len(w)-1], time.Minute, 30*time.Minute)
	}
	return scaleWindow(w, time.Hour, defaultWindow)
}

func scaleWindow(number string, unit, fallback time.Duration) time.Duration {
	n, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return fallback
	}
	d := n * float64(unit)
	if d > float64(math.MaxInt64) {
		return fallback
	}
	return time.Duration(d).Truncate(time.Second)
}

package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// reader decodes raw store values, substituting defaults for anything missing
// or malformed.
type reader struct {
	s   *Settings
	raw map[string]string
}

func (r reader) value(field string) (string, bool) {
	v, ok := r.raw[r.s.Key(field)]
	return v, ok
}

func (r reader) seconds(field string, fallback uint32) uint32 {
	v, ok := r.value(field)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		r.s.logger.Warn().Str("key", field).Str("value", v).Uint32("default", fallback).
			Msg("Invalid setting, using default")
		return fallback
	}
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// timestamp decodes unix milliseconds; zero, negative or bad values are unset.
func (r reader) timestamp(field string) time.Time {
	v, ok := r.value(field)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		r.s.logger.Warn().Str("key", field).Str("value", v).Msg("Invalid timestamp, treating as unset")
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (r reader) flag(field string) bool {
	v, ok := r.value(field)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.s.logger.Warn().Str("key", field).Str("value", v).Msg("Invalid flag, using false")
		return false
	}
	return b
}

func (r reader) list(field string) []string {
	v, ok := r.value(field)
	if !ok || v == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(v), &items); err != nil {
		r.s.logger.Warn().Err(err).Str("key", field).Msg("Invalid list, treating as empty")
		return nil
	}
	return items
}

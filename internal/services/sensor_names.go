package services

import (
	"regexp"
	"strings"
)

// Instrument tags look like "4010FI001.DACA.PV": four area digits, a
// two-letter type code, a three-digit loop number, then qualifier
// segments. The maintenance system keys its assets on the hyphenated
// form "40-10-FI-001".
var defaultTagPattern = regexp.MustCompile(`^(\d{2})(\d{2})([A-Z]{2})(\d{3})$`)

// SensorNameConfig exposes the tag pattern and the pass-through policy.
// Tags that do not match the pattern are passed through unchanged when
// KeepUnmatched is set, otherwise dropped.
type SensorNameConfig struct {
	TagPattern    *regexp.Regexp
	KeepUnmatched bool
}

func DefaultSensorNameConfig() SensorNameConfig {
	return SensorNameConfig{
		TagPattern:    defaultTagPattern,
		KeepUnmatched: true,
	}
}

type SensorNameCanonicalizer struct {
	config SensorNameConfig
}

func NewSensorNameCanonicalizer(config SensorNameConfig) *SensorNameCanonicalizer {
	if config.TagPattern == nil {
		config.TagPattern = defaultTagPattern
	}
	return &SensorNameCanonicalizer{config: config}
}

// BaseTag strips the qualifier suffix after the first dot:
// "4010FI001.DACA.PV" -> "4010FI001".
func BaseTag(sensorName string) string {
	if idx := strings.IndexByte(sensorName, '.'); idx >= 0 {
		return sensorName[:idx]
	}
	return sensorName
}

// Canonicalize maps an instrument tag to the maintenance system's
// asset name. The second return value reports whether the tag matched
// the pattern; unmatched tags are returned unchanged (the canonical
// form itself never matches, so the mapping is idempotent).
func (canonicalizer *SensorNameCanonicalizer) Canonicalize(sensorName string) (string, bool) {
	base := BaseTag(sensorName)

	groups := canonicalizer.config.TagPattern.FindStringSubmatch(base)
	if groups == nil {
		return sensorName, false
	}

	return strings.Join(groups[1:], "-"), true
}

// KeepUnmatched reports the configured pass-through policy.
func (canonicalizer *SensorNameCanonicalizer) KeepUnmatched() bool {
	return canonicalizer.config.KeepUnmatched
}

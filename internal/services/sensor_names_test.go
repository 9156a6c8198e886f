package services_test

import (
	"regexp"
	"testing"

	"github.com/Itera/unger-agentic-insight/internal/services"
)

func TestCanonicalize(t *testing.T) {
	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())

	cases := []struct {
		tag       string
		canonical string
		matched   bool
	}{
		{"4010FI001.DACA.PV", "40-10-FI-001", true},
		{"4038LI329.DACA.PV", "40-38-LI-329", true},
		{"7520TI371", "75-20-TI-371", true},
		{"4010FI001.PIDA.SP", "40-10-FI-001", true},
		// canonical form passes through unchanged
		{"40-10-FI-001", "40-10-FI-001", false},
		// three-letter type codes are outside the default pattern
		{"7520LIC008.PIDA.OP", "7520LIC008.PIDA.OP", false},
		{"pump-station-7", "pump-station-7", false},
		{"", "", false},
	}

	for _, tc := range cases {
		canonical, matched := canonicalizer.Canonicalize(tc.tag)
		if canonical != tc.canonical {
			t.Errorf("Canonicalize(%q) = %q, expected %q", tc.tag, canonical, tc.canonical)
		}
		if matched != tc.matched {
			t.Errorf("Canonicalize(%q) matched = %v, expected %v", tc.tag, matched, tc.matched)
		}
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())

	tags := []string{"4010FI001.DACA.PV", "4038LI329", "7512PI100.X", "not-a-tag"}
	for _, tag := range tags {
		once, _ := canonicalizer.Canonicalize(tag)
		twice, _ := canonicalizer.Canonicalize(once)
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: %q -> %q", tag, once, twice)
		}
	}
}

func TestCanonicalFormShape(t *testing.T) {
	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())
	canonicalShape := regexp.MustCompile(`^\d{2}-\d{2}-[A-Z]{2}-\d{3}$`)

	tags := []string{"4010FI001.DACA.PV", "4038LI329", "7512PI100", "4010TI371.DACA.PV"}
	for _, tag := range tags {
		canonical, matched := canonicalizer.Canonicalize(tag)
		if !matched {
			t.Fatalf("Expected %q to match the tag pattern", tag)
		}
		if !canonicalShape.MatchString(canonical) {
			t.Errorf("Canonical form %q does not match the asset-name shape", canonical)
		}
	}
}

func TestBaseTag(t *testing.T) {
	if got := services.BaseTag("4010FI001.DACA.PV"); got != "4010FI001" {
		t.Errorf("BaseTag = %q, expected 4010FI001", got)
	}
	if got := services.BaseTag("4010FI001"); got != "4010FI001" {
		t.Errorf("BaseTag without qualifier = %q, expected 4010FI001", got)
	}
}

func TestCustomPattern(t *testing.T) {
	canonicalizer := services.NewSensorNameCanonicalizer(services.SensorNameConfig{
		TagPattern:    regexp.MustCompile(`^(\d{2})(\d{2})([A-Z]{2,3})(\d{3})$`),
		KeepUnmatched: false,
	})

	canonical, matched := canonicalizer.Canonicalize("7520LIC008.PIDA.OP")
	if !matched || canonical != "75-20-LIC-008" {
		t.Errorf("Expected widened pattern to match three-letter codes, got %q matched=%v", canonical, matched)
	}

	if canonicalizer.KeepUnmatched() {
		t.Error("Expected configured pass-through policy to be reported")
	}
}

package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func durationSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

var usdPattern = regexp.MustCompile(`^-?\$\d{1,3}(,\d{3})*\.\d{2}$`)

// Property: FormatUSD always produces $X,XXX.XX with correct grouping, and
// parsing the digits back recovers the cent-rounded amount.
func TestProperty_USDFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatUSD round-trips through its digits", prop.ForAll(
		func(amount float64) bool {
			if math.IsNaN(amount) || math.IsInf(amount, 0) {
				return true
			}

			formatted := FormatUSD(amount)
			if !usdPattern.MatchString(formatted) {
				t.Logf("bad format for %f: %s", amount, formatted)
				return false
			}

			digits := strings.NewReplacer("$", "", ",", "", "-", "").Replace(formatted)
			parsed, err := strconv.ParseFloat(digits, 64)
			if err != nil {
				t.Logf("unparseable digits for %f: %s", amount, formatted)
				return false
			}
			if strings.HasPrefix(formatted, "-") {
				parsed = -parsed
			}

			want := math.Round(math.Abs(amount)*100) / 100
			if amount < 0 {
				want = -want
			}
			if math.Abs(parsed-want) > 0.005 {
				t.Logf("value drift for %f: formatted %s, parsed %f", amount, formatted, parsed)
				return false
			}
			return true
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

func TestFormatUSDExamples(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{2060, "$2,060.00"},
		{2412.50, "$2,412.50"},
		{1234567.89, "$1,234,567.89"},
		{-31.45, "-$31.45"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{14.2, "15s"},
		{20, "20s"},
		{0.4, "1s"},
		{0, "expired"},
		{-3, "expired"},
	}
	for _, tt := range tests {
		got := FormatCountdown(durationSeconds(tt.seconds))
		if got != tt.want {
			t.Errorf("FormatCountdown(%vs) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

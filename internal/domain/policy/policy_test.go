package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var checkIn = time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)

func moderateFiveDays(t *testing.T) *CancellationPolicy {
	t.Helper()
	p, err := New("moderate-5d", "Moderate 5 Days", []Tier{
		{DaysBefore: 5, Fraction: 1.0},
		{DaysBefore: 2, Fraction: 0.5},
	}, 0, false)
	require.NoError(t, err)
	return p
}

func TestValidateRejectsMalformedTierSets(t *testing.T) {
	cases := []struct {
		name    string
		tiers   []Tier
		deflt   float64
		wantErr bool
	}{
		{"empty tiers ok", nil, 0.5, false},
		{"descending days ok", []Tier{{7, 1.0}, {3, 0.5}}, 0, false},
		{"ascending days", []Tier{{3, 0.5}, {7, 1.0}}, 0, true},
		{"duplicate days", []Tier{{5, 1.0}, {5, 0.5}}, 0, true},
		{"increasing fraction", []Tier{{7, 0.5}, {3, 0.8}}, 0, true},
		{"zero days threshold", []Tier{{0, 1.0}}, 0, true},
		{"fraction above one", []Tier{{7, 1.5}}, 0, true},
		{"negative fraction", []Tier{{7, -0.1}}, 0, true},
		{"default above last tier", []Tier{{7, 1.0}, {3, 0.5}}, 0.8, true},
		{"default out of range", nil, 1.2, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("p", "test", tc.tiers, tc.deflt, false)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPolicy)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRejectsMissingID(t *testing.T) {
	p := &CancellationPolicy{Name: "no id"}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	var nilPolicy *CancellationPolicy
	assert.ErrorIs(t, nilPolicy.Validate(), ErrInvalidPolicy)
}

func TestEvaluateTierSelection(t *testing.T) {
	p := moderateFiveDays(t)

	cases := []struct {
		name     string
		cancelAt time.Time
		want     float64
	}{
		{"seven days before", checkIn.AddDate(0, 0, -7), 1.0},
		{"exactly five days before", checkIn.AddDate(0, 0, -5), 1.0},
		{"three days before", checkIn.AddDate(0, 0, -3), 0.5},
		{"exactly two days before", checkIn.AddDate(0, 0, -2), 0.5},
		{"one day before", checkIn.AddDate(0, 0, -1), 0},
		{"at check-in", checkIn, 0},
		{"after check-in", checkIn.Add(26 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, p.Evaluate(checkIn, tc.cancelAt), 1e-9)
		})
	}
}

func TestEvaluatePartialDaysTruncate(t *testing.T) {
	p := moderateFiveDays(t)
	// 4 days 23 hours before check-in counts as 4 full days.
	cancelAt := checkIn.Add(-(5*24 - 1) * time.Hour)
	assert.InDelta(t, 0.5, p.Evaluate(checkIn, cancelAt), 1e-9)
}

func TestEvaluateIsMonotonicOverTime(t *testing.T) {
	p := moderateFiveDays(t)
	prev := 2.0
	for hours := 0; hours <= 10*24; hours += 6 {
		cancelAt := checkIn.Add(-time.Duration(10*24-hours) * time.Hour)
		f := p.Evaluate(checkIn, cancelAt)
		assert.LessOrEqual(t, f, prev, "refund fraction grew as cancellation moved later")
		prev = f
	}
}

func TestEvaluateDefaultFraction(t *testing.T) {
	p, err := New("flexible", "Flexible", []Tier{{DaysBefore: 7, Fraction: 1.0}}, 0.25, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, p.Evaluate(checkIn, checkIn.AddDate(0, 0, -1)), 1e-9)
}

func TestEvaluateInterrupted(t *testing.T) {
	checkOut := checkIn.AddDate(0, 0, 10)

	t.Run("without provision falls back to zero after check-in", func(t *testing.T) {
		p := moderateFiveDays(t)
		assert.InDelta(t, 0, p.EvaluateInterrupted(checkIn, checkOut, checkIn.AddDate(0, 0, 3)), 1e-9)
	})

	t.Run("pro-rates unused nights", func(t *testing.T) {
		p, err := New("interruptible", "Interruptible", nil, 0, true)
		require.NoError(t, err)
		// 3 of 10 nights used, 7 unused.
		got := p.EvaluateInterrupted(checkIn, checkOut, checkIn.AddDate(0, 0, 3))
		assert.InDelta(t, 0.7, got, 1e-9)
	})

	t.Run("before check-in uses the tier scan", func(t *testing.T) {
		p, err := New("interruptible", "Interruptible", []Tier{{DaysBefore: 5, Fraction: 1.0}}, 0, true)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, p.EvaluateInterrupted(checkIn, checkOut, checkIn.AddDate(0, 0, -6)), 1e-9)
	})

	t.Run("after check-out refunds nothing", func(t *testing.T) {
		p, err := New("interruptible", "Interruptible", nil, 0, true)
		require.NoError(t, err)
		assert.InDelta(t, 0, p.EvaluateInterrupted(checkIn, checkOut, checkOut.Add(time.Hour)), 1e-9)
	})
}

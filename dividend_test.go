package quotes

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/etnz/quotes/date"
	"github.com/shopspring/decimal"
)

func TestTrailingPerShareWindow(t *testing.T) {
	end := date.New(2024, 6, 1)
	events := &date.History[decimal.Decimal]{}
	events.Append(end.Add(-400), d("10"))
	events.Append(end.Add(-200), d("20"))
	events.Append(end.Add(-100), d("30"))
	events.Append(end, d("40"))

	got := TrailingPerShare(events, end)
	if !got.Equal(d("90")) {
		t.Errorf("trailing sum = %s, want 90 (the -400d event is out of the window)", got)
	}
}

func TestTrailingPerShareBoundaries(t *testing.T) {
	end := date.New(2024, 6, 1)
	cutoff := end.Add(-365)

	tests := []struct {
		name string
		day  date.Date
		want string
	}{
		{"event exactly 365 days back is excluded", cutoff, "0"},
		{"event one day inside is included", cutoff.Add(1), "7"},
		{"event on the end date is included", end, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := (&date.History[decimal.Decimal]{}).Append(tt.day, d("7"))
			if got := TrailingPerShare(events, end); !got.Equal(d(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTrailingPerShareEmpty(t *testing.T) {
	if got := TrailingPerShare(nil, date.New(2024, 6, 1)); !got.IsZero() {
		t.Errorf("got %s, want 0", got)
	}
}

func TestLatestExDate(t *testing.T) {
	if _, ok := LatestExDate(&date.History[decimal.Decimal]{}); ok {
		t.Error("empty history must have no latest ex-date")
	}
	events := histo("2024-01-15", "0.5", "2024-04-15", "0.5")
	day, ok := LatestExDate(events)
	if !ok || day != date.New(2024, 4, 15) {
		t.Errorf("got %v ok=%v, want 2024-04-15", day, ok)
	}
}

func TestAnnualDividendIncomeSingleRate(t *testing.T) {
	pair := Pair{Base: "TWD", Quote: "HKD"}
	src := &stubRates{byPair: map[Pair]*date.History[decimal.Decimal]{
		pair: histo("2024-03-01", "0.21"),
	}}
	fx := NewFXResolver(src)
	events := histo(
		"2023-04-10", "2.0",
		"2023-10-12", "3.0",
		"2024-04-11", "2.75",
	)

	income, err := AnnualDividendIncome(context.Background(), fx, events, Q(1000), "TWD", "HKD")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := income.Years(), []int{2023, 2024}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Years() = %v, want %v", got, want)
	}
	if got := income.ByYear[2023]; !got.Equal(M(1050, "HKD")) {
		t.Errorf("2023 = %s, want 1050 HKD (5 TWD/share x 1000 x 0.21)", got)
	}
	if got := income.ByYear[2024]; !got.Equal(M(577.5, "HKD")) {
		t.Errorf("2024 = %s, want 577.50 HKD", got)
	}
	if src.calls != 1 {
		t.Errorf("rate fetched %d times, every year must reuse the same rate", src.calls)
	}
	if !income.Converted() || !income.Rate.Equal(d("0.21")) {
		t.Errorf("Converted=%v Rate=%s, want a flagged 0.21 conversion", income.Converted(), income.Rate)
	}
}

func TestAnnualDividendIncomeIdentity(t *testing.T) {
	src := &stubRates{}
	fx := NewFXResolver(src)
	events := histo("2024-01-15", "0.625", "2024-04-15", "0.625")

	income, err := AnnualDividendIncome(context.Background(), fx, events, Q(1000), "HKD", "HKD")
	if err != nil {
		t.Fatal(err)
	}
	if got := income.ByYear[2024]; !got.Equal(M(1250, "HKD")) {
		t.Errorf("2024 = %s, want 1250 HKD", got)
	}
	if income.Converted() {
		t.Error("identity pair must not be flagged as converted")
	}
	if src.calls != 0 {
		t.Errorf("identity conversion reached the rate source %d times", src.calls)
	}
}

func TestAnnualDividendIncomeMissingRate(t *testing.T) {
	fx := NewFXResolver(&stubRates{})
	events := histo("2024-04-11", "2.75")

	_, err := AnnualDividendIncome(context.Background(), fx, events, Q(1000), "TWD", "HKD")
	var missing *MissingRateError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want a *MissingRateError", err)
	}
}

func TestTrailingIncomeConverted(t *testing.T) {
	pair := Pair{Base: "TWD", Quote: "HKD"}
	fx := NewFXResolver(&stubRates{byPair: map[Pair]*date.History[decimal.Decimal]{
		pair: histo("2024-03-01", "0.21"),
	}})
	// 1 TWD per share over the trailing year.
	events := histo("2022-06-20", "9.9", "2024-04-11", "1.0")

	got, err := TrailingIncome(context.Background(), fx, events, Q(1000), "TWD", "HKD")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(M(210, "HKD")) {
		t.Fatalf("trailing income = %s, want 210 HKD", got)
	}

	low, high := SensitivityBand(got, pair, d("0.05"))
	if !low.Equal(M(199.5, "HKD")) || !high.Equal(M(220.5, "HKD")) {
		t.Errorf("band = [%s, %s], want [199.50 HKD, 220.50 HKD]", low, high)
	}
}

func TestTrailingIncomeNoEvents(t *testing.T) {
	fx := NewFXResolver(&stubRates{})
	got, err := TrailingIncome(context.Background(), fx, nil, Q(1000), "TWD", "HKD")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsZero() || got.Currency() != "HKD" {
		t.Errorf("got %s, want 0 HKD without touching the rate source", got)
	}
}

func TestSensitivityBandCollapsesOnIdentity(t *testing.T) {
	amount := M(2500, "HKD")

	low, high := SensitivityBand(amount, Pair{Base: "HKD", Quote: "HKD"}, d("0.05"))
	if !low.Equal(amount) || !high.Equal(amount) {
		t.Errorf("band = [%s, %s], want both collapsed to %s", low, high, amount)
	}

	low, high = SensitivityBand(M(1000, "HKD"), Pair{Base: "USD", Quote: "HKD"}, d("0.05"))
	if !low.Equal(M(950, "HKD")) || !high.Equal(M(1050, "HKD")) {
		t.Errorf("band = [%s, %s], want [950 HKD, 1050 HKD]", low, high)
	}
}

func TestDividendStability(t *testing.T) {
	events := histo(
		"2023-01-10", "1.0",
		"2023-07-10", "2.0",
		"2024-01-10", "3.0",
	)
	s, ok := DividendStability(events)
	if !ok {
		t.Fatal("expected metrics for a non-empty history")
	}
	if want := math.Sqrt(2.0 / 3.0); math.Abs(s.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", s.StdDev, want)
	}
	if !s.HasGrowth || math.Abs(s.Growth-200) > 1e-9 {
		t.Errorf("Growth = %v (has=%v), want 200%%", s.Growth, s.HasGrowth)
	}
}

func TestDividendStabilityZeroFirstEvent(t *testing.T) {
	events := histo("2023-01-10", "0", "2024-01-10", "3.0")
	s, ok := DividendStability(events)
	if !ok {
		t.Fatal("expected metrics")
	}
	if s.HasGrowth {
		t.Error("growth is undefined when the first event is zero")
	}
}

func TestDividendStabilityWindowsLastEvents(t *testing.T) {
	events := &date.History[decimal.Decimal]{}
	// Two old spikes, then 36 flat events: the spikes must fall outside
	// the window.
	events.Append(date.New(2010, 1, 1), d("100"))
	events.Append(date.New(2010, 7, 1), d("100"))
	day := date.New(2011, 1, 1)
	for i := 0; i < stabilityWindow; i++ {
		events.Append(day, d("2"))
		day = day.Add(30)
	}

	s, ok := DividendStability(events)
	if !ok {
		t.Fatal("expected metrics")
	}
	if s.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 over the flat window", s.StdDev)
	}
	if !s.HasGrowth || s.Growth != 0 {
		t.Errorf("Growth = %v (has=%v), want flat 0%%", s.Growth, s.HasGrowth)
	}
}

func TestDividendStabilityEmpty(t *testing.T) {
	if _, ok := DividendStability(nil); ok {
		t.Error("no events must yield no metrics")
	}
}

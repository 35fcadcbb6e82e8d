package strategy

import (
	"testing"
	"time"

	"dripsim/internal/domain"
)

// barsFromCloses builds a daily bar window from close prices.
func barsFromCloses(closes []float64) []domain.PriceBar {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestRegistryBuildAndList(t *testing.T) {
	r := NewDefaultRegistry()

	names := r.List()
	want := []string{"bollinger", "dca", "ma-cross", "rsi"}
	if len(names) != len(want) {
		t.Fatalf("List returned %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	ev, err := r.Build("rsi", nil)
	if err != nil {
		t.Fatalf("Build(rsi): %v", err)
	}
	if ev.Name() != "rsi" {
		t.Errorf("built strategy Name() = %q, want %q", ev.Name(), "rsi")
	}

	if _, err := r.Build("nonexistent", nil); err == nil {
		t.Error("Build returned nil error for unknown strategy")
	}
}

func TestDCAAlwaysInvests(t *testing.T) {
	ev, err := NewDCA(nil)
	if err != nil {
		t.Fatalf("NewDCA: %v", err)
	}
	if ev.Warmup() != 1 {
		t.Errorf("Warmup = %d, want 1", ev.Warmup())
	}

	sig, err := ev.Evaluate(barsFromCloses([]float64{100}))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !sig.Invest {
		t.Error("DCA did not signal investment")
	}
}

func TestRSIOversold(t *testing.T) {
	ev, err := NewRSI(map[string]float64{"period": 5, "threshold": 25})
	if err != nil {
		t.Fatalf("NewRSI: %v", err)
	}
	if ev.Warmup() != 6 {
		t.Errorf("Warmup = %d, want 6", ev.Warmup())
	}

	// Steady decline: all losses, RSI 0.
	sig, err := ev.Evaluate(barsFromCloses([]float64{100, 95, 90, 85, 80, 75}))
	if err != nil {
		t.Fatalf("Evaluate decline: %v", err)
	}
	if !sig.Invest {
		t.Errorf("declining prices: Invest = false, RSI = %.1f", sig.Value)
	}
	if sig.Value != 0 {
		t.Errorf("declining prices: RSI = %v, want 0", sig.Value)
	}

	// Steady rise: no losses, RSI 100.
	sig, err = ev.Evaluate(barsFromCloses([]float64{100, 105, 110, 115, 120, 125}))
	if err != nil {
		t.Fatalf("Evaluate rise: %v", err)
	}
	if sig.Invest {
		t.Error("rising prices: Invest = true")
	}
	if sig.Value != 100 {
		t.Errorf("rising prices: RSI = %v, want 100", sig.Value)
	}

	// Flat prices carry no losses, so RSI stays at 100.
	sig, err = ev.Evaluate(barsFromCloses([]float64{100, 100, 100, 100, 100, 100}))
	if err != nil {
		t.Fatalf("Evaluate flat: %v", err)
	}
	if sig.Value != 100 {
		t.Errorf("flat prices: RSI = %v, want 100", sig.Value)
	}
}

func TestRSIShortWindow(t *testing.T) {
	ev, _ := NewRSI(map[string]float64{"period": 14})
	if _, err := ev.Evaluate(barsFromCloses([]float64{100, 99})); err == nil {
		t.Error("Evaluate returned nil error for short window")
	}
}

func TestRSIParamValidation(t *testing.T) {
	if _, err := NewRSI(map[string]float64{"period": -1}); err == nil {
		t.Error("negative period accepted")
	}
	if _, err := NewRSI(map[string]float64{"period": 14.5}); err == nil {
		t.Error("fractional period accepted")
	}
	if _, err := NewRSI(map[string]float64{"threshold": 150}); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

func TestMACrossDetectsCross(t *testing.T) {
	ev, err := NewMACross(map[string]float64{"fast": 2, "slow": 3})
	if err != nil {
		t.Fatalf("NewMACross: %v", err)
	}
	if ev.Warmup() != 4 {
		t.Errorf("Warmup = %d, want 4", ev.Warmup())
	}

	// Fast average jumps above slow on the last bar.
	sig, err := ev.Evaluate(barsFromCloses([]float64{10, 9, 8, 20}))
	if err != nil {
		t.Fatalf("Evaluate cross: %v", err)
	}
	if !sig.Invest {
		t.Error("upward cross not detected")
	}

	// Continued decline: no cross.
	sig, err = ev.Evaluate(barsFromCloses([]float64{10, 9, 8, 7}))
	if err != nil {
		t.Fatalf("Evaluate decline: %v", err)
	}
	if sig.Invest {
		t.Error("decline produced an invest signal")
	}
}

func TestMACrossParamValidation(t *testing.T) {
	if _, err := NewMACross(map[string]float64{"fast": 30, "slow": 10}); err == nil {
		t.Error("fast >= slow accepted")
	}
}

func TestBollingerLowerBand(t *testing.T) {
	ev, err := NewBollinger(map[string]float64{"period": 4, "dev": 1})
	if err != nil {
		t.Fatalf("NewBollinger: %v", err)
	}
	if ev.Warmup() != 4 {
		t.Errorf("Warmup = %d, want 4", ev.Warmup())
	}

	// Close 80 sits below mean 95 minus one stddev.
	sig, err := ev.Evaluate(barsFromCloses([]float64{100, 100, 100, 80}))
	if err != nil {
		t.Fatalf("Evaluate dip: %v", err)
	}
	if !sig.Invest {
		t.Errorf("dip below lower band not detected, distance = %v", sig.Value)
	}

	// Mild dip against a choppy baseline stays inside the band.
	sig, err = ev.Evaluate(barsFromCloses([]float64{95, 105, 100, 98}))
	if err != nil {
		t.Fatalf("Evaluate mild dip: %v", err)
	}
	if sig.Invest {
		t.Error("mild dip produced an invest signal")
	}
}

func TestBollingerParamValidation(t *testing.T) {
	if _, err := NewBollinger(map[string]float64{"dev": -2}); err == nil {
		t.Error("negative dev accepted")
	}
}

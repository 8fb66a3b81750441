package auction

import (
	"math/big"
	"testing"
	"time"
)

func TestMinNextBid(t *testing.T) {
	cases := []struct {
		current string
		want    string
	}{
		{"0", "0"},
		{"100", "110"},
		{"1000000000000000000", "1100000000000000000"},
		// 10% of 19 truncates to 1
		{"19", "20"},
		{"1", "1"},
		{"9", "9"},
	}
	for _, tc := range cases {
		current, _ := new(big.Int).SetString(tc.current, 10)
		got := MinNextBid(current)
		if got.String() != tc.want {
			t.Errorf("MinNextBid(%s) = %s, want %s", tc.current, got, tc.want)
		}
	}
}

func TestCuratorCut(t *testing.T) {
	amount := big.NewInt(1999)

	if got := CuratorCut(amount, "0xcurator", 10); got.Int64() != 199 {
		t.Errorf("CuratorCut = %d, want 199", got.Int64())
	}
	if got := CuratorCut(amount, ZeroAddress, 10); got.Sign() != 0 {
		t.Errorf("cut without curator = %s, want 0", got)
	}
	if got := CuratorCut(amount, "0xcurator", 0); got.Sign() != 0 {
		t.Errorf("cut at zero pct = %s, want 0", got)
	}
	if got := CuratorCut(nil, "0xcurator", 10); got.Sign() != 0 {
		t.Errorf("cut of nil amount = %s, want 0", got)
	}
}

func TestExtension(t *testing.T) {
	end := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	if _, ok := Extension(end, end.Add(-ExtensionWindow)); ok {
		t.Error("bid exactly at the window boundary must not extend")
	}
	if _, ok := Extension(end, end.Add(-ExtensionWindow-time.Second)); ok {
		t.Error("bid before the window must not extend")
	}

	add, ok := Extension(end, end.Add(-5*time.Minute))
	if !ok || add != 10*time.Minute {
		t.Errorf("Extension at 5m remaining = (%v, %v), want (10m, true)", add, ok)
	}

	add, ok = Extension(end, end.Add(-10*time.Minute))
	if !ok || add != 5*time.Minute {
		t.Errorf("Extension at 10m remaining = (%v, %v), want (5m, true)", add, ok)
	}
}

func TestLifecyclePredicates(t *testing.T) {
	a := Auction{Duration: time.Hour}
	if a.Started() {
		t.Error("auction without a bid must not be started")
	}
	if a.Expired(time.Now().Add(1000 * time.Hour)) {
		t.Error("an auction that never started cannot expire")
	}

	a.FirstBidTime = time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	if !a.Started() {
		t.Error("auction with a first bid must be started")
	}
	if got := a.EndTime(); !got.Equal(a.FirstBidTime.Add(time.Hour)) {
		t.Errorf("EndTime = %v", got)
	}
	if a.Expired(a.EndTime().Add(-time.Nanosecond)) {
		t.Error("not expired just before the end time")
	}
	if !a.Expired(a.EndTime()) {
		t.Error("expired exactly at the end time")
	}
}

func TestCloneDetachesAmounts(t *testing.T) {
	a := Auction{ReservePrice: big.NewInt(5), Amount: big.NewInt(7)}
	c := a.Clone()
	c.ReservePrice.SetInt64(99)
	c.Amount.SetInt64(99)
	if a.ReservePrice.Int64() != 5 || a.Amount.Int64() != 7 {
		t.Error("Clone shares big.Int storage with the original")
	}

	c = Auction{}.Clone()
	if c.ReservePrice == nil || c.Amount == nil {
		t.Error("Clone must map nil amounts to zero")
	}
}

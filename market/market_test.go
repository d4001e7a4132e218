package market

import (
	"errors"
	"testing"
)

func TestToMicros(t *testing.T) {
	cases := []struct {
		name string
		in   uint64
		want uint64
	}{
		{"seconds", 1_700_000_000, 1_700_000_000_000_000},
		{"millis", 1_700_000_000_123, 1_700_000_000_123_000},
		{"micros", 1_700_000_000_123_456, 1_700_000_000_123_456},
		{"zero", 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToMicros(tc.in); got != tc.want {
				t.Errorf("ToMicros(%d) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestToMicrosIdempotent(t *testing.T) {
	in := uint64(1_700_000_000)
	once := ToMicros(in)
	if twice := ToMicros(once); twice != once {
		t.Errorf("ToMicros not idempotent: %d then %d", once, twice)
	}
}

func TestPerpSymbol(t *testing.T) {
	if got := PerpSymbol("btc", "usdt"); got != "BTC_USDT_PERP" {
		t.Errorf("PerpSymbol = %q, want BTC_USDT_PERP", got)
	}
	if !IsPerp("BTC_USDT_PERP") {
		t.Error("IsPerp(BTC_USDT_PERP) = false")
	}
	if IsPerp("BTC_USDT") {
		t.Error("IsPerp(BTC_USDT) = true")
	}
	if got := StripPerp("BTC_USDT_PERP"); got != "BTC_USDT" {
		t.Errorf("StripPerp = %q, want BTC_USDT", got)
	}
}

func TestFutSymbol(t *testing.T) {
	if got := FutSymbol("btc", "usdt", "250926"); got != "BTC_USDT_FUT_250926" {
		t.Errorf("FutSymbol = %q, want BTC_USDT_FUT_250926", got)
	}
}

func TestWsChannelString(t *testing.T) {
	cases := []struct {
		ch   WsChannel
		want string
	}{
		{Candles(Candle1m), "candles_1m"},
		{Trades(AggTrades), "trades_agg_trades"},
		{AccountBalAndPos(), "account_bal_and_pos"},
		{Other("funding-rate"), "other_funding-rate"},
	}
	for _, tc := range cases {
		if got := tc.ch.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestWsChannelComparable(t *testing.T) {
	if Candles(Candle1m) != Candles(Candle1m) {
		t.Error("identical candle channels compare unequal")
	}
	if Candles(Candle1m) == Candles(Candle5m) {
		t.Error("different intervals compare equal")
	}
}

func TestNewClientOrderID(t *testing.T) {
	a := NewClientOrderID()
	b := NewClientOrderID()
	if len(a) != 32 {
		t.Errorf("client order id length = %d, want 32", len(a))
	}
	if a == b {
		t.Error("consecutive client order ids collide")
	}
}

func TestEnvVarMissing(t *testing.T) {
	_, err := EnvVar("EXTREMA_TEST_SURELY_UNSET")
	var envErr *EnvVarError
	if !errors.As(err, &envErr) {
		t.Fatalf("EnvVar error = %v, want *EnvVarError", err)
	}
	if envErr.Name != "EXTREMA_TEST_SURELY_UNSET" {
		t.Errorf("EnvVarError.Name = %q", envErr.Name)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rickgao/tastystream/internal/api"
	"github.com/rickgao/tastystream/internal/config"
	"github.com/rickgao/tastystream/internal/streamer"
	"github.com/rickgao/tastystream/internal/symbol"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQuoteSymbolCmd(t *testing.T) {
	out, err := run(t, "quote-symbol", "IQ    200918P00017500", "./NGZ0 LNEZ0 201124C4.5")
	if err != nil {
		t.Fatalf("quote-symbol failed: %v", err)
	}
	want := ".IQ200918P17.5\n./LNEZ20C4.5:XNYM\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestQuoteSymbolCmd_JSON(t *testing.T) {
	out, err := run(t, "quote-symbol", "--json", "PENN  200821C00040500")
	if err != nil {
		t.Fatalf("quote-symbol failed: %v", err)
	}
	for _, want := range []string{
		`"underlying":"PENN"`,
		`"expiration":"2020-08-21"`,
		`"type":"Call"`,
		`"strike":"40.5"`,
		`"quote_symbol":".PENN200821C40.5"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestQuoteSymbolCmd_Invalid(t *testing.T) {
	_, err := run(t, "quote-symbol", "IQ    200918X00017500")
	var de *symbol.DecodeError
	if !errors.As(err, &de) {
		t.Errorf("error = %v, want *symbol.DecodeError", err)
	}
}

func TestDecimalCmd(t *testing.T) {
	out, err := run(t, "decimal", "12,345.4321", "0.3")
	if err != nil {
		t.Fatalf("decimal failed: %v", err)
	}
	want := "12345.4321\t123454321/10000\n0.3\t3/10\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	if _, err := run(t, "decimal", "1.23456"); err == nil {
		t.Error("expected error for five fractional digits")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "dev (") {
		t.Errorf("output = %q", out)
	}
}

func TestBuildSubscriptions(t *testing.T) {
	subs, err := buildSubscriptions([]config.SubscriptionConfig{
		{EventType: "Quote", Symbols: []string{"SPY"}, OptionSymbols: []string{"IQ    200918P00017500"}},
		{EventType: "Greeks", Fields: []string{"eventSymbol", "delta"}, OptionSymbols: []string{"SPXW  230120C04000000"}},
	})
	if err != nil {
		t.Fatalf("buildSubscriptions failed: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
	if got := strings.Join(subs[0].Symbols, ","); got != "SPY,.IQ200918P17.5" {
		t.Errorf("Quote symbols = %q", got)
	}
	if got := strings.Join(subs[1].Symbols, ","); got != ".SPX230120C4000" {
		t.Errorf("Greeks symbols = %q", got)
	}
	if len(subs[1].Fields) != 2 {
		t.Errorf("Greeks fields = %v", subs[1].Fields)
	}

	_, err = buildSubscriptions([]config.SubscriptionConfig{{EventType: "Quote", OptionSymbols: []string{"./QQZ0 QQZ0 201124C4.5"}}})
	var unresolved *symbol.UnresolvedExchangeError
	if !errors.As(err, &unresolved) {
		t.Errorf("error = %v, want *symbol.UnresolvedExchangeError", err)
	}
}

func TestEstablishSession_Token(t *testing.T) {
	c := api.NewClient("http://127.0.0.1:1", nil)
	if err := establishSession(context.Background(), c, config.APIConfig{Token: "abc", TokenEnv: "UNUSED_TASTY_ENV"}); err != nil {
		t.Fatalf("establishSession failed: %v", err)
	}
	if c.Session() == nil || c.Session().Token() != "abc" {
		t.Error("session not installed on client")
	}
}

func TestPrinter(t *testing.T) {
	data := map[string]*streamer.SubscriptionData{
		"Quote": {
			EventType: "Quote",
			Fields:    []string{"eventSymbol", "bidPrice"},
			Values: []streamer.Value{
				streamer.Value(`"SPY"`), streamer.Value(`470.25`),
				streamer.Value(`"AAPL"`), streamer.Value(`"NaN"`),
			},
		},
	}

	var buf bytes.Buffer
	p := newPrinter(&buf, "", slog.Default())
	if err := p.HandleData(data); err != nil {
		t.Fatalf("HandleData failed: %v", err)
	}
	want := `{"bidPrice":470.25,"eventSymbol":"SPY","event_type":"Quote"}` + "\n" +
		`{"bidPrice":null,"eventSymbol":"AAPL","event_type":"Quote"}` + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	p = newPrinter(&buf, "bidPrice", slog.Default())
	if err := p.HandleData(data); err != nil {
		t.Fatalf("HandleData failed: %v", err)
	}
	want = `{"event_type":"Quote","price":{"symbol":"SPY","price":"470.25"}}` + "\n"
	if buf.String() != want {
		t.Errorf("price output = %q, want %q", buf.String(), want)
	}
}

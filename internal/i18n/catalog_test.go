package i18n

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

var allKeys = []string{
	domain.MsgNoPermission, domain.MsgPriceNull, domain.MsgHandAir, domain.MsgDenyItem,
	domain.MsgWrongNumber, domain.MsgMinPrice, domain.MsgMaxPrice, domain.MsgMaximumSale,
	domain.MsgShoutTax, domain.MsgInvalidPolicy, domain.MsgStorageError, domain.MsgEconomyError,
	domain.MsgSell, domain.MsgBroadcast,
}

func TestEmbeddedCatalogsDefineEveryKey(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	for _, locale := range c.Locales() {
		for _, key := range allKeys {
			if _, ok := c.locales[locale].messages[key]; !ok {
				t.Errorf("%s: missing key %q", locale, key)
			}
		}
	}
	if got := c.Locales(); len(got) < 2 || got[0] != BaseLocale {
		t.Errorf("Locales = %v, want base locale first", got)
	}
}

func TestRender(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}

	got := c.Render(BaseLocale, domain.MsgMinPrice, map[string]string{"min": "100"})
	if !strings.HasPrefix(got, c.Header(BaseLocale)) {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "100") || strings.Contains(got, "%min%") {
		t.Errorf("placeholder not substituted: %q", got)
	}

	if got := c.Render(BaseLocale, "no-such-key", nil); got != c.Header(BaseLocale)+"no-such-key" {
		t.Errorf("unknown key rendered %q", got)
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		tmpl string
		vars map[string]string
		want string
	}{
		{"plain", nil, "plain"},
		{"%a% and %ab%", map[string]string{"a": "1", "ab": "2"}, "1 and 2"},
		{"%missing% stays", map[string]string{"a": "1"}, "%missing% stays"},
		{"%a%%a%", map[string]string{"a": "x"}, "xx"},
		{"no recursion %a%", map[string]string{"a": "%b%", "b": "B"}, "no recursion %b%"},
	}
	for _, tt := range tests {
		if got := Substitute(tt.tmpl, tt.vars); got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	tests := []struct {
		in   string
		want string
	}{
		{"", BaseLocale},
		{"en-US", BaseLocale},
		{"zh-CN", "zh-CN"},
		{"zh-CN,zh;q=0.9,en;q=0.8", "zh-CN"},
		{"fr-FR", BaseLocale},
		{"!!!", BaseLocale},
	}
	for _, tt := range tests {
		if got := c.Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en-US.yaml", "locale: en-US\nheader: \"[M] \"\nmessages:\n  sell: \"sold\"\n  hand-air: \"empty\"\n")
	writeCatalog(t, dir, "de-DE.yaml", "locale: de-DE\nheader: \"[Markt] \"\nmessages:\n  sell: \"verkauft\"\n")

	c, err := LoadFromFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("LoadFromFS: %v", err)
	}
	if got := c.Render("de-DE", "sell", nil); got != "[Markt] verkauft" {
		t.Errorf("de sell = %q", got)
	}
	if got := c.Render("de-DE", "hand-air", nil); got != "[Markt] empty" {
		t.Errorf("de hand-air = %q", got)
	}
}

func TestLoadFromFS_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"no files", map[string]string{}},
		{"missing base", map[string]string{"zh-CN.yaml": "locale: zh-CN\nmessages:\n  sell: x\n"}},
		{"name mismatch", map[string]string{"en-US.yaml": "locale: en-GB\nmessages:\n  sell: x\n"}},
		{"no messages", map[string]string{"en-US.yaml": "locale: en-US\n"}},
		{"bad yaml", map[string]string{"en-US.yaml": "locale: [\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.MkdirAll(filepath.Join(dir, "locales"), 0o755); err != nil {
				t.Fatal(err)
			}
			for name, body := range tt.files {
				writeCatalog(t, dir, name, body)
			}
			if _, err := LoadFromFS(os.DirFS(dir)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

type tellActor struct {
	domain.Actor
	told []string
}

func (a *tellActor) Tell(text string) { a.told = append(a.told, text) }

type sinkFunc func(ctx context.Context, text string) error

func (f sinkFunc) Broadcast(ctx context.Context, text string) error { return f(ctx, text) }

func TestMessenger(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	var got []string
	failing := sinkFunc(func(context.Context, string) error { return errors.New("hub closed") })
	recording := sinkFunc(func(_ context.Context, text string) error {
		got = append(got, text)
		return nil
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMessenger(c, "zh", logger, failing, recording)
	if m.Locale() != "zh-CN" {
		t.Fatalf("locale = %q", m.Locale())
	}

	actor := &tellActor{}
	m.Tell(context.Background(), actor, domain.MsgHandAir, nil)
	if len(actor.told) != 1 || !strings.HasPrefix(actor.told[0], c.Header("zh-CN")) {
		t.Errorf("told = %v", actor.told)
	}

	m.Broadcast(context.Background(), domain.MsgBroadcast, map[string]string{
		"player": "Steve", "item": "DIAMOND", "amount": "3", "market_name": "Global",
	})
	if len(got) != 1 || !strings.Contains(got[0], "Steve") || !strings.Contains(got[0], "DIAMOND") {
		t.Errorf("broadcast = %v", got)
	}
}

func writeCatalog(t *testing.T, dir, name, body string) {
	t.Helper()
	p := filepath.Join(dir, "locales", name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

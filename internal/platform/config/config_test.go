package config

import (
	"testing"
	"time"

	kit "trackergen/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	llm := root.Prefix("LLM_")
	if got := llm.key("MODEL"); got != "LLM_MODEL" {
		t.Fatalf("key() = %q, want %q", got, "LLM_MODEL")
	}
	nested := llm.Prefix("RETRY_")
	if got := nested.Key("MAX"); got != "LLM_RETRY_MAX" {
		t.Fatalf("nested Key() = %q, want %q", got, "LLM_RETRY_MAX")
	}
}

func TestLookupAndMissing(t *testing.T) {
	c := New().Prefix("IDENTITY_")
	t.Setenv("IDENTITY_URL", "  https://id.example.com ")
	t.Setenv("IDENTITY_SERVICE_KEY", "   ")

	if v, ok := c.Lookup("URL"); !ok || v != "https://id.example.com" {
		t.Fatalf("Lookup(URL) = %q,%v", v, ok)
	}
	if _, ok := c.Lookup("SERVICE_KEY"); ok {
		t.Fatalf("blank value should not be present")
	}

	miss := c.Missing("URL", "SERVICE_KEY", "NOPE")
	if len(miss) != 2 || miss[0] != "IDENTITY_SERVICE_KEY" || miss[1] != "IDENTITY_NOPE" {
		t.Fatalf("Missing = %v", miss)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_NAME", "  trackergen ")
	if got := c.MustString("NAME"); got != "trackergen" {
		t.Fatalf("MustString = %q, want %q", got, "trackergen")
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMustDuration(t *testing.T) {
	c := New().Prefix("D_")
	t.Setenv("D_TIMEOUT", " 250ms ")
	if got := c.MustDuration("TIMEOUT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v, want %v", got, 250*time.Millisecond)
	}
	t.Setenv("D_BAD", "nope")
	kit.MustPanic(t, func() { _ = c.MustDuration("BAD") })
}

func TestMayAccessors(t *testing.T) {
	c := New().Prefix("RL_")

	if got := c.MayInt("MAX", 20); got != 20 {
		t.Fatalf("MayInt default = %d", got)
	}
	t.Setenv("RL_MAX", "7")
	if got := c.MayInt("MAX", 20); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	t.Setenv("RL_MAX", "seven")
	if got := c.MayInt("MAX", 20); got != 20 {
		t.Fatalf("MayInt invalid = %d", got)
	}

	t.Setenv("RL_RPS", "1.5")
	if got := c.MayFloat64("RPS", 2); got != 1.5 {
		t.Fatalf("MayFloat64 = %v", got)
	}

	t.Setenv("RL_ON", "false")
	if c.MayBool("ON", true) {
		t.Fatalf("MayBool want false")
	}
	t.Setenv("RL_ON", "maybe")
	if !c.MayBool("ON", true) {
		t.Fatalf("MayBool invalid should fall back to default")
	}

	t.Setenv("RL_WINDOW", "90s")
	if got := c.MayDuration("WINDOW", time.Minute); got != 90*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	t.Setenv("RL_WINDOW", "soon")
	if got := c.MayDuration("WINDOW", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration invalid = %v", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("CORS_")
	def := []string{"http://localhost:3000"}

	if got := c.MayCSV("ALLOWED_ORIGINS", def); len(got) != 1 || got[0] != def[0] {
		t.Fatalf("MayCSV default = %v", got)
	}
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example ")
	got := c.MayCSV("ALLOWED_ORIGINS", def)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("MayCSV = %v", got)
	}
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	if got := c.MayCSV("ALLOWED_ORIGINS", def); len(got) != 1 {
		t.Fatalf("MayCSV only separators should fall back, got %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("RATELIMIT_")
	if got := c.MayEnum("BACKEND", "memory", "memory", "postgres"); got != "memory" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("RATELIMIT_BACKEND", "Postgres")
	if got := c.MayEnum("BACKEND", "memory", "memory", "postgres"); got != "postgres" {
		t.Fatalf("MayEnum = %q", got)
	}
	t.Setenv("RATELIMIT_BACKEND", "redis")
	if got := c.MayEnum("BACKEND", "memory", "memory", "postgres"); got != "memory" {
		t.Fatalf("MayEnum invalid = %q", got)
	}
}

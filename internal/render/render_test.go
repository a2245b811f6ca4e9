package render_test

import (
	"reflect"
	"testing"

	"github.com/dsvi/school-portal-backend/internal/render"
)

func TestRenderSubstitutesKnownPlaceholders(t *testing.T) {
	vars := map[string]string{
		"school_name": "Lincoln",
		"expiry_date": "2025-01-01",
	}

	subject := render.Render("Hi {{school_name}}", vars)
	if subject != "Hi Lincoln" {
		t.Errorf("expected 'Hi Lincoln', got %q", subject)
	}

	body := render.Render("Expires {{expiry_date}}", vars)
	if body != "Expires 2025-01-01" {
		t.Errorf("expected 'Expires 2025-01-01', got %q", body)
	}
}

func TestRenderLeavesUnknownPlaceholdersVerbatim(t *testing.T) {
	out := render.Render("Hi {{name}}", map[string]string{})
	if out != "Hi {{name}}" {
		t.Errorf("expected unresolved token kept literal, got %q", out)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	vars := map[string]string{"a": "1"}
	pattern := "{{a}} and {{b}}"

	first := render.Render(pattern, vars)
	second := render.Render(pattern, vars)
	if first != second {
		t.Errorf("expected identical output, got %q and %q", first, second)
	}
	if first != "1 and {{b}}" {
		t.Errorf("unexpected output %q", first)
	}
}

func TestRenderDoesNotExpandRecursively(t *testing.T) {
	out := render.Render("{{a}}", map[string]string{"a": "{{b}}", "b": "x"})
	// Map iteration order is not fixed, but a single replacement pass over a
	// one-token pattern must never resolve the injected token into "x" AND
	// the original token at once.
	if out != "{{b}}" && out != "x" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestPlaceholders(t *testing.T) {
	names := render.Placeholders("Hi {{school_name}}, {{expiry_date}} and {{school_name}} again")
	want := []string{"school_name", "expiry_date"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}

	if got := render.Placeholders("no tokens here"); len(got) != 0 {
		t.Errorf("expected no placeholders, got %v", got)
	}
}

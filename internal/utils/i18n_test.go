package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
	if got := T("en", "entry not found"); got != "entry not found" {
		t.Fatalf("untranslated key should echo, got %s", got)
	}
}

func TestT_Portuguese(t *testing.T) {
	if got := T("pt", "invalid credentials"); got != "Email ou senha inválidos" {
		t.Fatalf("unexpected pt message: %s", got)
	}
	if got := T("pt", "legend.incident_resolved"); got != "Incidente resolvido" {
		t.Fatalf("unexpected pt legend: %s", got)
	}
}

func TestT_EveryPortugueseLegendHasEnglish(t *testing.T) {
	for key := range translations["pt"] {
		if len(key) > 7 && key[:7] == "legend." {
			if _, ok := translations["en"][key]; !ok {
				t.Fatalf("legend key %s missing in en", key)
			}
		}
	}
}

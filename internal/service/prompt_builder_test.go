package service

import (
	"strings"
	"testing"
)

func TestPromptBuilderBuild(t *testing.T) {
	var b PromptBuilder

	t.Run("minimal prompt", func(t *testing.T) {
		got := b.Build(PromptInput{})
		if !strings.HasPrefix(got, "You are a helpful AI assistant") {
			t.Fatalf("unexpected prefix: %q", got)
		}
		for _, absent := range []string{"webSearch", "User's name", "About the origin"} {
			if strings.Contains(got, absent) {
				t.Fatalf("did not expect %q in prompt:\n%s", absent, got)
			}
		}
	})

	t.Run("search directive and profile", func(t *testing.T) {
		got := b.Build(PromptInput{
			SearchEnabled: true,
			User:          UserHints{Name: "Asha", Preferences: "short answers"},
		})
		if !strings.Contains(got, "You MUST use this tool") {
			t.Fatalf("expected search directive:\n%s", got)
		}
		if !strings.Contains(got, "User's name is Asha") || !strings.Contains(got, "User's preferences are short answers") {
			t.Fatalf("expected profile lines:\n%s", got)
		}
		if strings.Contains(got, "occupation") {
			t.Fatalf("did not expect empty occupation line:\n%s", got)
		}
	})

	t.Run("geo hints keep lat and lon in place", func(t *testing.T) {
		got := b.Build(PromptInput{Geo: GeoHints{Latitude: "12.97", Longitude: "77.59", City: "Bengaluru", Country: "IN"}})
		if !strings.Contains(got, "- lat: 12.97\n- lon: 77.59\n- city: Bengaluru\n- country: IN") {
			t.Fatalf("unexpected geo block:\n%s", got)
		}
	})
}

package service

import (
	"fmt"
	"strings"
)

// GeoHints describe el origen de la petición según los headers del edge.
type GeoHints struct {
	Latitude  string
	Longitude string
	City      string
	Country   string
}

func (g GeoHints) empty() bool {
	return g.Latitude == "" && g.Longitude == "" && g.City == "" && g.Country == ""
}

// UserHints son los campos del perfil que personalizan la respuesta.
type UserHints struct {
	Name        string `json:"name,omitempty"`
	Occupation  string `json:"occupation,omitempty"`
	Preferences string `json:"userPreferences,omitempty"`
}

type PromptInput struct {
	SearchEnabled bool
	User          UserHints
	Geo           GeoHints
}

// PromptBuilder arma el system prompt del asistente.
type PromptBuilder struct{}

// Build devuelve el prompt completo. Las líneas opcionales solo aparecen si
// el dato existe.
func (PromptBuilder) Build(in PromptInput) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant that provides clear, concise, and well-formatted responses in markdown.\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- End with a brief, contextual suggestion for next steps\n")
	sb.WriteString("- Include one relevant follow-up question\n")
	if in.SearchEnabled {
		sb.WriteString("- Use the webSearch tool for any information that requires current data. ")
		sb.WriteString("You MUST use this tool when answering questions about recent events, facts, or information that might not be in your training data.\n")
	}

	user := []string{}
	if v := strings.TrimSpace(in.User.Name); v != "" {
		user = append(user, fmt.Sprintf("User's name is %s", v))
	}
	if v := strings.TrimSpace(in.User.Occupation); v != "" {
		user = append(user, fmt.Sprintf("User's occupation is %s", v))
	}
	if v := strings.TrimSpace(in.User.Preferences); v != "" {
		user = append(user, fmt.Sprintf("User's preferences are %s", v))
	}
	if len(user) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(user, "\n"))
		sb.WriteString("\n")
	}

	sb.WriteString("\nExample suggestion format:\n")
	sb.WriteString("\"Would you like to explore [related topic] or learn more about [specific aspect]?\"\n")

	if !in.Geo.empty() {
		sb.WriteString("\nAbout the origin of user's request:\n")
		fmt.Fprintf(&sb, "- lat: %s\n", in.Geo.Latitude)
		fmt.Fprintf(&sb, "- lon: %s\n", in.Geo.Longitude)
		fmt.Fprintf(&sb, "- city: %s\n", in.Geo.City)
		fmt.Fprintf(&sb, "- country: %s\n", in.Geo.Country)
	}
	return sb.String()
}

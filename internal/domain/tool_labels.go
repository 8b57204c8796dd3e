package domain

// ToolLabel devuelve el texto de estado que se muestra para una invocación.
func ToolLabel(name string, state ToolState) string {
	labels, ok := toolLabels[name]
	if !ok {
		if state == ToolStateResult {
			return "Used " + name
		}
		return "Using " + name + "..."
	}
	if state == ToolStateResult {
		return labels.done
	}
	return labels.loading
}

var toolLabels = map[string]struct{ loading, done string }{
	"webSearch":  {loading: "Searching the web...", done: "Searched the web"},
	"getWeather": {loading: "Getting weather...", done: "Got weather"},
}

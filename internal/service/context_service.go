package service

import (
	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
)

// HistoryWindow es la cantidad de mensajes recientes que se envían al modelo.
const HistoryWindow = 10

// RecentHistory convierte los últimos limit mensajes con contenido al formato
// del proveedor, en orden de conversación. Los mensajes sin texto ni adjuntos
// no ocupan lugar en la ventana.
func RecentHistory(msgs []domain.Message, limit int) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.HasContent() {
			continue
		}
		out = append(out, llm.Message{
			Role:        m.Role,
			Content:     m.Content,
			Attachments: m.Attachments,
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// threadHistory extrae los Message base de los mensajes persistidos.
func threadHistory(msgs []domain.ThreadMessage) []domain.Message {
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Message)
	}
	return out
}

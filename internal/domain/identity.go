package domain

// Identity es la sesión autenticada de una petición. Se pasa explícitamente
// a cada servicio que necesita conocer al dueño.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	AvatarURL   string
	Provider    string
	Anonymous   bool
}

// Federated indica si la identidad viene de un proveedor real y no de una sesión anónima.
func (i Identity) Federated() bool {
	return !i.Anonymous && i.Provider != "" && i.Provider != ProviderAnonymous
}

const ProviderAnonymous = "anonymous"

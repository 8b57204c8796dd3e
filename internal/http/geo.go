package http

import (
	"net/http"
	"net/url"

	"saarthi-chat/internal/service"
)

// geoFromRequest lee la ubicación que agrega el edge. Vercel manda la
// ciudad url-encoded; detrás de Cloudflare solo hay país.
func geoFromRequest(r *http.Request) service.GeoHints {
	h := r.Header
	geo := service.GeoHints{
		Latitude:  h.Get("X-Vercel-IP-Latitude"),
		Longitude: h.Get("X-Vercel-IP-Longitude"),
		Country:   h.Get("X-Vercel-IP-Country"),
	}
	if city := h.Get("X-Vercel-IP-City"); city != "" {
		if decoded, err := url.QueryUnescape(city); err == nil {
			city = decoded
		}
		geo.City = city
	}
	if geo.Country == "" {
		geo.Country = h.Get("CF-IPCountry")
	}
	return geo
}

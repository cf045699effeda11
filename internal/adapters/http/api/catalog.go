package api

import (
	"net/http"

	"github.com/okian/huehunt/internal/domain/challenge"
	"github.com/okian/huehunt/internal/domain/types"
)

// CatalogHandler serves the tier list and localized UI strings.
type CatalogHandler struct {
	loc Localizer
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(loc Localizer) *CatalogHandler {
	return &CatalogHandler{loc: loc}
}

type stringsResponse struct {
	Lang    string            `json:"lang"`
	Strings map[string]string `json:"strings"`
}

// HandleTiers handles GET /api/tiers.
func (h *CatalogHandler) HandleTiers(w http.ResponseWriter, r *http.Request) {
	tag := h.loc.Match(requestLanguage(r)...)
	tiers := challenge.Tiers()
	out := make([]types.Tier, len(tiers))
	for i, t := range tiers {
		out[i] = types.Tier{
			Name:      t.String(),
			Label:     h.loc.Text(tag, "tier."+t.String()),
			BaseDelta: t.BaseDelta(),
			Decay:     t.Decay(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleStrings handles GET /api/strings?lang=.
func (h *CatalogHandler) HandleStrings(w http.ResponseWriter, r *http.Request) {
	tag := h.loc.Match(requestLanguage(r)...)
	writeJSON(w, http.StatusOK, stringsResponse{Lang: tag.String(), Strings: h.loc.Bundle(tag)})
}

// requestLanguage lists the caller's preferences, ?lang= first.
func requestLanguage(r *http.Request) []string {
	var prefs []string
	if lang := r.URL.Query().Get("lang"); lang != "" {
		prefs = append(prefs, lang)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		prefs = append(prefs, accept)
	}
	return prefs
}

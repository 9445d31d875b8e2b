// README: Expert registry; first-match routing with conversational fallback.
package agent

// Router maps a classified intent to exactly one expert by linear scan over
// a fixed ordered list. When nothing matches, the designated fallback
// handles the turn under a forced unknown intent.
type Router struct {
	experts  []Expert
	fallback Expert
}

func NewRouter(fallback Expert, experts ...Expert) *Router {
	return &Router{experts: experts, fallback: fallback}
}

// Route returns the first eligible expert and the intent it should handle.
// The intent is rewritten to unknown only on fallback.
func (r *Router) Route(intent Intent) (Expert, Intent) {
	for _, e := range r.experts {
		if e.CanHandle(intent) {
			return e, intent
		}
	}
	return r.fallback, IntentUnknown
}

// Experts exposes the registered handlers in routing order (fallback last).
func (r *Router) Experts() []Expert {
	return append(append([]Expert(nil), r.experts...), r.fallback)
}

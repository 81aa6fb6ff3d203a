package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

const (
	visitorSessionName = "portfolio_visitor"
	visitorIDValue     = "visitor_id"
	visitorMaxAge      = 365 * 24 * 60 * 60
)

// visitorTracker gives every browser an anonymous, signed visitor ID cookie.
type visitorTracker struct {
	store *sessions.CookieStore
}

func newVisitorTracker(secret string, secure bool) visitorTracker {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   visitorMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return visitorTracker{store: store}
}

// middleware stores the visitor ID in the request context, issuing one on
// first contact.
func (v visitorTracker) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a cookie signed with an old secret yields a fresh session and an error
		session, err := v.store.Get(r, visitorSessionName)
		if err != nil {
			log.Debug().Err(err).Msg("discarding unreadable visitor cookie")
		}

		visitorID, _ := session.Values[visitorIDValue].(string)
		if visitorID == "" {
			visitorID = uuid.NewString()
			session.Values[visitorIDValue] = visitorID
			if err := session.Save(r, w); err != nil {
				log.Warn().Err(err).Msg("failed to save visitor cookie")
			}
		}

		next.ServeHTTP(w, r.WithContext(ctxWithVisitorID(r.Context(), visitorID)))
	})
}

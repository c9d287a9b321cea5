package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/go-doc-keeper/internal/logger"
	"github.com/MKhiriev/go-doc-keeper/internal/utils"
)

// clientQueryParam carries the client token on every request of the remote
// gateway.
const clientQueryParam = "client"

// clientToken resolves the client token of a request, taken from the client
// query parameter or a bearer Authorization header, and stores the client id
// in the request context under [utils.ClientIDCtxKey].
//
// Requests without a token pass through anonymously: reads are open and the
// service rejects anonymous writes. A token that is present but invalid or
// expired is answered with 403 Forbidden.
func (h *Handler) clientToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		tokenString := r.URL.Query().Get(clientQueryParam)
		if tokenString == "" {
			if header := r.Header.Get("Authorization"); header != "" {
				var err error
				if tokenString, err = utils.ParseBearerToken(header); err != nil {
					log.Err(err).Msg("malformed authorization header")
					writeError(w, r, ErrInvalidToken)
					return
				}
			}
		}
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		token, err := h.services.TokenService.ParseToken(ctx, tokenString)
		if err != nil {
			log.Err(err).Msg("rejected client token")
			writeError(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, utils.ClientIDCtxKey, token.ClientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

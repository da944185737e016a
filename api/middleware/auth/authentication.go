package auth

import (
	"context"
	"net/http"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/rs/zerolog/log"
	"github.com/shapeblock/shapeblock-api/api/utils/token"
	"github.com/urfave/negroni/v3"
)

type ctxUserKey struct{}

// accessTokenParam carries the token of clients that cannot set headers,
// such as browser websockets and event sources.
const accessTokenParam = "access_token"

func NewAuthenticationMiddleware(validator token.ValidatorInterface) negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		ctx := r.Context()
		logger := log.Ctx(ctx)

		bearer, err := bearerToken(r)
		if err != nil {
			logger.Warn().Err(err).Msg("authentication error")
			if err = radixhttp.ErrorResponse(w, r, err); err != nil {
				logger.Err(err).Msg("failed to write response")
			}
			return
		}
		if bearer == "" {
			next(w, r)
			return
		}

		principal, err := validator.ValidateToken(ctx, bearer)
		if err != nil {
			logger.Warn().Err(err).Msg("authentication error")
			if err = radixhttp.ErrorResponse(w, r, err); err != nil {
				logger.Err(err).Msg("failed to write response")
			}
			return
		}

		r = r.WithContext(WithPrincipal(ctx, principal))
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, error) {
	if r.Header.Get("authorization") != "" {
		return radixhttp.GetBearerTokenFromHeader(r)
	}
	return r.URL.Query().Get(accessTokenParam), nil
}

func CtxTokenPrincipal(ctx context.Context) token.TokenPrincipal {
	val, ok := ctx.Value(ctxUserKey{}).(token.TokenPrincipal)

	if !ok {
		return token.NewAnonymousPrincipal()
	}

	return val
}

// WithPrincipal returns a copy of ctx carrying principal.
func WithPrincipal(ctx context.Context, principal token.TokenPrincipal) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, principal)
}

func NewZerologAuthenticationDetailsMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		ctx := r.Context()
		user := CtxTokenPrincipal(ctx)

		logContext := log.Ctx(ctx).With()
		if user.IsAuthenticated() {
			logContext = logContext.Str("user_id", user.Id())
		} else {
			logContext = logContext.Bool("anonymous", true)
		}
		ctx = logContext.Logger().WithContext(ctx)

		r = r.WithContext(ctx)
		next(w, r)
	}
}

func NewAuthorizeRequiredMiddleware() negroni.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		logger := log.Ctx(r.Context())
		user := CtxTokenPrincipal(r.Context())

		if !user.IsAuthenticated() {
			logger.Warn().Msg("authorization error")
			if err := radixhttp.ErrorResponse(w, r, radixhttp.ForbiddenError("Authorization is required")); err != nil {
				logger.Err(err).Msg("failed to write response")
			}
			return
		}

		next(w, r)
	}
}

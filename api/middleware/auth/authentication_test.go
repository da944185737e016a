package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	radixhttp "github.com/equinor/radix-common/net/http"
	"github.com/golang/mock/gomock"
	"github.com/shapeblock/shapeblock-api/api/middleware/auth"
	"github.com/shapeblock/shapeblock-api/api/utils/token"
	"github.com/shapeblock/shapeblock-api/api/utils/token/mock"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/negroni/v3"
)

type testPrincipal struct{}

func (testPrincipal) IsAuthenticated() bool { return true }
func (testPrincipal) Token() string         { return "token" }
func (testPrincipal) Id() string            { return "user-1" }
func (testPrincipal) Name() string          { return "user" }

func newHandler(validator token.ValidatorInterface, requireAuth bool) (http.Handler, *string) {
	var seen string
	n := negroni.New(auth.NewAuthenticationMiddleware(validator))
	if requireAuth {
		n.Use(auth.NewAuthorizeRequiredMiddleware())
	}
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.CtxTokenPrincipal(r.Context()).Id()
	})
	return n, &seen
}

func TestAuthentication_HeaderToken(t *testing.T) {
	validator := mock.NewMockValidatorInterface(gomock.NewController(t))
	validator.EXPECT().ValidateToken(gomock.Any(), "abc").Return(testPrincipal{}, nil).Times(1)
	handler, seen := newHandler(validator, true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", *seen)
}

func TestAuthentication_QueryToken(t *testing.T) {
	validator := mock.NewMockValidatorInterface(gomock.NewController(t))
	validator.EXPECT().ValidateToken(gomock.Any(), "abc").Return(testPrincipal{}, nil).Times(1)
	handler, seen := newHandler(validator, true)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?access_token=abc", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-1", *seen)
}

func TestAuthentication_AnonymousIsForbiddenWhenRequired(t *testing.T) {
	validator := mock.NewMockValidatorInterface(gomock.NewController(t))
	validator.EXPECT().ValidateToken(gomock.Any(), gomock.Any()).Times(0)

	handler, _ := newHandler(validator, true)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	handler, seen := newHandler(validator, false)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", *seen)
}

func TestAuthentication_InvalidTokenIsForbidden(t *testing.T) {
	validator := mock.NewMockValidatorInterface(gomock.NewController(t))
	validator.EXPECT().ValidateToken(gomock.Any(), "bad").Return(nil, radixhttp.ForbiddenError("invalid token")).Times(1)
	handler, seen := newHandler(validator, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, *seen)
}

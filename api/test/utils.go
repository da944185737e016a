package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/shapeblock/shapeblock-api/api/router"
	"github.com/shapeblock/shapeblock-api/api/utils/token"
	"github.com/shapeblock/shapeblock-api/models"
)

// Utils Instance variables
type Utils struct {
	validator   token.ValidatorInterface
	controllers []models.Controller
}

// NewTestUtils Constructor
func NewTestUtils(validator token.ValidatorInterface, controllers ...models.Controller) Utils {
	return Utils{
		validator:   validator,
		controllers: controllers,
	}
}

// Handler returns the api handler serving the controllers
func (tu *Utils) Handler() http.Handler {
	return router.NewAPIHandler(tu.validator, nil, tu.controllers...)
}

// ExecuteRequest Helper method to issue a http request
func (tu *Utils) ExecuteRequest(method, endpoint string) <-chan *httptest.ResponseRecorder {
	return tu.ExecuteRequestWithParameters(method, endpoint, nil)
}

// ExecuteRequestWithParameters Helper method to issue a http request with payload
func (tu *Utils) ExecuteRequestWithParameters(method, endpoint string, parameters interface{}) <-chan *httptest.ResponseRecorder {
	return tu.execute(method, endpoint, encode(parameters), map[string]string{"Authorization": "bearer xyz"})
}

// ExecuteUnAuthorizedRequest Helper method to issue a http request without a token
func (tu *Utils) ExecuteUnAuthorizedRequest(method, endpoint string) <-chan *httptest.ResponseRecorder {
	return tu.ExecuteUnAuthorizedRequestWithParameters(method, endpoint, nil)
}

// ExecuteUnAuthorizedRequestWithParameters Helper method to issue a http request with payload and without a token
func (tu *Utils) ExecuteUnAuthorizedRequestWithParameters(method, endpoint string, parameters interface{}) <-chan *httptest.ResponseRecorder {
	return tu.execute(method, endpoint, encode(parameters), nil)
}

// ExecuteRawRequest Helper method to issue a http request with a raw body and the given headers
func (tu *Utils) ExecuteRawRequest(method, endpoint string, body []byte, headers map[string]string) <-chan *httptest.ResponseRecorder {
	return tu.execute(method, endpoint, body, headers)
}

func (tu *Utils) execute(method, endpoint string, body []byte, headers map[string]string) <-chan *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, _ := http.NewRequest(method, endpoint, reader)
	req.Header.Add("Accept", "application/json")
	for key, value := range headers {
		req.Header.Add(key, value)
	}

	response := make(chan *httptest.ResponseRecorder)
	go func() {
		rr := httptest.NewRecorder()
		tu.Handler().ServeHTTP(rr, req)
		response <- rr
		close(response)
	}()

	return response
}

func encode(parameters interface{}) []byte {
	if parameters == nil {
		return nil
	}
	payload, _ := json.Marshal(parameters)
	return payload
}

// GetResponseBody Gets response payload as type
func GetResponseBody(response *httptest.ResponseRecorder, target interface{}) error {
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// NewTestPrincipal is an authenticated principal with the given id
func NewTestPrincipal(id string) token.TokenPrincipal {
	return &testPrincipal{id: id}
}

type testPrincipal struct {
	id string
}

func (p *testPrincipal) IsAuthenticated() bool { return true }
func (p *testPrincipal) Token() string         { return "xyz" }
func (p *testPrincipal) Id() string            { return p.id }
func (p *testPrincipal) Name() string          { return p.id }

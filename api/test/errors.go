package test

import (
	"net/http/httptest"

	radixhttp "github.com/equinor/radix-common/net/http"
)

// GetErrorResponse Gets error repsonse
func GetErrorResponse(response *httptest.ResponseRecorder) (*radixhttp.Error, error) {
	errorResponse := &radixhttp.Error{}
	if err := GetResponseBody(response, errorResponse); err != nil {
		return nil, err
	}
	return errorResponse, nil
}

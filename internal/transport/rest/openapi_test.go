package rest

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"
)

// The router serves api/openapi.yml verbatim, so a document that does not
// validate would ship broken docs to every client.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../api/openapi.yml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
}

func TestOpenAPIDocumentCoversRoutes(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../api/openapi.yml")
	require.NoError(t, err)

	for _, path := range []string{
		"/auth/login",
		"/webhooks/payment",
		"/payments/intent",
		"/payments/refund",
		"/bookings",
		"/bookings/{id}",
		"/bookings/{id}/cancel",
		"/audit",
	} {
		require.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}
}

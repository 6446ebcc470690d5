package pipeline

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodySizeLimit(t *testing.T) {
	route := Route{
		Method:  http.MethodPost,
		Path:    "/limited",
		Request: []RequestMiddleware{BodySizeLimit(8)},
		Handler: func(rc *RequestContext) error {
			size, err := MiddlewareResult[int](rc, 0)
			if err != nil {
				return err
			}
			return rc.Ctx().JSON(map[string]int{"size": size})
		},
	}
	app := mount(t, NewExecutor(nil, nil, nil), route)

	status, body := call(t, app, http.MethodPost, "/limited", "12345678", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"size":8}`, body)

	status, body = call(t, app, http.MethodPost, "/limited", strings.Repeat("x", 9), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Contains(t, body, "PAYLOAD_TOO_LARGE")
}

func TestRoundtrip(t *testing.T) {
	v, err := Roundtrip("hello").Run(nil)
	require.NoError(t, err)
	assert.Equal(t, "hello from roundtrip middleware", v)
}

package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/ids"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: io.Discard})
}

func TestRequestIDEchoesCallerValue(t *testing.T) {
	var seen string
	h := RequestID(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ids.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "caja-1-0042")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, "caja-1-0042", seen)
	require.Equal(t, "caja-1-0042", w.Header().Get(requestIDHeader))
}

func TestRequestIDReplacesUnusableValues(t *testing.T) {
	h := RequestID(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	for _, bad := range []string{"", "has space", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, bad)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		got := w.Header().Get(requestIDHeader)
		require.NotEmpty(t, got)
		require.NotEqual(t, bad, got)
	}
}

func TestRecovererWritesInternalEnvelope(t *testing.T) {
	h := RequestID(nil)(Recoverer(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("cart exploded")
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/s-1/items", nil)
	req.Header.Set(requestIDHeader, "req-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, string(pkgerrors.CodeInternal), body.Error.Code)
	require.Equal(t, "req-7", body.Error.RequestID)
	require.NotContains(t, body.Error.Message, "cart exploded")
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestTerminalMiddlewareTagsContext(t *testing.T) {
	var seen string
	h := Terminal("caja-3")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TerminalIDFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "caja-3", seen)
}

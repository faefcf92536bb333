package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		Convey("Then the response passes through unchanged", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/teapot", http.NoBody))
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(w.Body.String(), ShouldEqual, "short and stout")
		})
	})

	Convey("Given error status codes", t, func() {
		So(getErrorType(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
		So(getErrorType(http.StatusMethodNotAllowed), ShouldEqual, "method_not_allowed")
		So(getErrorType(http.StatusUnsupportedMediaType), ShouldEqual, "unsupported_media")
		So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
		So(getErrorSeverity(http.StatusBadGateway), ShouldEqual, "high")
		So(getErrorSeverity(http.StatusBadRequest), ShouldEqual, "medium")
		So(getErrorSeverity(http.StatusOK), ShouldEqual, "low")
	})
}

package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/ergowatch/internal/adapters/http/api"
	"github.com/okian/ergowatch/internal/adapters/repository"
	"github.com/okian/ergowatch/internal/domain/types"
)

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type failingStore struct{}

func (failingStore) Latest(context.Context) (types.PostureReport, bool) {
	return types.PostureReport{}, false
}

func (failingStore) Replace(context.Context, types.PostureReport) error {
	return repository.ErrClosed
}

const validUpdate = `{
	"head_angle": 3.2, "head_status": "Straight", "head_code": 0,
	"shoulders_angle": 7.5, "shoulders_status": "Slight", "shoulders_code": 1,
	"arms_angle": 95.0, "arms_status": "Optimal", "arms_code": 0,
	"back_angle": 12.0, "back_status": "Slight", "back_code": 1,
	"category": 2, "recommendation": "Acceptable posture"
}`

func newMux(deps api.Dependencies, stats map[string]interface{}, now time.Time) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: stats}, api.WithClock(func() time.Time { return now }))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(repository.NewCell(), map[string]interface{}{"cycles": 3}, time.Now())

		Convey("Then the health endpoint serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint serves provider stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"cycles":3`)
		})

		Convey("Then stats rejects other methods", func() {
			w := do(mux, http.MethodPost, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestPostureEndpoint(t *testing.T) {
	received := time.Date(2025, 3, 1, 9, 30, 15, 0, time.UTC)

	Convey("Given a posture endpoint backed by an empty cell", t, func() {
		cell := repository.NewCell()
		mux := newMux(cell, nil, received)

		Convey("When the latest report is read before any update", func() {
			w := do(mux, http.MethodGet, "/api/posture", "")

			Convey("Then the zero report is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var r types.PostureReport
				So(jsoniter.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
				So(r, ShouldResemble, types.PostureReport{})
				So(w.Body.String(), ShouldContainSubstring, `"head":{"angle":0,"status":"","code":0}`)
			})
		})

		Convey("When a valid update is posted", func() {
			w := do(mux, http.MethodPost, "/api/posture", validUpdate)

			Convey("Then it is acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"success"`)
			})

			Convey("Then GET returns the nested, stamped report", func() {
				w := do(mux, http.MethodGet, "/api/posture", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var r types.PostureReport
				So(jsoniter.Unmarshal(w.Body.Bytes(), &r), ShouldBeNil)
				So(r.Shoulders, ShouldResemble, types.SegmentReport{Angle: 7.5, Status: "Slight", Code: 1})
				So(r.Back.Code, ShouldEqual, 1)
				So(r.Category, ShouldEqual, 2)
				So(r.Recommendation, ShouldEqual, "Acceptable posture")
				So(r.Timestamp, ShouldEqual, "2025-03-01 09:30:15")
			})
		})

		Convey("When the category does not follow from the codes", func() {
			body := strings.Replace(validUpdate, `"category": 2`, `"category": 1`, 1)
			w := do(mux, http.MethodPost, "/api/posture", body)

			Convey("Then the update is rejected and nothing is stored", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `"code":"inconsistent"`)
				_, ok := cell.Latest(context.Background())
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the recommendation does not match the category", func() {
			body := strings.Replace(validUpdate, "Acceptable posture", "Excellent posture", 1)
			w := do(mux, http.MethodPost, "/api/posture", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "recommendation")
		})

		Convey("When a code is out of range", func() {
			body := strings.Replace(validUpdate, `"head_code": 0`, `"head_code": 3`, 1)
			w := do(mux, http.MethodPost, "/api/posture", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
		})

		Convey("When a status label is missing", func() {
			body := strings.Replace(validUpdate, `"arms_status": "Optimal"`, `"arms_status": ""`, 1)
			w := do(mux, http.MethodPost, "/api/posture", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/api/posture", "{oops")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the content type is wrong", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/posture", strings.NewReader(validUpdate))
			req.Header.Set("Content-Type", "text/plain")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusUnsupportedMediaType)
		})

		Convey("When an unsupported method is used", func() {
			w := do(mux, http.MethodDelete, "/api/posture", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")
			So(w.Body.String(), ShouldContainSubstring, `"message":"api.posture: method not allowed"`)
		})
	})

	Convey("Given a store that rejects writes", t, func() {
		mux := newMux(failingStore{}, nil, received)

		Convey("Then a valid update yields service unavailable", func() {
			w := do(mux, http.MethodPost, "/api/posture", validUpdate)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "store_unavailable")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind formats the operation", func() {
			err := api.NewKind("api.op", api.ErrInconsistent)
			So(err.Error(), ShouldEqual, "api.op: inconsistent posture update")
			So(errors.Is(err, api.ErrInconsistent), ShouldBeTrue)
		})
	})
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	app "github.com/okian/scribe/internal/app"
	"github.com/okian/scribe/internal/config"
	"github.com/okian/scribe/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given a started service built from config", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.DBPath = filepath.Join(t.TempDir(), "scribe.db")

		svc := app.New(app.OptionsFromConfig(cfg)...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop(ctx)

		srv := newHTTPServer(ctx, cfg.Addr, svc)

		convey.Convey("Then the server carries its timeouts", func() {
			convey.So(srv.Addr, convey.ShouldEqual, ":9080")
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})

		convey.Convey("Then the health and stats routes answer", func() {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			rec = httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"started":true`)
		})

		convey.Convey("Then a webhook delivery is accepted", func() {
			body := `{"id":"d-1","resource":"meetingTranscripts","data":{"meetingId":"m-1","transcript":"hello"}}`
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/transcripts", strings.NewReader(body)))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusAccepted)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the runtime", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}

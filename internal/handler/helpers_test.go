package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/mux"

	"github.com/jeffreyshi17/coffree/internal/queue"
	"github.com/jeffreyshi17/coffree/internal/repository"
	"github.com/jeffreyshi17/coffree/internal/service"
	"github.com/jeffreyshi17/coffree/internal/voucher"
)

// capturePublisher stands in for the queue publisher
type capturePublisher struct {
	Jobs []*queue.LinkJob
	Err  error
}

func (p *capturePublisher) PublishLink(job *queue.LinkJob) error {
	p.Jobs = append(p.Jobs, job)
	return p.Err
}

// testApp wires real services over a sqlmock database and a stub
// voucher server, mirroring the wiring in cmd/api.
type testApp struct {
	Router    *mux.Router
	Mock      sqlmock.Sqlmock
	Voucher   *httptest.Server
	Publisher *capturePublisher

	// VoucherHandler is swapped per test to script the voucher service
	VoucherHandler http.HandlerFunc
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Concurrent fan-out makes statement order nondeterministic
	mock.MatchExpectationsInOrder(false)

	app := &testApp{Mock: mock}
	app.VoucherHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	app.Voucher = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.VoucherHandler(w, r)
	}))
	t.Cleanup(app.Voucher.Close)

	campaignRepo := repository.NewCampaignRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	logRepo := repository.NewDeliveryLogRepository(db)
	searchLogRepo := repository.NewSearchLogRepository(db)

	voucherClient := voucher.NewClient(app.Voucher.URL, 2*time.Second, 2, time.Millisecond)
	validator := service.NewCampaignValidator(voucherClient, "0000000000")

	campaignService := service.NewCampaignService(campaignRepo, logRepo)
	distributionService := service.NewDistributionService(campaignRepo, subscriberRepo, logRepo, voucherClient, validator, nil)
	subscriberService := service.NewSubscriberService(subscriberRepo, campaignRepo, logRepo, voucherClient)
	cleanupService := service.NewCleanupService(campaignRepo, logRepo)
	gapService := service.NewGapService(campaignRepo, subscriberRepo, logRepo, voucherClient)
	searchLogService := service.NewSearchLogService(searchLogRepo)
	app.Publisher = &capturePublisher{}
	discoveryService := service.NewDiscoveryService(app.Publisher)

	submitHandler := NewSubmitHandler(distributionService)
	campaignHandler := NewCampaignHandler(campaignService, cleanupService, gapService)
	phoneHandler := NewPhoneHandler(subscriberService)
	logHandler := NewLogHandler(logRepo, searchLogService)
	discoveryHandler := NewDiscoveryHandler(discoveryService)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/send-coffee", submitHandler.Submit).Methods(http.MethodPost)
	api.HandleFunc("/check-campaign", campaignHandler.CheckSubmitted).Methods(http.MethodGet)
	api.HandleFunc("/campaigns", campaignHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/campaigns", campaignHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/campaigns/count", campaignHandler.Count).Methods(http.MethodGet)
	api.HandleFunc("/campaigns/cleanup", campaignHandler.PreviewCleanup).Methods(http.MethodGet)
	api.HandleFunc("/campaigns/cleanup", campaignHandler.ApplyCleanup).Methods(http.MethodPost)
	api.HandleFunc("/campaigns/fill-gaps", campaignHandler.FindGaps).Methods(http.MethodGet)
	api.HandleFunc("/campaigns/fill-gaps", campaignHandler.FillGaps).Methods(http.MethodPost)
	api.HandleFunc("/campaigns/{campaignID}", campaignHandler.Update).Methods(http.MethodPatch)
	api.HandleFunc("/campaigns/{campaignID}", campaignHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/phone", phoneHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/phone", phoneHandler.Subscribe).Methods(http.MethodPost)
	api.HandleFunc("/phone", phoneHandler.Unsubscribe).Methods(http.MethodDelete)
	api.HandleFunc("/discovered-links", discoveryHandler.Enqueue).Methods(http.MethodPost)
	api.HandleFunc("/logs", logHandler.ListDeliveries).Methods(http.MethodGet)
	api.HandleFunc("/search-logs", logHandler.ListSearches).Methods(http.MethodGet)
	api.HandleFunc("/search-logs", logHandler.RecordSearch).Methods(http.MethodPost)
	app.Router = router

	return app
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d but got %d: %s", status, rec.Code, rec.Body.String())
	}
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Error.Code != code {
		t.Errorf("Expected error code %s but got %s", code, errResp.Error.Code)
	}
}

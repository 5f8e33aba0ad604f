package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/domain"
	mockpub "github.com/mshra/Multi-Vendor-Service/internal/publisher/mock"
	mockrepo "github.com/mshra/Multi-Vendor-Service/internal/repository/mock"
	"github.com/mshra/Multi-Vendor-Service/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter() (*gin.Engine, *mockrepo.JobRepository, *mockpub.Publisher) {
	repo := mockrepo.NewJobRepository()
	pub := mockpub.NewPublisher()
	logger := zap.NewNop()

	router := NewRouter(&RouterDeps{
		SubmitUC:   usecase.NewSubmitJobUsecase(repo, pub, logger),
		GetJobUC:   usecase.NewGetJobUsecase(repo, logger),
		CompleteUC: usecase.NewCompleteJobUsecase(repo, logger),
		Logger:     logger,
	})

	return router, repo, pub
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitHandler_Success(t *testing.T) {
	router, _, pub := setupTestRouter()

	w := postJSON(router, "/api/v1/jobs", map[string]any{
		"vendor": "sync",
		"data":   map[string]any{"x": 1},
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp domain.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.RequestID == uuid.Nil {
		t.Error("expected non-empty request ID")
	}
	if len(pub.Published) != 1 {
		t.Errorf("expected 1 published job, got %d", len(pub.Published))
	}
}

func TestSubmitHandler_InvalidVendor(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := postJSON(router, "/api/v1/jobs", map[string]any{
		"vendor": "fax",
		"data":   map[string]any{},
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitHandler_MissingVendor(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := postJSON(router, "/api/v1/jobs", map[string]any{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitHandler_PublishFailure(t *testing.T) {
	router, repo, pub := setupTestRouter()
	pub.PublishFn = func(ctx context.Context, job *domain.Job) error {
		return errors.New("broker down")
	}

	w := postJSON(router, "/api/v1/jobs", map[string]any{
		"vendor": "sync",
		"data":   map[string]any{"x": 1},
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.GetAll()) != 0 {
		t.Error("job record must be rolled back when publish fails")
	}
}

func TestGetByIDHandler_SubmittedJobIsVisible(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := postJSON(router, "/api/v1/jobs", map[string]any{
		"vendor": "async",
		"data":   map[string]any{"x": 1},
	})
	var submitted domain.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+submitted.RequestID.String(), nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)

	if w2.Code != http.StatusOK {
		t.Fatalf("expected status 200 immediately after submission, got %d", w2.Code)
	}

	var status domain.StatusResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != domain.StatusPending {
		t.Errorf("expected PENDING, got %s", status.Status)
	}
	if status.Result != nil {
		t.Error("result must not be present before completion")
	}
}

func TestGetByIDHandler_NotFound(t *testing.T) {
	router, _, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestGetByIDHandler_InvalidID(t *testing.T) {
	router, _, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetByIDHandler_CompleteIncludesResult(t *testing.T) {
	router, repo, _ := setupTestRouter()

	job := &domain.Job{
		RequestID: uuid.New(),
		Vendor:    domain.VendorSync,
		Status:    domain.StatusPending,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if err := repo.Complete(context.Background(), job.RequestID, json.RawMessage(`{"val":5}`)); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.RequestID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var status domain.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != domain.StatusComplete {
		t.Errorf("expected COMPLETE, got %s", status.Status)
	}
	if string(status.Result) != `{"val":5}` {
		t.Errorf("expected result in response, got %s", status.Result)
	}
}

func TestWebhookHandler_CompletesJob(t *testing.T) {
	router, repo, _ := setupTestRouter()

	job := &domain.Job{
		RequestID: uuid.New(),
		Vendor:    domain.VendorAsync,
		Status:    domain.StatusProcessing,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	w := postJSON(router, "/api/v1/vendor-webhook/async", map[string]any{
		"request_id": job.RequestID.String(),
		"final_data": map[string]any{"done": true},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := repo.GetByRequestID(context.Background(), job.RequestID)
	if stored.Status != domain.StatusComplete {
		t.Errorf("expected COMPLETE, got %s", stored.Status)
	}
}

func TestWebhookHandler_UnknownJob(t *testing.T) {
	router, repo, _ := setupTestRouter()

	w := postJSON(router, "/api/v1/vendor-webhook/async", map[string]any{
		"request_id": uuid.NewString(),
		"final_data": map[string]any{},
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.GetAll()) != 0 {
		t.Error("unknown webhook must not mutate the store")
	}
}

func TestWebhookHandler_MalformedPayload(t *testing.T) {
	router, _, _ := setupTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor-webhook/async", bytes.NewBufferString(`{"request_id":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

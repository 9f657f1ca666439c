package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danquah/ratefeed/internal/contracts"
)

type fakeRunStore struct {
	run *contracts.PipelineRun
	err error
}

func (f *fakeRunStore) SaveRun(_ context.Context, _ *contracts.PipelineRun) error { return nil }

func (f *fakeRunStore) LatestRun(_ context.Context) (*contracts.PipelineRun, error) {
	return f.run, f.err
}

func sampleRun() *contracts.PipelineRun {
	return &contracts.PipelineRun{
		ID:        "0f2e3c1a-8a13-4a8e-9a54-1f2d3c4b5a69",
		State:     contracts.StateCompleted,
		Success:   true,
		StartedAt: time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC),
	}
}

func TestRunsGetLatest(t *testing.T) {
	h := NewRunsHandler(&fakeRunStore{run: sampleRun()}, nil, testLogger(t))

	rec := httptest.NewRecorder()
	h.GetLatest(rec, httptest.NewRequest("GET", "/api/runs/latest", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var run contracts.PipelineRun
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.Equal(t, contracts.StateCompleted, run.State)
}

func TestRunsGetLatestEmptyHistory(t *testing.T) {
	h := NewRunsHandler(&fakeRunStore{}, nil, testLogger(t))

	rec := httptest.NewRecorder()
	h.GetLatest(rec, httptest.NewRequest("GET", "/api/runs/latest", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsGetLatestNotConfigured(t *testing.T) {
	h := NewRunsHandler(nil, nil, testLogger(t))

	rec := httptest.NewRecorder()
	h.GetLatest(rec, httptest.NewRequest("GET", "/api/runs/latest", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerRunsPipeline(t *testing.T) {
	trigger := func(_ context.Context) (*contracts.PipelineRun, error) {
		return sampleRun(), nil
	}
	h := NewRunsHandler(nil, trigger, testLogger(t))

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest("POST", "/api/runs/trigger", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerReturnsAbortedReport(t *testing.T) {
	trigger := func(_ context.Context) (*contracts.PipelineRun, error) {
		run := sampleRun()
		run.State = contracts.StateAborted
		run.Success = false
		return run, errors.New("extract stage: fatal extraction error")
	}
	h := NewRunsHandler(nil, trigger, testLogger(t))

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest("POST", "/api/runs/trigger", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var run contracts.PipelineRun
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&run))
	assert.Equal(t, contracts.StateAborted, run.State)
}

func TestTriggerNotConfigured(t *testing.T) {
	h := NewRunsHandler(nil, nil, testLogger(t))

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest("POST", "/api/runs/trigger", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"godla/domain/absorber"
	"godla/domain/core"
	"godla/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededServer(t *testing.T) (*Server, core.RunID) {
	t.Helper()
	store := NewRunStore()
	runID := core.NewRunID()
	store.Add(&search.BatchResult{
		RunID: runID,
		Detections: []absorber.Detection{
			{
				TargetID: 11,
				DLAID:    core.NewDLAID(11, 0),
				Z:        2.41,
				NHI:      20.6,
				RunID:    runID,
			},
		},
		Processed: 3,
		Skipped:   1,
		Elapsed:   2 * time.Second,
	})
	return NewServer(store), runID
}

func TestGetRun(t *testing.T) {
	srv, runID := seededServer(t)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+runID.String(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var summary RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, runID, summary.RunID)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Detections)
}

func TestGetRunDetections(t *testing.T) {
	srv, runID := seededServer(t)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+runID.String()+"/detections", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var detections []absorber.Detection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detections))
	require.Len(t, detections, 1)
	assert.Equal(t, core.TargetID(11), detections[0].TargetID)
	assert.InDelta(t, 2.41, detections[0].Z, 1e-12)
}

func TestGetRun_NotFound(t *testing.T) {
	srv, _ := seededServer(t)

	req := httptest.NewRequest(http.MethodGet, "/runs/"+core.NewRunID().String(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

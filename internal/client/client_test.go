package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"patient-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	records []models.FetchRecord
	err     error
}

func (m *memRecorder) RecordFetch(rec models.FetchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

func TestFetchSortedRequestAndDecode(t *testing.T) {
	var gotURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"P003","name":"Ravi","city":"Pune","gender":"male","age":41,"height":1.7,"weight":90,"bmi":31.14,"verdict":"Obese"},
			{"id":"P001","name":"Ananya","city":"Delhi","gender":"female","age":28,"height":1.65,"weight":55,"bmi":20.2,"verdict":"Normal"}
		]`))
	}))
	defer srv.Close()

	rec := &memRecorder{}
	c := NewClient(srv.URL+"/", time.Second, rec)

	patients, err := c.FetchSorted(context.Background(), models.SortByBMI, models.OrderDesc)
	require.NoError(t, err)
	assert.Equal(t, "/sort?sort_by=bmi&order=desc", gotURI)

	// backend order is kept as-is
	require.Len(t, patients, 2)
	assert.Equal(t, "P003", patients[0].ID)
	assert.Equal(t, "P001", patients[1].ID)
	assert.Equal(t, 31.14, patients[0].BMI)
	assert.Equal(t, 41, patients[0].Age)

	require.Len(t, rec.records, 1)
	assert.Equal(t, models.OpFetchSorted, rec.records[0].Operation)
	assert.Equal(t, http.StatusOK, rec.records[0].StatusCode)
	assert.Empty(t, rec.records[0].Error)
}

func TestFetchSortedEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	patients, err := NewClient(srv.URL, 0, nil).FetchSorted(context.Background(), models.SortByHeight, models.OrderAsc)
	require.NoError(t, err)
	assert.NotNil(t, patients)
	assert.Empty(t, patients)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		fetchOne   bool
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "sort detail surfaced verbatim",
			status:     http.StatusBadRequest,
			body:       `{"detail":"Invalid sort field. Use one of: weight, height, bmi"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid sort field. Use one of: weight, height, bmi",
		},
		{
			name:       "sort without detail falls back",
			status:     http.StatusInternalServerError,
			body:       `<html>oops</html>`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Failed to load patient data",
		},
		{
			name:       "patient not found detail",
			status:     http.StatusNotFound,
			body:       `{"detail":"Patient not found"}`,
			fetchOne:   true,
			wantStatus: http.StatusNotFound,
			wantMsg:    "Patient not found",
		},
		{
			name:       "patient error with empty detail falls back",
			status:     http.StatusBadGateway,
			body:       `{"detail":""}`,
			fetchOne:   true,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Patient not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			rec := &memRecorder{}
			c := NewClient(srv.URL, time.Second, rec)

			var err error
			if tt.fetchOne {
				_, err = c.FetchOne(context.Background(), "P404")
			} else {
				_, err = c.FetchSorted(context.Background(), models.SortByHeight, models.OrderAsc)
			}

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, err.Error())

			require.Len(t, rec.records, 1)
			assert.Equal(t, tt.wantStatus, rec.records[0].StatusCode)
			assert.Equal(t, tt.wantMsg, rec.records[0].Error)
		})
	}
}

func TestFetchOneTrimsAndCanonicalizesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"name":"Ananya","city":"Delhi","gender":"female","age":28,"height":1.65,"weight":55,"bmi":20.2,"verdict":"Normal"}`))
	}))
	defer srv.Close()

	patient, err := NewClient(srv.URL, time.Second, nil).FetchOne(context.Background(), " p001 ")
	require.NoError(t, err)
	assert.Equal(t, "/patient/p001", gotPath)
	assert.Equal(t, "P001", patient.ID)
	assert.Equal(t, "Ananya", patient.Name)
}

func TestFetchOneEmptyIDSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	rec := &memRecorder{}
	_, err := NewClient(srv.URL, time.Second, rec).FetchOne(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.False(t, called)
	assert.Empty(t, rec.records)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	rec := &memRecorder{}
	_, err := NewClient(base, time.Second, rec).FetchSorted(context.Background(), models.SortByWeight, models.OrderAsc)
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	require.Len(t, rec.records, 1)
	assert.Zero(t, rec.records[0].StatusCode)
	assert.Equal(t, err.Error(), rec.records[0].Error)
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).FetchSorted(context.Background(), models.SortByWeight, models.OrderAsc)
	assert.ErrorContains(t, err, "decode fetch_sorted response")
}

func TestRecorderFailureIsNotSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rec := &memRecorder{err: errors.New("disk full")}
	_, err := NewClient(srv.URL, time.Second, rec).FetchSorted(context.Background(), models.SortByHeight, models.OrderAsc)
	assert.NoError(t, err)
}

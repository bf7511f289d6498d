package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"patient-dashboard/internal/models"
)

const (
	sortFailedMessage   = "Failed to load patient data"
	patientNotFoundText = "Patient not found"
)

var ErrEmptyID = errors.New("patient id is empty")

// Recorder receives one record per request sent to the patient API.
type Recorder interface {
	RecordFetch(rec models.FetchRecord) error
}

// APIError is a non-success response from the patient API. Message is the
// backend's detail when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	recorder   Recorder
}

// NewClient builds a client for the API at baseURL. A zero timeout leaves
// requests unbounded; recorder may be nil.
func NewClient(baseURL string, timeout time.Duration, recorder Recorder) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		recorder:   recorder,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchSorted returns every patient ordered by the backend on field/order.
func (c *Client) FetchSorted(ctx context.Context, field models.SortField, order models.SortOrder) ([]models.Patient, error) {
	endpoint := fmt.Sprintf("%s/sort?sort_by=%s&order=%s", c.baseURL, url.QueryEscape(string(field)), url.QueryEscape(string(order)))

	var patients []models.Patient
	if err := c.get(ctx, models.OpFetchSorted, endpoint, sortFailedMessage, &patients); err != nil {
		return nil, err
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	return patients, nil
}

// FetchOne looks up a single patient. The returned record carries the
// trimmed id in upper case.
func (c *Client) FetchOne(ctx context.Context, id string) (*models.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}
	endpoint := fmt.Sprintf("%s/patient/%s", c.baseURL, url.PathEscape(id))

	var patient models.Patient
	if err := c.get(ctx, models.OpFetchOne, endpoint, patientNotFoundText, &patient); err != nil {
		return nil, err
	}
	patient.ID = strings.ToUpper(id)
	return &patient, nil
}

func (c *Client) get(ctx context.Context, op, endpoint, fallback string, out interface{}) (err error) {
	rec := models.FetchRecord{Operation: op, URL: endpoint, StartedAt: time.Now()}
	defer func() {
		rec.Duration = time.Since(rec.StartedAt)
		if err != nil {
			rec.Error = err.Error()
		}
		c.record(rec)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	rec.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload models.ErrorPayload
		message := fallback
		if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
			message = payload.Detail
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) record(rec models.FetchRecord) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordFetch(rec); err != nil {
		log.Printf("Failed to journal %s request: %v", rec.Operation, err)
	}
}

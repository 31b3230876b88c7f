package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"total-comp/models"
	"total-comp/utils"
)

const sampleCSV = `LEVEL,SECTOR,GLOBAL_BUSINESS,MEMBER_FIRM,GENDER,EDUCATION,HIRE_SOURCE,TOTAL_YOE,SALARY,AIP,AIP_PERCENT
Senior,Audit,USI,FirmA,Female,Masters,Campus,3,"65,000",4000,6
Manager,Tax,US,FirmB,Male,Bachelors,Lateral,8,120000,15000
`

func testRetry() *utils.RetryConfig {
	return &utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: utils.NewDiscardLogger()}
}

func TestReadCSV(t *testing.T) {
	raw, err := ReadCSV(strings.NewReader(sampleCSV), "sample")
	require.NoError(t, err)
	assert.Equal(t, "sample", raw.Origin)
	assert.Len(t, raw.Header, 11)
	require.Len(t, raw.Records, 2)
	assert.Equal(t, "65,000", raw.Records[0][8])
	assert.Len(t, raw.Records[1], 10, "ragged records are kept")
}

func TestReadCSVEmptyPayload(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty")
	assert.True(t, errors.Is(err, models.ErrColumnNotFound))
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second, testRetry(), utils.NewDiscardLogger())
	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Records, 2)
	assert.Equal(t, srv.URL, raw.Origin)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	raw, err := NewHTTPSource(srv.URL, time.Second, testRetry(), utils.NewDiscardLogger()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Records, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second, testRetry(), utils.NewDiscardLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second, testRetry(), utils.NewDiscardLogger()).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPSourceEmptyBodyIsSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second, testRetry(), utils.NewDiscardLogger()).Fetch(context.Background())
	assert.True(t, errors.Is(err, models.ErrColumnNotFound))
	assert.False(t, errors.Is(err, models.ErrSourceUnavailable))
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salary.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	raw, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Records, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Fetch(context.Background())
	assert.True(t, errors.Is(err, models.ErrSourceUnavailable))
}

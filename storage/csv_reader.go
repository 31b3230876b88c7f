package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"total-comp/models"
	"total-comp/utils"
)

// ReadCSV reads a header row and every following record from r.
// Records may have fewer or more fields than the header.
func ReadCSV(r io.Reader, origin string) (*models.RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(models.ErrColumnNotFound, "%s: empty payload, no header", origin)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "csv: read header of %s", origin)
	}

	raw := &models.RawTable{Origin: origin, Header: header}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "csv: read %s", origin)
		}
		raw.Records = append(raw.Records, rec)
	}
	return raw, nil
}

// HTTPSource fetches a CSV over HTTP with retries.
type HTTPSource struct {
	url     string
	client  *http.Client
	timeout time.Duration
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

// NewHTTPSource creates a source for url. timeout bounds each attempt.
func NewHTTPSource(url string, timeout time.Duration, retry *utils.RetryConfig, logger *utils.Logger) *HTTPSource {
	return &HTTPSource{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
		retry:   retry,
		logger:  logger,
	}
}

// Fetch downloads and parses the CSV. Client errors (4xx) are not retried.
func (s *HTTPSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	var (
		raw      *models.RawTable
		parseErr error
	)
	err := s.retry.Do(ctx, "fetch "+s.url, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, s.url, nil)
		if err != nil {
			return utils.Permanent(err)
		}
		req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return utils.Permanent(fmt.Errorf("http status %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("http status %d", resp.StatusCode)
		}

		raw, parseErr = ReadCSV(resp.Body, s.url)
		return utils.Permanent(parseErr)
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if err != nil {
		return nil, errors.Wrapf(models.ErrSourceUnavailable, "%v", err)
	}

	s.logger.Info("[source] Fetched %d records from %s", len(raw.Records), s.url)
	return raw, nil
}

// FileSource reads a CSV from the local filesystem.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (*models.RawTable, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(models.ErrSourceUnavailable, "open %s: %v", s.path, err)
	}
	defer f.Close()
	return ReadCSV(f, s.path)
}

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iho/orgconf/internal/domain"
)

// errNotFound marks a 404 from the remote service. Lookups treat it as an
// empty result.
var errNotFound = errors.New("not found")

// HTTPOracle queries a remote reference-data service that exposes the
// /reference endpoints of this API.
type HTTPOracle struct {
	baseURL         string
	client          *http.Client
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// HTTPOracleOption configures an HTTPOracle.
type HTTPOracleOption func(*HTTPOracle)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOracleOption {
	return func(o *HTTPOracle) {
		o.client = client
	}
}

// WithRetries sets how often a failed request is retried and the first
// backoff interval.
func WithRetries(maxRetries uint64, initialInterval time.Duration) HTTPOracleOption {
	return func(o *HTTPOracle) {
		o.maxRetries = maxRetries
		o.initialInterval = initialInterval
	}
}

// NewHTTPOracle creates a new HTTPOracle. baseURL is the prefix of the
// reference endpoints, e.g. http://refdata:8080/api/v1/reference.
func NewHTTPOracle(baseURL string, timeout time.Duration, opts ...HTTPOracleOption) *HTTPOracle {
	o := &HTTPOracle{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          &http.Client{Timeout: timeout},
		maxRetries:      2,
		initialInterval: 100 * time.Millisecond,
		maxInterval:     1 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *HTTPOracle) GetCountries(ctx context.Context) ([]domain.Country, error) {
	var resp struct {
		Countries []domain.Country `json:"countries"`
	}
	if err := o.get(ctx, "/countries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Countries, nil
}

func (o *HTTPOracle) GetStates(ctx context.Context, countryCode string) ([]domain.State, error) {
	var resp struct {
		States []domain.State `json:"states"`
	}
	path := "/countries/" + url.PathEscape(countryCode) + "/states"
	if err := o.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.States, nil
}

func (o *HTTPOracle) GetCities(ctx context.Context, countryCode, stateCode string) ([]domain.City, error) {
	var resp struct {
		Cities []domain.City `json:"cities"`
	}
	path := "/countries/" + url.PathEscape(countryCode) + "/states/" + url.PathEscape(stateCode) + "/cities"
	if err := o.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cities, nil
}

func (o *HTTPOracle) SearchPostalByCity(ctx context.Context, cityName string) ([]domain.PostalRecord, error) {
	var resp struct {
		Records []domain.PostalRecord `json:"records"`
	}
	if err := o.get(ctx, "/postal", url.Values{"city": {cityName}}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (o *HTTPOracle) SearchPostalByCode(ctx context.Context, code string) ([]domain.PostalRecord, error) {
	var resp struct {
		Records []domain.PostalRecord `json:"records"`
	}
	if err := o.get(ctx, "/postal/"+url.PathEscape(code), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// get fetches path into out. Network errors, 429 and 5xx responses are
// retried with exponential backoff; a 404 leaves out empty.
func (o *HTTPOracle) get(ctx context.Context, path string, query url.Values, out any) error {
	target := o.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.initialInterval
	b.MaxInterval = o.maxInterval

	err := backoff.Retry(func() error {
		return o.do(ctx, target, out)
	}, backoff.WithContext(backoff.WithMaxRetries(b, o.maxRetries), ctx))

	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}

func (o *HTTPOracle) do(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(errNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("request %s: status %d", target, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return backoff.Permanent(fmt.Errorf("request %s: status %d", target, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s: %w", target, err))
	}
	return nil
}

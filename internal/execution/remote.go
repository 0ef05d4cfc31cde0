package execution

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/pkg/httputil"
)

// maxResponseBytes caps how much of a result document is read
const maxResponseBytes = 16 << 20

// Remote is the backtest execution service
// ⭐ SSOT: 원격 실행기 연동 인터페이스는 여기서만 정의
type Remote interface {
	// Configured reports whether an endpoint is set
	Configured() bool

	// Execute runs one backtest. Failures are *RemoteExecutionError.
	Execute(ctx context.Context, req *backtestcfg.Request) (*Response, error)
}

// Response is a successful result document
type Response struct {
	Status   int
	Raw      json.RawMessage
	Document map[string]interface{}
}

// HTTPRemote posts requests to the executor endpoint
type HTTPRemote struct {
	client *httputil.Client
	url    string
}

// NewHTTPRemote creates a remote for url. An empty url is unconfigured.
func NewHTTPRemote(client *httputil.Client, url string) *HTTPRemote {
	return &HTTPRemote{client: client, url: strings.TrimSpace(url)}
}

// Configured reports whether an endpoint is set
func (r *HTTPRemote) Configured() bool {
	return r != nil && r.url != ""
}

// Execute posts req and decodes the JSON result document
func (r *HTTPRemote) Execute(ctx context.Context, req *backtestcfg.Request) (*Response, error) {
	resp, err := r.client.PostJSON(ctx, r.url, req)
	if err != nil {
		return nil, &RemoteExecutionError{StatusText: err.Error(), Cause: err}
	}

	body, err := httputil.ReadBody(resp, maxResponseBytes)
	if err != nil {
		return nil, &RemoteExecutionError{
			Status:     resp.StatusCode,
			StatusText: "failed to read response body",
			Cause:      err,
		}
	}

	if !httputil.IsSuccess(resp.StatusCode) {
		return nil, &RemoteExecutionError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &RemoteExecutionError{
			Status:     resp.StatusCode,
			StatusText: "invalid JSON result document",
			Body:       string(body),
			Cause:      err,
		}
	}

	return &Response{Status: resp.StatusCode, Raw: body, Document: doc}, nil
}

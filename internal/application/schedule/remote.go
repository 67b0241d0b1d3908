package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// 服务端响应体上限
const maxDocumentBytes = 64 << 20

// Remote 远端数据集文档
type Remote interface {
	// Fetch 返回完整文档
	Fetch(ctx context.Context) ([]byte, error)
	// Push 整体替换文档
	Push(ctx context.Context, doc []byte) error
}

// RemoteError 服务端返回的非 2xx 响应
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remote returned %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// HTTPRemote 通过 /api/data 访问文档
type HTTPRemote struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRemote 创建 HTTP 远端，baseURL 形如 http://localhost:4173
func NewHTTPRemote(baseURL string, timeout time.Duration) *HTTPRemote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRemote{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/data",
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint 返回文档地址
func (r *HTTPRemote) Endpoint() string {
	return r.endpoint
}

// Fetch 获取文档；响应不是合法 JSON 时返回错误
func (r *HTTPRemote) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := r.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, remoteError(status, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("remote returned invalid json (%d bytes)", len(body))
	}
	return body, nil
}

// Push 上传文档
func (r *HTTPRemote) Push(ctx context.Context, doc []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(doc))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := r.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return remoteError(status, body)
	}
	return nil
}

func (r *HTTPRemote) do(req *http.Request) ([]byte, int, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s %s: %w", req.Method, r.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func remoteError(status int, body []byte) error {
	e := &RemoteError{StatusCode: status}
	if gjson.ValidBytes(body) {
		e.Code = gjson.GetBytes(body, "error").String()
		e.Message = gjson.GetBytes(body, "message").String()
		e.Details = gjson.GetBytes(body, "details").String()
	}
	return e
}

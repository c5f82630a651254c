// Package drive cung cấp client gọi drive-proxy microservice để xóa file nhị phân.
// Xóa file là best-effort: caller thu thập lỗi và báo cáo, không block việc xóa metadata.
package drive

import (
	"context"
	"fmt"
	"time"

	"folk_academy/internal/common"

	"github.com/valyala/fasthttp"
)

// Deleter là interface xóa object ngoài theo file id.
type Deleter interface {
	// DeleteFile xóa file theo id. File không tồn tại (404) không phải lỗi.
	DeleteFile(ctx context.Context, fileID string) error
}

// Client gọi drive-proxy qua HTTP
type Client struct {
	baseURL string
	token   string
	http    *fasthttp.Client
	timeout time.Duration
}

// NewClient tạo client cho drive-proxy.
// baseURL ví dụ: http://localhost:9090
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &fasthttp.Client{
			MaxConnsPerHost: 16,
		},
		timeout: 15 * time.Second,
	}
}

// DeleteFile gửi DELETE /files/{id} đến drive-proxy.
// 404 được coi là đã xóa từ trước (không phải lỗi).
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if fileID == "" {
		return common.ErrRequiredField
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/files/%s", c.baseURL, fileID))
	req.Header.SetMethod(fasthttp.MethodDelete)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("drive-proxy request failed: %w", err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusNotFound {
		// File đã không còn, coi như xóa thành công
		return nil
	}
	if status >= 200 && status < 300 {
		return nil
	}

	return fmt.Errorf("drive-proxy returned status %d for file %s", status, fileID)
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/kirillkom/docqa/internal/core/domain"
	"github.com/kirillkom/docqa/internal/infrastructure/resilience"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 50 << 20
)

type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	executor   *resilience.Executor
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, executor *resilience.Executor) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
		executor:   executor,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (domain.SourceDocument, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return domain.SourceDocument{}, domain.WrapError(domain.ErrInvalidInput, "fetch document", fmt.Errorf("invalid url %q", rawURL))
	}

	doc, err := resilience.Call(ctx, f.executor, "document.fetch", func(callCtx context.Context) (domain.SourceDocument, error) {
		return f.download(callCtx, parsed)
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return domain.SourceDocument{}, resilience.WrapTemporary("fetch document", err)
	}
	return doc, nil
}

func (f *HTTPFetcher) download(ctx context.Context, target *url.URL) (domain.SourceDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("create download request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return domain.SourceDocument{}, resilience.NewHTTPStatusError("document", "download", resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("read download body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return domain.SourceDocument{}, domain.WrapError(
			domain.ErrInvalidInput,
			"fetch document",
			fmt.Errorf("document exceeds %d bytes", f.maxBytes),
		)
	}
	if len(body) == 0 {
		return domain.SourceDocument{}, domain.WrapError(domain.ErrInvalidInput, "fetch document", errors.New("empty document"))
	}

	return domain.SourceDocument{
		Name:     path.Base(target.Path),
		MimeType: resp.Header.Get("Content-Type"),
		Body:     body,
	}, nil
}

package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Client retrieves the stock page. It implements pipeline.Fetcher.
type Client struct {
	client   *resty.Client
	url      string
	htmlText bool
	logger   *slog.Logger
}

// NewClient creates a source client. When htmlText is true, HTML responses
// are reduced to their text content before being handed to the extractor,
// which also decodes entity-escaped var_dump output.
func NewClient(url string, timeout time.Duration, userAgent string, htmlText bool, logger *slog.Logger) *Client {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(timeout)

	return &Client{
		client:   client,
		url:      url,
		htmlText: htmlText,
		logger:   logger,
	}
}

// Fetch performs one GET of the source page. A non-2xx status yields a
// *domain.RetrievalError.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	res, err := c.client.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		return "", fmt.Errorf("fetch source page: %w", err)
	}
	if !res.IsSuccess() {
		return "", &domain.RetrievalError{URL: c.url, StatusCode: res.StatusCode()}
	}

	body := res.Body()
	c.logger.Debug("source page fetched",
		"status", res.StatusCode(),
		"bytes", len(body),
		"duration", res.Time(),
	)

	if c.htmlText && isHTML(res.Header().Get("Content-Type")) {
		return HTMLToText(body)
	}
	return string(body), nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mediaType == "text/html" || mediaType == "application/xhtml+xml")
}

// HTMLToText returns the document's text with scripts and styles removed.
// Entities such as =&gt; come back decoded.
func HTMLToText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("parse source html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text(), nil
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/erraggy/specbuild/oaserrors"
)

// Remote is a document fetched over HTTP(S).
type Remote struct {
	lazyGetters
	url    string
	loader *Loader
	doc    parsedDocument
}

func newRemote(l *Loader, url string) *Remote {
	r := &Remote{url: url, loader: l}
	r.lazyGetters = lazyGetters{doc: &r.doc, parse: r.Parse}
	return r
}

// SourcePath returns the URL of the document.
func (r *Remote) SourcePath() string { return r.url }

// Kind returns KindURL.
func (r *Remote) Kind() Kind { return KindURL }

// IsParsed reports whether the document has been fetched.
func (r *Remote) IsParsed() bool { return r.doc.IsParsed() }

// Parse fetches and decodes the document. The payload is decoded as JSON
// first and as YAML when that fails, whatever the Content-Type.
func (r *Remote) Parse(ctx context.Context) error {
	return r.doc.ensure(ctx, func(ctx context.Context) (map[string]any, []string, error) {
		data, err := r.fetch(ctx)
		if err != nil {
			return nil, nil, err
		}
		root, err := decode(r.url, data, formatUnknown)
		if err != nil {
			return nil, nil, err
		}
		r.loader.logger.Debug("loaded document", "url", r.url, "bytes", len(data))
		return r.loader.canonicalize(root, r.url), definitionOrder(data), nil
	})
}

// fetch downloads the document, retrying transient failures with an
// exponential backoff. Client errors are returned at once.
func (r *Remote) fetch(ctx context.Context) ([]byte, error) {
	var data []byte
	op := func() error {
		body, err := r.get(ctx)
		if err != nil {
			var pe *oaserrors.ParseError
			if errors.As(err, &pe) && pe.StatusCode >= 400 && pe.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		data = body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(r.loader.retries)), ctx)

	notify := func(err error, wait time.Duration) {
		r.loader.logger.Debug("retrying remote fetch", "url", r.url, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Remote) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: r.url, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", r.loader.userAgent)

	resp, err := r.loader.client.Do(req) //nolint:gosec // URL is user-provided input
	if err != nil {
		return nil, &oaserrors.ParseError{Path: r.url, Message: "failed to fetch URL", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &oaserrors.ParseError{
			Path:       r.url,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to retrieve document: %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &oaserrors.ParseError{Path: r.url, Message: "failed to read response body", Cause: err}
	}
	return data, nil
}

// Package transport implements the narrow network contract the
// network-backed sources consume: issue a JSON HTTP request, settle a
// promise with {status, data, headers} or a transport Error, support
// synchronous idempotent abort. It is not a general HTTP client surface.
package transport

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/promise"
)

// Options configures a Transport. Zero values mean defaults.
type Options struct {
	// Client performs the requests. Nil falls back to http.DefaultClient.
	Client *http.Client
	// Logger receives request traces and failure reports. Nil disables
	// them.
	Logger *logging.Logger
}

// Transport issues requests settled on a promise loop. One instance is
// safe for concurrent calls.
type Transport struct {
	client *http.Client
	log    *logging.Logger
}

// New builds a Transport. A nil opts is valid.
func New(opts *Options) *Transport {
	t := &Transport{client: http.DefaultClient}
	if opts != nil {
		if opts.Client != nil {
			t.client = opts.Client
		}
		t.log = opts.Logger
	}
	return t
}

// Request describes one call. An empty Method means GET without a body and
// POST with one.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Body    any
	Headers http.Header
}

// Call is one in-flight request: the promise it settles plus the abort
// handle.
type Call struct {
	p      *promise.Promise
	reject func(err error)
	cancel context.CancelFunc
}

// Promise returns the promise the call settles.
func (c *Call) Promise() *promise.Promise { return c.p }

// Abort rejects the call synchronously with an aborted Error and cancels
// the underlying request. Once the call settled, either way, Abort is a
// no-op; calling it twice is safe.
func (c *Call) Abort() {
	c.reject(&Error{Aborted: true, Message: "aborted"})
	c.cancel()
}

// Do issues req and returns the call handle. The request runs on its own
// goroutine; settlement is latched there and, as with every promise,
// continuations run as loop tasks.
func (t *Transport) Do(loop *promise.Loop, req Request) *Call {
	p, resolve, reject := promise.Deferred(loop)
	ctx, cancel := context.WithCancel(context.Background())
	call := &Call{p: p, reject: reject, cancel: cancel}

	httpReq, err := t.build(ctx, req)
	if err != nil {
		reject(&Error{Message: "building request", Cause: err})
		cancel()
		return call
	}

	t.log.Debugf("transport|%s %s", httpReq.Method, httpReq.URL)
	go func() {
		defer cancel()
		res, err := t.client.Do(httpReq)
		if err != nil {
			if !p.Settled() {
				t.log.Warningf("transport|%s %s failed: %v", httpReq.Method, httpReq.URL, err)
			}
			reject(&Error{Message: "request failed", Cause: err})
			return
		}
		defer res.Body.Close()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			reject(&Error{Status: res.StatusCode, Message: "reading response body", Cause: err})
			return
		}
		var data any
		if len(body) > 0 {
			if err := getCodec().Unmarshal(body, &data); err != nil {
				reject(&Error{Status: res.StatusCode, Message: "decoding response body", Cause: err})
				return
			}
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			reject(&Error{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)})
			return
		}
		resolve(&Response{Status: res.StatusCode, Data: data, Headers: res.Header})
	}()
	return call
}

// Get issues a GET with query parameters.
func (t *Transport) Get(loop *promise.Loop, rawURL string, query url.Values) *Call {
	return t.Do(loop, Request{Method: http.MethodGet, URL: rawURL, Query: query})
}

// Post issues a POST with a JSON body.
func (t *Transport) Post(loop *promise.Loop, rawURL string, body any) *Call {
	return t.Do(loop, Request{Method: http.MethodPost, URL: rawURL, Body: body})
}

// Upload sends named payloads and plain fields as a multipart POST.
// onProgress, when non-nil, receives (sent, total) byte counts as the
// client consumes the body; it runs on the transport goroutine, so callers
// wanting loop semantics post from it.
func (t *Transport) Upload(loop *promise.Loop, rawURL string, files map[string][]byte, fields map[string]string, onProgress func(sent, total int64)) *Call {
	failed := func(err error) *Call {
		p, _, reject := promise.Deferred(loop)
		reject(&Error{Message: "building multipart body", Cause: err})
		return &Call{p: p, reject: reject, cancel: func() {}}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, payload := range files {
		fw, err := mw.CreateFormFile(name, name)
		if err == nil {
			_, err = fw.Write(payload)
		}
		if err != nil {
			return failed(err)
		}
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return failed(err)
		}
	}
	if err := mw.Close(); err != nil {
		return failed(err)
	}

	body := &progressReader{
		r:      bytes.NewReader(buf.Bytes()),
		total:  int64(buf.Len()),
		report: onProgress,
	}
	headers := http.Header{}
	headers.Set("Content-Type", mw.FormDataContentType())
	return t.Do(loop, Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Body:    body,
		Headers: headers,
	})
}

func (t *Transport) build(ctx context.Context, req Request) (*http.Request, error) {
	u := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if parsed, err := url.Parse(u); err == nil && parsed.RawQuery != "" {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}

	method := req.Method
	var body io.Reader
	contentType := ""
	switch b := req.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		raw, err := getCodec().Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// progressReader counts consumed bytes for upload progress reporting.
type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.sent += int64(n)
		if pr.report != nil {
			pr.report(pr.sent, pr.total)
		}
	}
	return n, err
}

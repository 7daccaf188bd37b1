package transport_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/reoring/databind/promise"
	"github.com/reoring/databind/transport"
)

func await(t *testing.T, loop *promise.Loop, p *promise.Promise) (any, error) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("call never settled")
	}
	loop.Drain()
	return p.Result()
}

func TestGetResolvesDecodedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Total-Count", "42")
		w.Write([]byte(`{"name":"Ada","age":36}`))
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Get(loop, srv.URL, nil)

	v, err := await(t, loop, call.Promise())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	res := v.(*transport.Response)
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d", res.Status)
	}
	obj := res.Data.(map[string]any)
	if obj["name"] != "Ada" {
		t.Fatalf("data = %v", res.Data)
	}
	if res.Headers.Get("X-Total-Count") != "42" {
		t.Fatalf("headers not carried: %v", res.Headers)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"u1"}`))
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Post(loop, srv.URL, map[string]any{"name": "Grace"})

	v, err := await(t, loop, call.Promise())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got["name"] != "Grace" {
		t.Fatalf("server saw %v", got)
	}
	if res := v.(*transport.Response); res.Status != http.StatusCreated {
		t.Fatalf("status = %d", res.Status)
	}
}

func TestQueryParameters(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	q := url.Values{}
	q.Set("page", "3")
	q.Set("size", "25")
	call := tr.Get(loop, srv.URL, q)

	if _, err := await(t, loop, call.Promise()); err != nil {
		t.Fatalf("err = %v", err)
	}
	if got.Get("page") != "3" || got.Get("size") != "25" {
		t.Fatalf("query = %v", got)
	}
}

func TestHTTPErrorRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `"missing"`, http.StatusNotFound)
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Get(loop, srv.URL, nil)

	_, err := await(t, loop, call.Promise())
	var te *transport.Error
	if !errors.As(err, &te) {
		t.Fatalf("err = %v", err)
	}
	if te.Status != http.StatusNotFound || te.Aborted {
		t.Fatalf("error = %+v", te)
	}
	if transport.IsAborted(err) {
		t.Fatalf("a server failure is not an abort")
	}
}

func TestDecodeFailureRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Get(loop, srv.URL, nil)

	_, err := await(t, loop, call.Promise())
	var te *transport.Error
	if !errors.As(err, &te) || te.Cause == nil {
		t.Fatalf("err = %v", err)
	}
}

func TestAbortRejectsSynchronouslyAndIsIdempotent(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	defer close(release)

	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Get(loop, srv.URL, nil)

	call.Abort()
	if !call.Promise().Settled() {
		t.Fatalf("abort must settle the promise synchronously")
	}
	call.Abort()

	_, err := call.Promise().Result()
	if !transport.IsAborted(err) {
		t.Fatalf("err = %v", err)
	}

	// a late server response must not overwrite the abort
	loop.Drain()
	if _, err := call.Promise().Result(); !transport.IsAborted(err) {
		t.Fatalf("late settlement overwrote the abort: %v", err)
	}
}

func TestUploadMultipartWithProgress(t *testing.T) {
	var fileBody []byte
	var field string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		field = r.FormValue("kind")
		f, _, err := r.FormFile("report")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		buf := make([]byte, 64)
		n, _ := f.Read(buf)
		fileBody = buf[:n]
		w.Write([]byte(`{"stored":true}`))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var lastSent, total int64
	loop := promise.NewLoop(nil)
	tr := transport.New(nil)
	call := tr.Upload(loop, srv.URL,
		map[string][]byte{"report": []byte("csv,data")},
		map[string]string{"kind": "monthly"},
		func(sent, tot int64) {
			mu.Lock()
			lastSent, total = sent, tot
			mu.Unlock()
		})

	v, err := await(t, loop, call.Promise())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res := v.(*transport.Response); res.Data.(map[string]any)["stored"] != true {
		t.Fatalf("data = %v", res.Data)
	}
	if string(fileBody) != "csv,data" || field != "monthly" {
		t.Fatalf("server saw file %q field %q", fileBody, field)
	}
	mu.Lock()
	defer mu.Unlock()
	if total == 0 || lastSent != total {
		t.Fatalf("progress did not complete: %d/%d", lastSent, total)
	}
}

type swapCodec struct{}

func (swapCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (swapCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (swapCodec) Name() string                       { return "test" }

func TestCodecSwap(t *testing.T) {
	transport.SetCodec(swapCodec{})
	defer transport.UseDefaultCodec()

	// nil is ignored
	transport.SetCodec(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	loop := promise.NewLoop(nil)
	call := transport.New(nil).Get(loop, srv.URL, nil)
	v, err := await(t, loop, call.Promise())
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res := v.(*transport.Response); res.Data.(map[string]any)["ok"] != true {
		t.Fatalf("data = %v", res.Data)
	}
}

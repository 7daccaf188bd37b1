package source_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/reoring/databind/model"
	"github.com/reoring/databind/promise"
	"github.com/reoring/databind/source"
	"github.com/reoring/databind/transport"
)

func TestUploadAppliesResponse(t *testing.T) {
	var (
		mu       sync.Mutex
		fileData []byte
		field    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart parse: %v", err)
			return
		}
		f, _, err := r.FormFile("avatar")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		f.Close()
		mu.Lock()
		fileData = data
		field = r.FormValue("kind")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"uploaded"}`))
	}))
	defer srv.Close()

	var (
		progressMu sync.Mutex
		lastSent   int64
		total      int64
	)
	loop := promise.NewLoop(nil)
	s, err := source.NewUpload(model.MustBuild(contactSchema()), source.UploadOptions{
		URL:       srv.URL,
		Transport: transport.New(nil),
		Loop:      loop,
		OnProgress: func(sent, totalBytes int64) {
			progressMu.Lock()
			lastSent = sent
			total = totalBytes
			progressMu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("NewUpload: %v", err)
	}

	payload := []byte("png bytes")
	p := s.Upload(map[string][]byte{"avatar": payload}, map[string]string{"kind": "profile"})
	v, err := awaitSettled(t, loop, p)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if resp := v.(*transport.Response); resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	mu.Lock()
	if string(fileData) != "png bytes" || field != "profile" {
		t.Fatalf("server saw file %q, field %q", fileData, field)
	}
	mu.Unlock()
	if got, _ := s.Value("name"); got != "uploaded" {
		t.Fatalf("response object not applied, name = %v", got)
	}
	progressMu.Lock()
	defer progressMu.Unlock()
	if total == 0 || lastSent != total {
		t.Fatalf("progress should complete, sent %d of %d", lastSent, total)
	}
}

func TestUploadAbortSuppressed(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	defer close(release)

	loop := promise.NewLoop(nil)
	rec := &failureRecorder{}
	s, err := source.NewUpload(model.MustBuild(contactSchema()), source.UploadOptions{
		URL:       srv.URL,
		Transport: transport.New(nil),
		Loop:      loop,
		OnFailure: rec.hook(),
	})
	if err != nil {
		t.Fatalf("NewUpload: %v", err)
	}

	p := s.Upload(map[string][]byte{"doc": []byte("data")}, nil)
	s.Abort()

	_, uploadErr := awaitSettled(t, loop, p)
	if !transport.IsAborted(uploadErr) {
		t.Fatalf("aborted upload should reject as aborted, got %v", uploadErr)
	}
	if rec.count() != 0 {
		t.Fatalf("OnFailure must not run for a deliberate abort")
	}
}

package source

import (
	databind "github.com/reoring/databind"
	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/promise"
	"github.com/reoring/databind/transport"
)

// UploadOptions configures NewUpload. URL, Transport and Loop are
// required.
type UploadOptions struct {
	Name      string
	URL       string
	Transport *transport.Transport
	Loop      *promise.Loop
	Default   map[string]any
	// OnProgress observes upload progress as the request body is
	// written.
	OnProgress func(sent, total int64)
	// OnFailure runs for genuine upload failures; deliberate aborts are
	// suppressed.
	OnFailure func(err error)
	Logger    *logging.Logger
}

// FileUploadSource is a DataSource that submits file payloads through a
// multipart request and applies the response object to its model.
type FileUploadSource struct {
	*DataSource
	url        string
	tr         *transport.Transport
	loop       *promise.Loop
	onProgress func(sent, total int64)
	onFailure  func(err error)
	call       *transport.Call
}

// NewUpload builds a FileUploadSource over class.
func NewUpload(class *model.Class, opts UploadOptions) (*FileUploadSource, error) {
	if opts.URL == "" || opts.Transport == nil || opts.Loop == nil {
		return nil, databind.NewSourceError(opts.Name, "new", "",
			"upload source needs URL, Transport and Loop")
	}
	inner, err := New(class, &Options{Name: opts.Name, Default: opts.Default, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	return &FileUploadSource{
		DataSource: inner,
		url:        opts.URL,
		tr:         opts.Transport,
		loop:       opts.Loop,
		onProgress: opts.OnProgress,
		onFailure:  opts.OnFailure,
	}, nil
}

// Upload submits the named payloads plus form fields. An upload already
// in flight is aborted first. On success a response object, when one is
// present, is applied to the model wholesale; the promise resolves with
// the transport response either way.
func (s *FileUploadSource) Upload(files map[string][]byte, fields map[string]string) *promise.Promise {
	s.Abort()
	call := s.tr.Upload(s.loop, s.url, files, fields, s.onProgress)
	s.call = call
	p := call.Promise().Then(func(v any) (any, error) {
		resp := v.(*transport.Response)
		if obj, ok := resp.Data.(map[string]any); ok {
			if err := s.instance.SetObject(obj); err != nil {
				return nil, err
			}
		}
		if s.call == call {
			s.call = nil
		}
		return resp, nil
	})
	p.Catch(func(err error) (any, error) {
		if s.call == call {
			s.call = nil
		}
		if transport.IsAborted(err) {
			s.log.Debugf("%s: upload aborted", s.name)
			return nil, nil
		}
		s.log.Warningf("%s: upload failed: %v", s.name, err)
		if s.onFailure != nil {
			s.onFailure(err)
		}
		return nil, nil
	})
	return p
}

// Abort cancels the in-flight upload, if any. Idempotent; the aborted
// upload's promise rejects with an aborted transport error.
func (s *FileUploadSource) Abort() {
	if s.call != nil {
		s.call.Abort()
		s.call = nil
	}
}

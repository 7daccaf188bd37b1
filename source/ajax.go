package source

import (
	"fmt"
	"net/url"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/logging"
	"github.com/reoring/databind/model"
	"github.com/reoring/databind/promise"
	"github.com/reoring/databind/transport"
)

// AjaxOptions configures NewAjax. URL, Transport and Loop are required.
type AjaxOptions struct {
	Name      string
	URL       string
	Transport *transport.Transport
	Loop      *promise.Loop
	Default   map[string]any
	// OnFailure runs for genuine load failures; deliberate aborts are
	// suppressed.
	OnFailure func(err error)
	Logger    *logging.Logger
}

// AjaxSource is a DataSource whose object is fetched from a network
// endpoint: Load applies the response wholesale, like SetObject, and
// every bound element re-synchronizes.
type AjaxSource struct {
	*DataSource
	url       string
	tr        *transport.Transport
	loop      *promise.Loop
	onFailure func(err error)
	call      *transport.Call
}

// NewAjax builds an AjaxSource over class.
func NewAjax(class *model.Class, opts AjaxOptions) (*AjaxSource, error) {
	if opts.URL == "" || opts.Transport == nil || opts.Loop == nil {
		return nil, databind.NewSourceError(opts.Name, "new", "",
			"ajax source needs URL, Transport and Loop")
	}
	inner, err := New(class, &Options{Name: opts.Name, Default: opts.Default, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	return &AjaxSource{
		DataSource: inner,
		url:        opts.URL,
		tr:         opts.Transport,
		loop:       opts.Loop,
		onFailure:  opts.OnFailure,
	}, nil
}

// Load fetches the object and applies it through the init pipeline. A
// load already in flight is aborted first. The promise resolves with the
// applied object and rejects with the transport error on failure.
func (s *AjaxSource) Load(query url.Values) *promise.Promise {
	s.Abort()
	call := s.tr.Get(s.loop, s.url, query)
	s.call = call
	p := call.Promise().Then(func(v any) (any, error) {
		resp := v.(*transport.Response)
		obj, ok := resp.Data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("load response is %T, not an object", resp.Data)
		}
		if err := s.instance.SetObject(obj); err != nil {
			return nil, err
		}
		if s.call == call {
			s.call = nil
		}
		return obj, nil
	})
	p.Catch(func(err error) (any, error) {
		if s.call == call {
			s.call = nil
		}
		if transport.IsAborted(err) {
			s.log.Debugf("%s: load aborted", s.name)
			return nil, nil
		}
		s.log.Warningf("%s: load failed: %v", s.name, err)
		if s.onFailure != nil {
			s.onFailure(err)
		}
		return nil, nil
	})
	return p
}

// Abort cancels the in-flight load, if any. Idempotent; the aborted
// load's promise rejects with an aborted transport error.
func (s *AjaxSource) Abort() {
	if s.call != nil {
		s.call.Abort()
		s.call = nil
	}
}

package model

// WriteKind tags a write as part of the first wholesale assignment or as an
// incremental edit, so observers can branch on which one they are seeing.
type WriteKind int

const (
	WriteInit WriteKind = iota
	WriteUpdate
)

func (k WriteKind) String() string {
	if k == WriteInit {
		return "init"
	}
	return "update"
}

// Event is what field observers receive. Before observers see the raw
// incoming value, ahead of the set transform and coercion; after observers
// see the stored canonical value.
type Event struct {
	Instance *Instance
	Path     string
	Value    any
	Previous any
	Kind     WriteKind
}

// Observer is a field write hook. Observers run synchronously and in
// registration order; they cannot cancel the write.
type Observer func(Event)

// ValidationEvent fires after a validator run that actually executed.
// Errors holds the codes currently failing for the path, nil when the field
// is valid.
type ValidationEvent struct {
	Instance *Instance
	Path     string
	Value    any
	Errors   map[string]string
}

// ValidationObserver observes validator runs for one field path.
type ValidationObserver func(ValidationEvent)

// FieldHooks carries the per-field observer registrations of a schema.
type FieldHooks struct {
	Before     []Observer
	After      []Observer
	Validation []ValidationObserver
}

// GlobalHooks carries the class-wide observer registrations: Before/After
// fire on every field write, InitBefore/InitAfter fire once around each
// wholesale assignment.
type GlobalHooks struct {
	Before     []Observer
	After      []Observer
	InitBefore []Observer
	InitAfter  []Observer
}

func fire(obs []Observer, evt Event) {
	for _, o := range obs {
		if o != nil {
			o(evt)
		}
	}
}

func fireValidation(obs []ValidationObserver, evt ValidationEvent) {
	for _, o := range obs {
		if o != nil {
			o(evt)
		}
	}
}

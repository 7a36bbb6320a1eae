package submit

import (
	"context"
	"sync"

	"fintrack/internal/suggest"
)

// SourceLoader fetches the suggestion candidates for a form.
type SourceLoader interface {
	Load(ctx context.Context) suggest.Sources
}

// FormInstance is one mounted expense form: its current values, its suggestion
// sources and its submitter. Results that arrive after Close are dropped.
type FormInstance struct {
	submitter *Submitter

	mu      sync.Mutex
	form    Form
	sources suggest.Sources
	loadGen uint64
	loaded  bool
	closed  bool
}

func NewFormInstance(submitter *Submitter, defaults Defaults) *FormInstance {
	return &FormInstance{
		submitter: submitter,
		form:      NewForm(defaults),
		sources:   suggest.EmptySources(),
	}
}

// Load refreshes the suggestion sources. It reports false when the result
// was discarded because the instance was closed or a newer load started.
func (in *FormInstance) Load(ctx context.Context, loader SourceLoader) bool {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return false
	}
	in.loadGen++
	gen := in.loadGen
	in.mu.Unlock()

	src := loader.Load(ctx)

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed || gen != in.loadGen {
		return false
	}
	in.sources = src
	in.loaded = true
	return true
}

// isLoaded reports whether a Load has completed.
func (in *FormInstance) isLoaded() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.loaded
}

// Suggest offers candidates for field matching query.
func (in *FormInstance) Suggest(field suggest.Field, query string) []string {
	in.mu.Lock()
	ix := in.sources.For(field)
	in.mu.Unlock()
	return ix.Suggest(query)
}

// Form returns the values the form should currently show.
func (in *FormInstance) Form() Form {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.form
}

// Submit sends f. The instance keeps the resulting form unless it was
// closed in the meantime.
func (in *FormInstance) Submit(ctx context.Context, f Form) Outcome {
	out := in.submitter.Submit(ctx, f)
	if out.Kind == OutcomeBusy {
		return out
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.form = out.Form
	}
	return out
}

// Close tears the instance down.
func (in *FormInstance) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.loadGen++
}

// Closed reports whether Close has been called.
func (in *FormInstance) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

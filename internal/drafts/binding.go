package drafts

// Binding ties one mounted form to its draft key, so each form does not
// re-implement the mount/edit/submit/unmount contract.
type Binding struct {
	store *Store
	key   string
	opts  ChangeOptions
}

// Bind returns a Binding for key. The key must be stable for the logical
// form instance, for example "new_task_draft" or "note_draft_<id>".
func (s *Store) Bind(key string, opts ChangeOptions) *Binding {
	return &Binding{store: s, key: key, opts: opts}
}

// Key returns the bound draft key.
func (b *Binding) Key() string { return b.key }

// Restore loads the saved payload at mount.
func (b *Binding) Restore() (Payload, bool) {
	entry, ok := b.store.LoadDraft(b.key)
	return entry.Payload, ok
}

// Change records the form's full current state after an edit.
func (b *Binding) Change(p Payload) error {
	return b.store.RecordChange(b.key, p, b.opts)
}

// Status returns the autosave state for the indicator.
func (b *Binding) Status() Status { return b.store.Status(b.key) }

// Submitted clears the draft after the form's data was stored for real.
func (b *Binding) Submitted() error { return b.store.ClearDraft(b.key) }

// Discard clears the draft on explicit user request.
func (b *Binding) Discard() error { return b.store.ClearDraft(b.key) }

// Unmount cancels any pending write. The saved draft, if any, stays.
func (b *Binding) Unmount() { b.store.Cancel(b.key) }

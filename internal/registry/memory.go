package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

// Memory is an in-process Registry. It reproduces the host's volatile
// identity semantics: ids are small integers and removed ids are reused
// by later creations, which is exactly the hazard the reconciler has to
// absorb.
type Memory struct {
	mu       sync.Mutex
	docs     map[types.DocumentID]*types.Document
	activeID types.DocumentID
	nextID   types.DocumentID
	freed    []types.DocumentID
	subs     map[int]func(Event)
	nextSub  int
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		docs:   make(map[types.DocumentID]*types.Document),
		nextID: 1,
		subs:   make(map[int]func(Event)),
	}
}

// List returns all open documents ordered by id.
func (m *Memory) List(ctx context.Context) ([]types.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	docs := make([]types.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, *doc)
	}
	m.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Create opens a new document, reusing the lowest freed id when one exists.
func (m *Memory) Create(ctx context.Context, url string, active bool) (types.Document, error) {
	if err := ctx.Err(); err != nil {
		return types.Document{}, err
	}

	m.mu.Lock()
	var id types.DocumentID
	if len(m.freed) > 0 {
		id = m.freed[0]
		m.freed = m.freed[1:]
	} else {
		id = m.nextID
		m.nextID++
	}

	doc := &types.Document{ID: id, URL: url, Title: url, Favicon: ""}
	m.docs[id] = doc

	var events []Event
	if active {
		m.activeLocked(id, &events)
	}
	created := *doc
	events = append([]Event{{Type: EventCreated, ID: id, Document: created}}, events...)
	m.mu.Unlock()

	m.dispatch(events)
	return created, nil
}

// Remove closes a document and recycles its id.
func (m *Memory) Remove(ctx context.Context, id types.DocumentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return ErrNoSuchDocument
	}
	delete(m.docs, id)
	m.freed = append(m.freed, id)
	sort.Slice(m.freed, func(i, j int) bool { return m.freed[i] < m.freed[j] })
	if m.activeID == id {
		m.activeID = 0
	}
	m.mu.Unlock()

	m.dispatch([]Event{{Type: EventRemoved, ID: id}})
	return nil
}

// Activate makes a document the active one.
func (m *Memory) Activate(ctx context.Context, id types.DocumentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.docs[id]; !ok {
		m.mu.Unlock()
		return ErrNoSuchDocument
	}
	var events []Event
	m.activeLocked(id, &events)
	m.mu.Unlock()

	m.dispatch(events)
	return nil
}

// Get fetches one document by id.
func (m *Memory) Get(ctx context.Context, id types.DocumentID) (types.Document, error) {
	if err := ctx.Err(); err != nil {
		return types.Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return types.Document{}, ErrNoSuchDocument
	}
	return *doc, nil
}

// Navigate simulates user navigation: url and title change, identity
// does not.
func (m *Memory) Navigate(ctx context.Context, id types.DocumentID, url, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	doc, ok := m.docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNoSuchDocument
	}
	doc.URL = url
	doc.Title = title
	updated := *doc
	m.mu.Unlock()

	m.dispatch([]Event{{Type: EventUpdated, ID: id, Document: updated}})
	return nil
}

// SetFavicon simulates the host resolving a document's favicon.
func (m *Memory) SetFavicon(ctx context.Context, id types.DocumentID, favicon string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	doc, ok := m.docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNoSuchDocument
	}
	doc.Favicon = favicon
	updated := *doc
	m.mu.Unlock()

	m.dispatch([]Event{{Type: EventUpdated, ID: id, Document: updated}})
	return nil
}

// Subscribe registers an event listener.
func (m *Memory) Subscribe(handler func(Event)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = handler
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// activeLocked flips the active document. Caller holds mu.
func (m *Memory) activeLocked(id types.DocumentID, events *[]Event) {
	if m.activeID == id {
		return
	}
	if prev, ok := m.docs[m.activeID]; ok {
		prev.Active = false
	}
	doc := m.docs[id]
	doc.Active = true
	m.activeID = id
	*events = append(*events, Event{Type: EventActivated, ID: id, Document: *doc})
}

// dispatch runs handlers outside the registry lock so they can call back
// into the registry.
func (m *Memory) dispatch(events []Event) {
	m.mu.Lock()
	handlers := make([]func(Event), 0, len(m.subs))
	for _, h := range m.subs {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, event := range events {
		for _, h := range handlers {
			h(event)
		}
	}
}

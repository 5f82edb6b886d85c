package kioto

import (
	"context"
	"reflect"
	"sync"

	"github.com/streamspace-dev/kioto/kerr"
	"github.com/streamspace-dev/kioto/klog"
)

// Store is the registry of every committed Item, keyed by commit id,
// with two lookup indexes over Name: byPath (the canonical
// "package/version/module/plugin" key, always pointing at the most
// recent registration) and byAddress (a full "path/commit" string,
// immutable once set, since a given commit id never changes identity).
//
// Store also owns the Repo (the commit journal), the Broker (the
// one-slot message inbox), and the root CancelToken whose cancellation
// aborts every in-flight Work across the Store (spec.md §5).
type Store struct {
	mu sync.RWMutex

	repo   *Repo
	broker *Broker
	items  map[CommitID]*Item

	byPath    map[string]CommitID
	byAddress map[string]CommitID
	seqByPath map[string]int

	root              CancelToken
	runtime           *Runtime
	disallowConflicts bool

	closeOnce sync.Once
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithWorkers bounds the Store's Runtime to n concurrent tasks.
func WithWorkers(n int) StoreOption {
	return func(s *Store) { s.runtime = NewRuntime(n) }
}

// WithDisallowCommitConflicts makes Put.Commit fail with
// KindCommitConflict instead of silently letting a later registration
// shadow an earlier one at the same Name path (see DESIGN.md's
// resolution of the commit-conflict-policy Open Question).
func WithDisallowCommitConflicts(v bool) StoreOption {
	return func(s *Store) { s.disallowConflicts = v }
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		repo:      NewRepo(),
		broker:    NewBroker(),
		items:     make(map[CommitID]*Item),
		byPath:    make(map[string]CommitID),
		byAddress: make(map[string]CommitID),
		seqByPath: make(map[string]int),
		runtime:   NewRuntime(0),
	}
	s.root = NewCancelToken(context.Background())
	for _, o := range opts {
		o(s)
	}
	return s
}

// Broker returns the Store's message broker.
func (s *Store) Broker() *Broker {
	return s.broker
}

// Repo returns the Store's commit journal.
func (s *Store) Repo() *Repo {
	return s.repo
}

// Runtime returns the Store's worker pool.
func (s *Store) Runtime() *Runtime {
	return s.runtime
}

// RootToken returns the Store's root CancelToken. Cancelling it aborts
// every Work spawned from any Call resolved through this Store.
func (s *Store) RootToken() CancelToken {
	return s.root
}

func (s *Store) itemByCommit(commit CommitID) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[commit]
	return it, ok
}

// Item resolves a commit id to its Item.
func (s *Store) Item(commit CommitID) (*Item, bool) {
	return s.itemByCommit(commit)
}

func (s *Store) nameOf(item *Item) Name {
	n, _ := Attr[Name](s, item)
	return n
}

func (s *Store) thunkOf(item *Item) (Thunk, bool) {
	return Attr[Thunk](s, item)
}

// FindPlugin resolves path to an Address. If path matches a previously
// issued full Address string, that exact registration is returned
// (stable even if later registrations shadow the same Name path). Else
// path is treated as a Name path and resolved to the most recent
// registration at that path.
func (s *Store) FindPlugin(path string) (Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if commit, ok := s.byAddress[path]; ok {
		if item, ok := s.items[commit]; ok {
			return Address{Name: s.nameOf(item), Commit: commit}, true
		}
	}
	if commit, ok := s.byPath[path]; ok {
		if item, ok := s.items[commit]; ok {
			return Address{Name: s.nameOf(item), Commit: commit}, true
		}
	}
	return Address{}, false
}

// Addresses returns the Address of every currently registered Item.
func (s *Store) Addresses() []Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Address, 0, len(s.items))
	for commit, item := range s.items {
		out = append(out, Address{Name: s.nameOf(item), Commit: commit})
	}
	return out
}

// Close cancels the Store's root token, aborting every in-flight Work.
// Idempotent: subsequent calls are no-ops.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		klog.Store().Info().Msg("store closing, cancelling root token")
		s.root.Cancel()
	})
}

// Event resolves path to its Address and returns a fresh Event bound to
// a new child Call over the Store's root token.
func (s *Store) Event(path string) (*Event, error) {
	addr, ok := s.FindPlugin(path)
	if !ok {
		return nil, kerr.PluginNotFound(path)
	}
	item, ok := s.itemByCommit(addr.Commit)
	if !ok {
		return nil, kerr.PluginNotFound(path)
	}
	thunk, ok := s.thunkOf(item)
	if !ok {
		return nil, kerr.LoadPluginError("missing Thunk attribute for " + path)
	}

	call := &Call{store: s, item: item, forkFn: thunk.ForkFn, token: s.root.Child(), runtime: s.runtime}
	return newEvent(addr, call, thunk), nil
}

// Call resolves path and runs its Event to completion, returning the
// plugin's (or handler's) terminal Message.
func (s *Store) Call(ctx context.Context, path string) (Message, error) {
	e, err := s.Event(path)
	if err != nil {
		return Message{}, err
	}
	return e.Start(ctx)
}

// Spawn resolves path and starts its Event on the Store's Runtime
// without waiting for it, returning the resulting Work and the
// CancelToken governing it.
func (s *Store) Spawn(path string) (*Work, CancelToken, error) {
	e, err := s.Event(path)
	if err != nil {
		return nil, CancelToken{}, err
	}
	token := e.call.token
	work := s.runtime.Spawn(token, func(ctx context.Context) (Message, error) {
		return e.Start(ctx)
	})
	return work, token, nil
}

// Put begins the registration builder for resource. Chain Attr/Label/Ident
// calls and finish with Commit.
func (s *Store) Put(resource Plugin) *Put {
	return &Put{store: s, resource: resource, attrs: make(map[reflect.Type]any)}
}

// Load is a convenience for the common case of registering a plugin
// with no extra attributes or labels: Put(resource).Commit().
func (s *Store) Load(resource Plugin) (Address, error) {
	return s.Put(resource).Commit()
}

// Put is the chainable registration builder described in spec.md §4.2.
type Put struct {
	store         *Store
	resource      Plugin
	handler       *Handler
	handlerTarget reflect.Type
	attrs         map[reflect.Type]any
	labels        Labels
	ident         string
}

// Attr attaches an additional representation as a lookup-by-type
// attribute on the Item being built.
func (p *Put) Attr(repr any) *Put {
	p.attrs[reflect.TypeOf(repr)] = repr
	return p
}

// Label appends a key/value pair to the Item's Labels attribute.
func (p *Put) Label(key, value string) *Put {
	p.labels = append(p.labels, LabelPair{Key: key, Value: value})
	return p
}

// Ident supplies an explicit identifier contribution to the commit id,
// on top of the resource's Name path (which is always included). Two
// Put calls with the same resource type, the same Name, the same Ident
// and the same content produce the same commit id.
func (p *Put) Ident(id string) *Put {
	p.ident = id
	return p
}

// AsHandler marks the resource being registered as a Handler observing
// target's concrete type, attaching a HandlerThunk alongside the usual
// Thunk. LoadHandler is the typed convenience wrapper over this.
func (p *Put) AsHandler(handler Handler, target reflect.Type) *Put {
	h := handler
	p.handler = &h
	p.handlerTarget = target
	return p
}

// Commit finalizes registration: derives the resource's mechanical
// Thunk, folds its Name path, Ident, and content into a commit id,
// stores the resulting Item, and updates the Store's lookup indexes.
func (p *Put) Commit() (Address, error) {
	store := p.store
	resource := p.resource
	name := resource.PluginName()

	callFn := CallFn(func(ctx context.Context, c *Call) (*Work, error) {
		return resource.Call(ctx, c)
	})
	forkFn := ForkFn(func(item *Item) (*Item, error) {
		forked, err := item.Value().Fork()
		if err != nil {
			return nil, err
		}
		return &Item{
			value:    forked,
			typ:      reflect.TypeOf(forked),
			commit:   item.commit,
			attrs:    item.attrs,
			sequence: item.sequence,
		}, nil
	})
	thunk := Thunk{Name: name, CallFn: callFn, ForkFn: forkFn}

	effectiveIdent := name.Path()
	if p.ident != "" {
		effectiveIdent += "|" + p.ident
	}

	_, commitID := store.repo.Commit(resource).Ident(effectiveIdent).DigestRepr().Finish()

	item := newItem(resource, commitID, 0)

	_, nameCommit := store.repo.Commit(name).Ident(effectiveIdent + "#name").Finish()
	item.attrs[reflect.TypeOf(Name{})] = nameCommit

	_, thunkCommit := store.repo.Commit(thunk).Ident(effectiveIdent + "#thunk").Finish()
	item.attrs[reflect.TypeOf(Thunk{})] = thunkCommit

	if len(p.labels) > 0 {
		_, labelsCommit := store.repo.Commit(p.labels).Ident(effectiveIdent + "#labels").DigestRepr().Finish()
		item.attrs[reflect.TypeOf(Labels{})] = labelsCommit
	}

	if p.handler != nil {
		ht := HandlerThunk{
			Thunk: Thunk{
				Name: name,
				CallFn: CallFn(func(ctx context.Context, c *Call) (*Work, error) {
					return (*p.handler).Call(ctx, c)
				}),
				ForkFn: forkFn,
			},
			Target: p.handlerTarget,
			Wrap:   defaultWrap,
		}
		_, hCommit := store.repo.Commit(ht).Ident(effectiveIdent + "#handler").Finish()
		item.attrs[reflect.TypeOf(HandlerThunk{})] = hCommit
	}

	for t, v := range p.attrs {
		_, c := store.repo.Commit(v).Ident(effectiveIdent + "#" + t.String()).Finish()
		item.attrs[t] = c
	}

	addr := Address{Name: name, Commit: commitID}
	fullAddr := addr.String()

	store.mu.Lock()
	defer store.mu.Unlock()

	path := name.Path()
	if existing, ok := store.byPath[path]; ok && store.disallowConflicts && existing != commitID {
		return Address{}, kerr.CommitConflict(path)
	}

	item.sequence = store.seqByPath[path]
	store.seqByPath[path]++

	store.items[commitID] = item
	store.byPath[path] = commitID
	if _, exists := store.byAddress[fullAddr]; !exists {
		store.byAddress[fullAddr] = commitID
	}

	klog.Store().Debug().
		Str("name", name.FullRef()).
		Str("address", fullAddr).
		Int("sequence", item.sequence).
		Msg("registered plugin")

	return addr, nil
}

// LoadHandler registers handler as observing plugins of concrete type T.
func LoadHandler[T Plugin](s *Store, handler Handler) (Address, error) {
	var zero T
	target := reflect.TypeOf(zero)
	return s.Put(handler).AsHandler(handler, target).Commit()
}

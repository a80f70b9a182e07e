package storage

// Provider owns every scoped storage of one partition. It is not
// safe for concurrent use; callers serialize access through the
// partition lock.
type Provider struct {
	storages map[storageKey]any
	scopeIds map[ScopeKey]map[string]struct{}
	backend  Backend
}

type storageKey struct {
	scope ScopeKey
	id    string
}

// NewProvider returns an in-memory provider. A non-nil backend makes
// every storage mutation write through to it, keyed by
// (scope, storage id), and repopulates storages on first access after
// a restart.
func NewProvider(backend Backend) *Provider {
	return &Provider{
		storages: map[storageKey]any{},
		scopeIds: map[ScopeKey]map[string]struct{}{},
		backend:  backend,
	}
}

func (p *Provider) Scope(scope ScopeKey) Scoped {
	return &scoped{provider: p, scope: scope}
}

// DropScope releases every storage registered under the scope, both in
// memory and in the backend.
func (p *Provider) DropScope(scope ScopeKey) {
	for id := range p.scopeIds[scope] {
		delete(p.storages, storageKey{scope: scope, id: id})
	}
	delete(p.scopeIds, scope)
	if p.backend != nil {
		if err := p.backend.DropScope(scope.String()); err != nil {
			panic(err)
		}
	}
}

// Empty reports whether no storage is live, used by drain tests.
func (p *Provider) Empty() bool {
	return len(p.storages) == 0
}

type scoped struct {
	provider *Provider
	scope    ScopeKey
}

func (s *scoped) load(id string) (any, bool) {
	loaded, ok := s.provider.storages[storageKey{scope: s.scope, id: id}]
	return loaded, ok
}

func (s *scoped) store(id string, storageV any) {
	s.provider.storages[storageKey{scope: s.scope, id: id}] = storageV
	ids, ok := s.provider.scopeIds[s.scope]
	if !ok {
		ids = map[string]struct{}{}
		s.provider.scopeIds[s.scope] = ids
	}
	ids[id] = struct{}{}
}

func (s *scoped) persist(id string, payload []byte) {
	if s.provider.backend == nil {
		return
	}
	if err := s.provider.backend.Put(s.scope.String(), id, payload); err != nil {
		panic(err)
	}
}

func (s *scoped) remove(id string) {
	if s.provider.backend == nil {
		return
	}
	if err := s.provider.backend.Delete(s.scope.String(), id); err != nil {
		panic(err)
	}
}

func (s *scoped) fetch(id string) ([]byte, bool) {
	if s.provider.backend == nil {
		return nil, false
	}
	payload, ok, err := s.provider.backend.Get(s.scope.String(), id)
	if err != nil {
		panic(err)
	}
	return payload, ok
}

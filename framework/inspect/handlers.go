package inspect

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/scope"
)

// Binding is one row of GET /bindings.
type Binding struct {
	Declared  string   `json:"declared"`
	Impl      string   `json:"impl"`
	Name      string   `json:"name,omitempty"`
	Scope     string   `json:"scope"`
	ScopeName string   `json:"scope_name"`
	Instance  bool     `json:"instance"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Scope is one row of GET /scopes.
type Scope struct {
	ID       string `json:"id"`
	Policy   string `json:"policy"`
	Store    string `json:"store,omitempty"`
	Realized bool   `json:"realized"`
}

// Matcher is one row of GET /matchers.
type Matcher struct {
	Matcher      string   `json:"matcher"`
	Super        string   `json:"super,omitempty"`
	Interceptors []string `json:"interceptors"`
}

// CacheEntry is one row of GET /matcher-cache.
type CacheEntry struct {
	Definition string `json:"definition"`
	Matcher    string `json:"matcher"`
}

type handlers struct {
	c *container.Container
}

func (h *handlers) bindings(w http.ResponseWriter, _ *http.Request) {
	infos := h.c.Bindings()
	out := make([]Binding, len(infos))
	for i, b := range infos {
		out[i] = Binding{
			Declared:  b.Declared.String(),
			Impl:      b.Impl.String(),
			Name:      b.Name,
			Scope:     b.Scope,
			ScopeName: b.ScopeName.String(),
			Instance:  b.Instance,
			Aliases:   b.Aliases,
		}
	}
	newResponse(w).success(out)
}

func (h *handlers) scopes(w http.ResponseWriter, _ *http.Request) {
	reg := h.c.Scopes()
	var out []Scope
	for _, s := range reg.Scopes() {
		row := Scope{ID: s.ID, Policy: s.Policy.String(), Realized: reg.Realized(s.ID)}
		switch ref := s.StoreRef.(type) {
		case nil:
		case scope.Store:
			row.Store = fmt.Sprintf("%T", ref)
		default:
			row.Store = fmt.Sprint(ref)
		}
		out = append(out, row)
	}
	newResponse(w).success(out)
}

func (h *handlers) matchers(w http.ResponseWriter, _ *http.Request) {
	bs := h.c.Interceptors().Registry().Bindings()
	out := make([]Matcher, len(bs))
	for i, b := range bs {
		row := Matcher{Matcher: b.Matcher.String(), Interceptors: make([]string, len(b.Handles))}
		if sup := b.Matcher.Super(); sup != nil {
			row.Super = sup.String()
		}
		for j, hd := range b.Handles {
			row.Interceptors[j] = hd.String()
		}
		out[i] = row
	}
	newResponse(w).success(out)
}

func (h *handlers) matcherCache(w http.ResponseWriter, _ *http.Request) {
	entries := h.c.MatcherCache().Entries()
	out := make([]CacheEntry, len(entries))
	for i, e := range entries {
		out[i] = CacheEntry{Definition: e.Definition.ID(), Matcher: e.Matcher.String()}
	}
	newResponse(w).success(out)
}

func (h *handlers) canonical(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	name, err := h.c.CanonicalizeRegistered(container.ByName(alias))
	if err != nil {
		var unresolved *container.UnresolvedReferenceError
		if errors.As(err, &unresolved) {
			newResponse(w).notFound(err.Error())
			return
		}
		newResponse(w).error(http.StatusInternalServerError, err.Error())
		return
	}
	newResponse(w).success(map[string]string{"alias": alias, "scope_name": name.String()})
}

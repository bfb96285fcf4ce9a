package zrui

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/inkterm/zrui/pkg/commit"
)

var errRouterNotConfigured = errors.New("zrui: ReplaceRoutes was never called")

func errRouteNotFound(name string) error {
	return fmt.Errorf("zrui: no route named %q", name)
}

// Route binds a name to the component it mounts and the props passed to
// it, the unit ReplaceRoutes and Navigate operate on.
type Route struct {
	Name      string
	Component commit.ComponentFunc
	Props     any
}

// routeTable holds the named screens an App can navigate between. It is
// intentionally minimal: a name-keyed map and a current selection,
// leaving history/back-stack semantics to the caller.
type routeTable struct {
	routes  map[string]Route
	current string
}

// ReplaceRoutes installs a new set of named routes and switches the app
// to the one named initial, mounting it fresh. Any route name not in
// routes becomes unreachable until a future ReplaceRoutes call restores
// it.
func (a *App) ReplaceRoutes(routes []Route, initial string) error {
	table := &routeTable{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		table.routes[r.Name] = r
	}
	a.routes = table
	return a.Navigate(initial)
}

// Navigate switches the mounted view to the named route, returning an
// error if no route table was installed or the name is unknown. Like
// ReplaceView, this discards the previous reconciliation tree so the
// new route mounts without inheriting unrelated component state.
func (a *App) Navigate(name string) error {
	if a.routes == nil {
		return errRouterNotConfigured
	}
	r, ok := a.routes.routes[name]
	if !ok {
		return errRouteNotFound(name)
	}
	a.routes.current = name
	a.ReplaceView(r.Component, r.Props)
	return nil
}

// CurrentRoute returns the name of the currently mounted route, or ""
// if no route table was installed or ReplaceRoutes has not been called.
func (a *App) CurrentRoute() string {
	if a.routes == nil {
		return ""
	}
	return a.routes.current
}

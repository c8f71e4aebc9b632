// Package app composes web modules into the root handler.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/requestctx"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/sessioncookie"
	"github.com/prereview/prereview/internal/services/web/routepath"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	PublicModules       []module.Module
	ProtectedModules    []module.Module
	RequestSchemePolicy requestmeta.SchemePolicy
	// NotFound answers requests no module claims.
	NotFound http.Handler
}

// Compose builds a root HTTP handler from module groups. Protected routes
// send anonymous visitors to log in; every mutation made with a session
// cookie must prove it came from this origin.
func Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	seen := make(map[string]string)

	for _, feature := range input.PublicModules {
		if feature == nil {
			return nil, fmt.Errorf("public module is nil")
		}
		if err := mountModule(root, feature, seen, nil); err != nil {
			return nil, err
		}
	}
	for _, feature := range input.ProtectedModules {
		if feature == nil {
			return nil, fmt.Errorf("protected module is nil")
		}
		if err := mountModule(root, feature, seen, requireAuth); err != nil {
			return nil, err
		}
	}
	if input.NotFound != nil {
		if _, ok := seen["/"]; !ok {
			root.Handle("/", input.NotFound)
		}
	}
	return requireCookieSessionSameOrigin(input.RequestSchemePolicy)(root), nil
}

func mountModule(root *http.ServeMux, feature module.Module, seen map[string]string, wrap httpx.Middleware) error {
	mount, err := feature.Mount()
	if err != nil {
		return fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	if len(mount.Routes) == 0 {
		return fmt.Errorf("mount module %q: no routes", feature.ID())
	}
	for _, route := range mount.Routes {
		pattern := strings.TrimSpace(route.Pattern)
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("mount module %q has invalid pattern %q: %w", feature.ID(), route.Pattern, err)
		}
		if route.Handler == nil {
			return fmt.Errorf("mount module %q: handler for %q is required", feature.ID(), pattern)
		}
		if previous, ok := seen[pattern]; ok {
			return fmt.Errorf("module %q duplicates pattern %q owned by module %q", feature.ID(), pattern, previous)
		}
		seen[pattern] = feature.ID()
		handler := route.Handler
		if wrap != nil {
			handler = wrap(handler)
		}
		root.Handle(pattern, handler)
	}
	return nil
}

func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	path := pattern
	if method, rest, ok := strings.Cut(pattern, " "); ok {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
		default:
			return fmt.Errorf("unsupported method %q", method)
		}
		path = strings.TrimSpace(rest)
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must begin with /")
	}
	return nil
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestctx.UserFrom(r.Context()); !ok {
			httpx.WriteRedirect(w, r, routepath.LogInReturning(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireCookieSessionSameOrigin(policy requestmeta.SchemePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httpx.IsMutation(r) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := sessioncookie.Read(r); !ok {
				next.ServeHTTP(w, r)
				return
			}
			if !requestmeta.HasSameOriginProof(r, policy) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

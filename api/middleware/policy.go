package middleware

import (
	"net/http"
	"strings"

	"github.com/avelarde/comanda-backend/api/responses"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
	"github.com/avelarde/comanda-backend/pkg/logger"
)

// Rule grants a set of roles access to the routes matching a pattern.
// Patterns are slash-separated; "{...}" segments match any single path
// segment and a trailing "*" matches the rest of the path. An empty
// Methods list applies the rule to every method.
type Rule struct {
	Pattern string
	Methods []string
	Roles   []string
}

// Policy is an ordered rule table. The first matching rule wins, so more
// specific patterns must appear before broader ones.
type Policy struct {
	rules []Rule
}

func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// RolesFor returns the roles allowed for the given method and path, and
// whether any rule matched at all.
func (p *Policy) RolesFor(method, path string) ([]string, bool) {
	for _, rule := range p.rules {
		if !methodMatches(rule.Methods, method) {
			continue
		}
		if patternMatches(rule.Pattern, path) {
			return rule.Roles, true
		}
	}
	return nil, false
}

// Allow reports whether the role may call method+path. Paths with no
// matching rule are denied; authorization is opt-in per route.
func (p *Policy) Allow(method, path, role string) bool {
	roles, ok := p.RolesFor(method, path)
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Enforce rejects requests whose context role is not allowed by the table.
// It must run after Auth so the role is present.
func (p *Policy) Enforce(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if !p.Allow(r.Method, r.URL.Path, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func methodMatches(methods []string, method string) bool {
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

func patternMatches(pattern, path string) bool {
	patSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	for i, seg := range patSegs {
		if seg == "*" {
			return true
		}
		if i >= len(pathSegs) {
			return false
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}
	return len(patSegs) == len(pathSegs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

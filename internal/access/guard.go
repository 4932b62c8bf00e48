package access

import (
	"strings"

	"coachgest-backend/internal/models"
)

// Decision is the outcome of evaluating a route guard.
type Decision int

const (
	// Suspend means the identity is still loading; render nothing yet.
	Suspend Decision = iota
	Allowed
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Suspend:
		return "suspend"
	case Allowed:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	}
	return "unknown"
}

// MarshalText encodes the decision by name in JSON responses.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

const LoginPath = "/login"

// Session is the per-request view of who is calling.
// Identity is nil when the caller is not authenticated.
type Session struct {
	Identity *models.User
	Loading  bool
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return !s.Loading && s.Identity != nil
}

// Allow decides whether session may enter a route restricted to requiredRoles.
// An empty requiredRoles admits any authenticated identity.
func Allow(session Session, requiredRoles []models.Role) Decision {
	if session.Loading {
		return Suspend
	}
	if session.Identity == nil {
		return RedirectToLogin
	}
	if len(requiredRoles) == 0 {
		return Allowed
	}
	for _, r := range requiredRoles {
		if session.Identity.Role == r {
			return Allowed
		}
	}
	return RedirectToHome
}

var homes = map[models.Role]string{
	models.RoleSuperAdmin: "/admin",
	models.RoleCoach:      "/coach",
	models.RoleSubcoach:   "/subcoach",
	models.RoleCoachee:    "/coachee",
}

// HomeFor returns the landing route of role, or the login page for unknown roles.
func HomeFor(role models.Role) string {
	if home, ok := homes[role]; ok {
		return home
	}
	return LoginPath
}

// Target resolves the path a decision sends the session to. Allowed and Suspend stay on path.
func Target(d Decision, session Session, path string) string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToHome:
		return HomeFor(session.Identity.Role)
	}
	return path
}

// Route is one client-side route. Public routes skip the guard.
type Route struct {
	Pattern    string        `json:"pattern"`
	Public     bool          `json:"public,omitempty"`
	RedirectTo string        `json:"redirectTo,omitempty"`
	Roles      []models.Role `json:"roles,omitempty"`
}

var (
	superAdminOnly = []models.Role{models.RoleSuperAdmin}
	coachOnly      = []models.Role{models.RoleCoach}
	subcoachOnly   = []models.Role{models.RoleSubcoach}
	coacheeOnly    = []models.Role{models.RoleCoachee}
)

// Routes is the client route table.
var Routes = []Route{
	{Pattern: "/", RedirectTo: LoginPath},
	{Pattern: "/login", Public: true},
	{Pattern: "/admin/login", Public: true},
	{Pattern: "/register", Public: true},

	{Pattern: "/admin", Roles: superAdminOnly},
	{Pattern: "/admin/coaches", Roles: superAdminOnly},
	{Pattern: "/admin/coaches/:id", Roles: superAdminOnly},
	{Pattern: "/admin/settings/subscriptions", Roles: superAdminOnly},
	{Pattern: "/admin/settings/stripe", Roles: superAdminOnly},
	{Pattern: "/admin/settings/stripe/callback", Roles: superAdminOnly},

	{Pattern: "/coach", Roles: coachOnly},
	{Pattern: "/coach/team", Roles: coachOnly},
	{Pattern: "/coach/coachees", Roles: coachOnly},
	{Pattern: "/coach/calendar", Roles: coachOnly},
	{Pattern: "/coach/reports", Roles: coachOnly},
	{Pattern: "/coach/profile", Roles: coachOnly},
	{Pattern: "/coach/profile/billing", Roles: coachOnly},
	{Pattern: "/coach/subscription", Roles: coachOnly},
	{Pattern: "/coach/subscription/transactions", Roles: coachOnly},

	{Pattern: "/subcoach", Roles: subcoachOnly},
	{Pattern: "/subcoach/coachees", Roles: subcoachOnly},

	{Pattern: "/coachee", Roles: coacheeOnly},
	{Pattern: "/coachee/goals", Roles: coacheeOnly},
	{Pattern: "/coachee/sessions", Roles: coacheeOnly},
	{Pattern: "/coachee/assessments", Roles: coacheeOnly},
}

// MatchRoute finds the route for path. Segments starting with ':' match any single segment.
func MatchRoute(path string) (Route, bool) {
	segs := splitPath(path)
	for _, r := range Routes {
		if matchSegments(splitPath(r.Pattern), segs) {
			return r, true
		}
	}
	return Route{}, false
}

// Result is the evaluated guard for one path.
type Result struct {
	Path     string   `json:"path"`
	Decision Decision `json:"decision"`
	Target   string   `json:"target"`
}

// Evaluate runs the guard for path. Unknown paths send the caller to its home route
// (or to login when unauthenticated).
func Evaluate(session Session, path string) Result {
	route, ok := MatchRoute(path)
	switch {
	case !ok:
		d := Allow(session, nil)
		if d == Allowed {
			d = RedirectToHome
		}
		return Result{Path: path, Decision: d, Target: Target(d, session, path)}
	case route.RedirectTo != "":
		return Result{Path: path, Decision: RedirectToLogin, Target: route.RedirectTo}
	case route.Public:
		return Result{Path: path, Decision: Allowed, Target: path}
	}
	d := Allow(session, route.Roles)
	return Result{Path: path, Decision: d, Target: Target(d, session, path)}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, s := range pattern {
		if strings.HasPrefix(s, ":") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if s != segs[i] {
			return false
		}
	}
	return true
}

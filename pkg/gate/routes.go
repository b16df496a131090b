package gate

import "github.com/NicolasHaas/gowallet/pkg/model"

// Route names a view.
type Route string

const (
	RouteLanding        Route = "/"
	RouteLogin          Route = "/login"
	RouteRegister       Route = "/register"
	RouteDashboard      Route = "/dashboard"
	RouteAdminDashboard Route = "/admin-dashboard"
	RouteAdminTopUp     Route = "/admin-topup"
	RouteTransactions   Route = "/transactions"
	RouteWallet         Route = "/wallet"
	RouteProfile        Route = "/profile"
)

// accessMatrix maps protected routes to the roles allowed to see them.
// Routes absent from the matrix are public.
var accessMatrix = map[Route][]model.Role{
	RouteDashboard:      {model.RoleUser},
	RouteAdminDashboard: {model.RoleAdmin},
	RouteAdminTopUp:     {model.RoleAdmin},
	RouteTransactions:   {model.RoleUser, model.RoleAdmin},
	RouteWallet:         {model.RoleUser, model.RoleAdmin},
	RouteProfile:        {model.RoleUser, model.RoleAdmin},
}

// Protected returns the roles allowed on route and whether the route is gated at all.
func Protected(route Route) ([]model.Role, bool) {
	roles, ok := accessMatrix[route]
	return roles, ok
}

// HomeFor returns the landing view of a role.
func HomeFor(role model.Role) Route {
	if role == model.RoleAdmin {
		return RouteAdminDashboard
	}
	return RouteDashboard
}

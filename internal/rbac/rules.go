package rbac

const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

const (
	PermResultsList   = "results:list"
	PermResultsView   = "results:view"
	PermResultsExport = "results:export"
	PermResultsWrite  = "results:write"
	PermEventsView    = "events:view"
)

// RolePermissions is the default policy for the admin surface.
var RolePermissions = map[string][]string{
	RoleAnalyst: {
		PermResultsList,
		PermResultsView,
		PermResultsExport,
	},
	RoleAdmin: {
		"*", // everything
	},
}

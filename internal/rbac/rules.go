package rbac

// Default policy. Students see and submit their own work; teachers run the
// grader and exports on top of that.
var RolePermissions = map[string][]string{
	"student": {
		"submission:create",
		"submission:view-own",
		"report:view-own",
	},
	"teacher": {
		"submission:create",
		"submission:view-all",
		"grade:run",
		"grade:override",
		"problemset:edit",
		"problem:edit",
		"roster:sync",
		"report:view-all",
		"report:export",
		"students:list",
	},
	"admin": {
		"*", // everything
	},
}

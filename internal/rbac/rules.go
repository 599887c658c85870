package rbac

// Default policy. Roles mirror the platform's user model; permissions are
// "<entity>:<verb>" with wildcard suffix support in the checker.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"paper:view",
		"attempt:create",
		"submission:create",
		"submission:view-own",
	},
	"teacher": {
		"quiz:view",
		"quiz:create",
		"quiz:edit",
		"paper:view",
		"submission:view-all",
		"submission:grade",
		"submission:return",
	},
	"content_author": {
		"question:create",
		"question:edit",
		"question:delete",
		"question:view",
		"paper:create",
		"paper:edit",
		"paper:view",
		"paper:submit_review",
	},
	"reviewer": {
		"question:view",
		"paper:view",
		"paper:review",
	},
	"admin": {
		"*", // everything
	},
}

package server

import "github.com/jrsteele09/dayflow/guard"

// Route path constants
const (
	RouteIndex          = "/"
	RouteLogin          = guard.LoginPath
	RouteSignup         = "/signup"
	RouteLogout         = "/logout"
	RouteChangePassword = guard.ChangePasswordPath

	// API Routes
	RouteAPIValidatePassword = "/api/validate-password"

	// HR Routes
	RouteHRDashboard   = guard.HRHomePath
	RouteHRAttendance  = "/hr/attendance"
	RouteHRProfile     = "/hr/profile"
	RouteHREmployee    = "/hr/employees/{id}"
	RouteHRLeaveReview = "/hr/leave/{id}/review"

	// Employee Routes
	RouteEmployeeDashboard   = guard.EmployeeHomePath
	RouteEmployeeAttendance  = "/employee/attendance"
	RouteEmployeeProfile     = "/employee/profile"
	RouteEmployeeCheckIn     = "/employee/check-in"
	RouteEmployeeCheckOut    = "/employee/check-out"
	RouteEmployeeLeave       = "/employee/leave"
	RouteEmployeeLeaveCancel = "/employee/leave/{id}/cancel"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/static/css/{file}"
	RouteStaticJS  = "/static/js/{file}"
)

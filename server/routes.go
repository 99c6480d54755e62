package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/dayflow/users"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	hr := s.Protect(users.RoleHR)
	employee := s.Protect(users.RoleEmployee)
	signedIn := s.Protect()

	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware)...))

	s.RegisterRouteFunc("GET "+RouteSignup, ChainMiddleware(s.SignupPageHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware)...))
	s.RegisterRouteFunc("POST "+RouteSignup, ChainMiddleware(s.SignupSubmissionHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware)...))

	s.RegisterRouteFunc("GET "+RouteChangePassword, ChainMiddleware(s.ChangePasswordPageHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, signedIn)...))
	s.RegisterRouteFunc("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordSubmissionHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, signedIn)...))

	// API routes
	s.RegisterRouteFunc("POST "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))

	// HR
	s.RegisterRouteFunc("GET "+RouteHRDashboard, ChainMiddleware(s.HRDashboardHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))
	s.RegisterRouteFunc("GET "+RouteHRAttendance, ChainMiddleware(s.HRAttendanceHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))
	s.RegisterRouteFunc("GET "+RouteHREmployee, ChainMiddleware(s.EmployeeDetailHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))
	s.RegisterRouteFunc("GET "+RouteHRProfile, ChainMiddleware(s.ProfilePageHandler(RouteHRProfile), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))
	s.RegisterRouteFunc("POST "+RouteHRProfile, ChainMiddleware(s.ProfileUpdateHandler(RouteHRProfile), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))
	s.RegisterRouteFunc("POST "+RouteHRLeaveReview, ChainMiddleware(s.LeaveReviewHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, hr)...))

	// EMPLOYEE
	s.RegisterRouteFunc("GET "+RouteEmployeeDashboard, ChainMiddleware(s.EmployeeDashboardHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("GET "+RouteEmployeeAttendance, ChainMiddleware(s.EmployeeAttendanceHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("GET "+RouteEmployeeProfile, ChainMiddleware(s.ProfilePageHandler(RouteEmployeeProfile), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("POST "+RouteEmployeeProfile, ChainMiddleware(s.ProfileUpdateHandler(RouteEmployeeProfile), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("POST "+RouteEmployeeCheckIn, ChainMiddleware(s.CheckInHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("POST "+RouteEmployeeCheckOut, ChainMiddleware(s.CheckOutHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("POST "+RouteEmployeeLeave, ChainMiddleware(s.LeaveRequestHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))
	s.RegisterRouteFunc("POST "+RouteEmployeeLeaveCancel, ChainMiddleware(s.LeaveCancelHandler(), s.HTMLMiddleWare(s.BrowserSessionMiddleware, employee)...))

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/static/")
		if filePath == "" || filePath == r.URL.Path {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Warn().Msgf("[%s] %s %s", color+paddedMethod+ResetColor, path, Red+error+ResetColor)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteNews is the public news list.
	RouteNews = "/news"
	// RouteStaff is the public staff directory.
	RouteStaff = "/staff"
	// RouteActivities is the public activities list.
	RouteActivities = "/activities"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteRegister is the registration route.
	RouteRegister = "/register"

	// RouteAdmin is the admin panel.
	RouteAdmin = "/admin"
	// RouteAdminKind is the create route of one content kind.
	RouteAdminKind = "/{kind}"
	// RouteAdminKindID is the update route of one row.
	RouteAdminKindID = "/{kind}/{id}"
	// RouteAdminKindIDDelete is the delete route of one row.
	RouteAdminKindIDDelete = "/{kind}/{id}/delete"
	// RouteAdminUpload is the image upload route.
	RouteAdminUpload = "/uploads/{bucket}"

	// RouteStorageObject serves stored objects.
	RouteStorageObject = "/storage/{bucket}/{name}"
)

// Template names.
const (
	TemplateHome       = "public/home"
	TemplateNews       = "public/news"
	TemplateNewsDetail = "public/news_detail"
	TemplateStaff      = "public/staff"
	TemplateActivities = "public/activities"
	TemplateError      = "public/error"
	TemplateAdmin      = "admin/dashboard"
	TemplateLogin      = "auth/login"
	TemplateRegister   = "auth/register"
)

// Pagination and limits.
const (
	// PublicPerPage is the page size of public lists.
	PublicPerPage = 24
	// HomeNewsLimit is how many news items the home page shows.
	HomeNewsLimit = 3
	// HomeUpcomingLimit is how many upcoming activities the home page shows.
	HomeUpcomingLimit = 3
	// AdminPerPage is the page size of an admin tab.
	AdminPerPage = 50
)

// redirectAdminTab returns the admin URL for tab.
func redirectAdminTab(tab string) string {
	return RouteAdmin + "?tab=" + tab
}

package handlers

const (
	MsgUnauthorized        = "Unauthorized. Please log in."
	MsgSessionLookupFailed = "Failed to resolve session"
	MsgRouteNotFound       = "Route not found"
	MsgLoggedOut           = "Logged out successfully"
	MsgLogoutFailed        = "Error logging out"
	MsgDateRange           = "Please provide from and to dates (YYYY-MM-DD)"
	MsgIPOFetchFailed      = "Failed to fetch IPO data"
	MsgSymbolMissing       = "Please provide a company symbol"
	MsgCompanyNotFound     = "Company not found"
	MsgCompanyNameMissing  = "Please provide a company name"
	MsgInvalidLimit        = "limit must be a positive integer"
	MsgFavoritesFailed     = "Failed to fetch favorites"
	MsgAddFailed           = "Failed to add favorite"
	MsgRemoveFailed        = "Failed to remove favorite"
	MsgAddedFavorite       = "Added to favorites"
	MsgRemovedFavorite     = "Removed from favorites"
	MsgStorageUnhealthy    = "Storage unavailable"

	MsgSessionStorageUnhealthy = "Session storage unavailable"
)

package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	Name string
	Role string
}

// NavLink is one entry of the navigation menu.
type NavLink struct {
	Path   string
	Title  string
	Active bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	IsGeneralAdmin  bool
	User            *User
	Nav             []NavLink
}

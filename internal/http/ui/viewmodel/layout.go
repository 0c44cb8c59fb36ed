package viewmodel

// User is the logged-in user as shown in the dashboard header.
type User struct {
	ID        string
	Role      string
	RoleLabel string
	IsAdmin   bool
	// Access lists the grant tokens for regular users.
	Access []string
	// AccessGrant is the grant as stored, shown verbatim.
	AccessGrant string
}

// Layout captures shared chrome metadata (titles, current page, auth flags).
type Layout struct {
	Title           string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}

// Page is the data handed to the layout and the content templates.
// Exactly one of Login, Dashboard or List is set, matching CurrentPage.
type Page struct {
	Layout
	Login     *Login
	Dashboard *Dashboard
	List      *SystemList
	// Poll asks the client to refresh the content while a fetch is in flight.
	Poll bool
}

// LayoutData implements LayoutProvider.
func (p *Page) LayoutData() *Layout { return &p.Layout }

package viewmodel

// Login is the login form state.
type Login struct {
	UserID       string
	ErrorMessage string
}

// Dashboard is the landing screen after login.
type Dashboard struct {
	Loading       bool
	CompleteCount int
	RunningCount  int
	// ShowRunning is true for admins only.
	ShowRunning bool
}

// SystemRow is one line of a systems list.
type SystemRow struct {
	Ordinal   int
	Name      string
	AppLink   string
	SheetLink string
	Status    string
	Remarks   string
}

// SystemList is the complete or running list screen.
type SystemList struct {
	Title   string
	Status  string
	Loading bool
	Rows    []SystemRow
	// ShowSheetLink is true for admins only.
	ShowSheetLink bool
	// ShowRemarks is true on the running list only.
	ShowRemarks bool
	EmptyDetail string
}

// Count returns the number of rows.
func (l SystemList) Count() int { return len(l.Rows) }

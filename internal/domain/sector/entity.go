package sector

// Sector is a node of the organizational tree. Roots have no parent.
type Sector struct {
	ID           string
	Name         string
	ParentID     *string
	SupervisorID *string
}

func (s Sector) HasParent() bool {
	return s.ParentID != nil && *s.ParentID != ""
}

func (s Sector) HasSupervisor() bool {
	return s.SupervisorID != nil && *s.SupervisorID != ""
}

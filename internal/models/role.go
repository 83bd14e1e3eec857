package models

// Role is the closed set of principal roles. The wire strings match the
// seeded data files, so they are part of the external contract.
type Role string

const (
	RoleSystemAdmin   Role = "system_admin"   // platform operator
	RoleRetailerAdmin Role = "retailer_admin" // retailer operator
	RoleCompanyAdmin  Role = "company_admin"  // company administrator
	RoleCompanyUser   Role = "company_user"   // company member
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleRetailerAdmin, RoleCompanyAdmin, RoleCompanyUser:
		return true
	}
	return false
}

//
// --- Capability Predicates ---
//
// Authorization decisions go through these instead of comparing role strings
// at every call site.
//

// CanManageLinks reports whether the role may create company-retailer links.
func (r Role) CanManageLinks() bool {
	return r == RoleSystemAdmin
}

// CanManageRetailers reports whether the role may create or edit retailers.
func (r Role) CanManageRetailers() bool {
	return r == RoleSystemAdmin
}

// CanManageCompanies reports whether the role may create or edit companies.
func (r Role) CanManageCompanies() bool {
	return r == RoleSystemAdmin
}

// CanViewAudit reports whether the role may read the audit trail.
func (r Role) CanViewAudit() bool {
	return r == RoleSystemAdmin
}

// CanRequestDisconnect reports whether the role may open a disconnect request
// for its own company.
func (r Role) CanRequestDisconnect() bool {
	return r == RoleSystemAdmin || r == RoleCompanyAdmin
}

// CanProcessDisconnects reports whether the role may approve or reject
// disconnect requests for its own retailer.
func (r Role) CanProcessDisconnects() bool {
	return r == RoleSystemAdmin || r == RoleRetailerAdmin
}

// CanManageUsers reports whether the role may create or edit users.
func (r Role) CanManageUsers() bool {
	return r == RoleSystemAdmin || r == RoleCompanyAdmin
}

// Principal is the authenticated caller attached to every request by the
// auth middleware.
type Principal struct {
	UserID     string  `json:"userId"`
	Email      string  `json:"email"`
	Role       Role    `json:"role"`
	CompanyID  *string `json:"companyId,omitempty"`
	RetailerID *string `json:"retailerId,omitempty"`
}

// InCompany reports whether the principal belongs to the given company.
func (p *Principal) InCompany(companyID string) bool {
	return p.CompanyID != nil && *p.CompanyID == companyID
}

// InRetailer reports whether the principal belongs to the given retailer.
func (p *Principal) InRetailer(retailerID string) bool {
	return p.RetailerID != nil && *p.RetailerID == retailerID
}

// Package testutil provides testing utilities and helpers for the dashboard.
package testutil

import (
	"encoding/json"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
)

// UserBuilder provides a fluent interface for building UserRecords.
type UserBuilder struct {
	u domainauth.UserRecord
}

// NewUser starts a regular user with the given id and password "secret".
func NewUser(id string) *UserBuilder {
	return &UserBuilder{u: domainauth.UserRecord{UserID: id, Password: "secret", Role: domainauth.RoleUser}}
}

// Admin makes the user an admin.
func (b *UserBuilder) Admin() *UserBuilder {
	b.u.Role = domainauth.RoleAdmin
	return b
}

// WithPassword sets the password.
func (b *UserBuilder) WithPassword(pw string) *UserBuilder {
	b.u.Password = pw
	return b
}

// WithGrant sets the comma-separated access grant.
func (b *UserBuilder) WithGrant(grant string) *UserBuilder {
	b.u.AccessGrant = grant
	return b
}

// Build returns the constructed UserRecord.
func (b *UserBuilder) Build() domainauth.UserRecord {
	return b.u
}

// System returns a SystemRecord with parsed status and links derived from the name.
func System(ordinal int, name, status string) model.SystemRecord {
	return model.SystemRecord{
		Ordinal:   ordinal,
		Name:      name,
		AppLink:   "https://apps.example.com/" + name,
		SheetLink: "https://sheets.example.com/" + name,
		RawStatus: status,
		Status:    model.ParseStatus(status),
	}
}

// SheetEnvelope renders a {success, data} response body with a header row
// followed by rows. Cells may be any JSON value.
func SheetEnvelope(header []any, rows ...[]any) []byte {
	data := make([][]any, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)
	b, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		panic(err)
	}
	return b
}

// CredentialsHeader is the header row of the credentials sheet.
func CredentialsHeader() []any {
	return []any{"User ID", "Password", "Role", "Access"}
}

// SystemsHeader is the header row of the systems sheet.
func SystemsHeader() []any {
	return []any{"#", "System", "App Link", "Sheet Link", "Status", "Remarks"}
}

// CredentialRow renders a user as a credentials sheet row.
func CredentialRow(u domainauth.UserRecord) []any {
	return []any{u.UserID, u.Password, string(u.Role), u.AccessGrant}
}

// SystemRow renders a systems sheet row.
func SystemRow(name, appLink, sheetLink, status, remarks string) []any {
	return []any{"", name, appLink, sheetLink, status, remarks}
}

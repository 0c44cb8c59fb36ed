package sheets

import (
	"encoding/json"
	"strconv"

	domainauth "github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
)

// Row is one sheet row as decoded from the envelope.
type Row []any

// Cell returns the i-th cell as text. Missing cells read as "".
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return cellText(r[i])
}

// cellText renders a JSON cell the way it reads in the sheet: numbers keep
// their JSON text, booleans become "true"/"false" and null is empty.
func cellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case json.Number:
		return c.String()
	case bool:
		return strconv.FormatBool(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Credential column layout.
const (
	colUserID = iota
	colPassword
	colRole
	colAccess
)

// Systems column layout. Column 0 holds the sheet's own numbering and is ignored.
const (
	colSystemName = iota + 1
	colAppLink
	colSheetLink
	colStatus
	colRemarks
)

// DecodeCredentials maps data rows (header already removed) to user records.
func DecodeCredentials(rows []Row) []domainauth.UserRecord {
	out := make([]domainauth.UserRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, domainauth.UserRecord{
			UserID:      r.Cell(colUserID),
			Password:    r.Cell(colPassword),
			Role:        domainauth.ParseRole(r.Cell(colRole)),
			AccessGrant: r.Cell(colAccess),
		})
	}
	return out
}

// DecodeSystems maps data rows (header already removed) to system records,
// numbering them from 1 in sheet order.
func DecodeSystems(rows []Row) []model.SystemRecord {
	out := make([]model.SystemRecord, 0, len(rows))
	for i, r := range rows {
		raw := r.Cell(colStatus)
		out = append(out, model.SystemRecord{
			Ordinal:   i + 1,
			Name:      r.Cell(colSystemName),
			AppLink:   r.Cell(colAppLink),
			SheetLink: r.Cell(colSheetLink),
			RawStatus: raw,
			Status:    model.ParseStatus(raw),
			Remarks:   r.Cell(colRemarks),
		})
	}
	return out
}

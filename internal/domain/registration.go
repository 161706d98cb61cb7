package domain

// Registration is a city-level entry keyed by the caller-supplied person id.
type Registration struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
	City string `json:"cidade"`
	Role string `json:"cargo"`
}

// RegistrationColumns is the PATCH allow-list for registrations.
var RegistrationColumns = []Column{
	{Name: ColName, Kind: ColumnText},
	{Name: "cidade", Kind: ColumnText},
	{Name: ColRole, Kind: ColumnText},
}

// RegistrationFromExport reads one cadastro of an export document.
func RegistrationFromExport(input map[string]any) (Registration, error) {
	raw, ok := input["id"]
	if !ok || raw == nil {
		return Registration{}, &FieldError{Field: "id"}
	}
	id, err := coerceInt("id", raw)
	if err != nil {
		return Registration{}, err
	}
	if id <= 0 {
		return Registration{}, &FieldError{Field: "id", Value: raw}
	}

	reg := Registration{ID: id}
	for _, col := range RegistrationColumns {
		v, present := input[col.Name]
		if !present || v == nil {
			continue
		}
		text, err := col.Coerce(v)
		if err != nil {
			return Registration{}, err
		}
		switch col.Name {
		case ColName:
			reg.Name = text.(string)
		case "cidade":
			reg.City = text.(string)
		case ColRole:
			reg.Role = text.(string)
		}
	}
	if reg.Name == "" {
		return Registration{}, ErrNameRequired
	}
	return reg, nil
}

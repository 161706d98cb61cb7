package domain

// Defaults applied to staff records when the caller leaves a field empty.
const (
	DefaultStatus = "✳️MANTÉM"
	DefaultPrize  = "NÃO"
)

// ColumnKind tells how a column value is validated and stored.
type ColumnKind int

const (
	ColumnText ColumnKind = iota
	ColumnInt
)

// Column is one writable column of a table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Fixed leading columns shared by every staff table.
const (
	ColName      = "nome"
	ColRole      = "cargo"
	ColStatus    = "situacao"
	ColDiscordID = "discord_id"
	ColPrize     = "premio"
)

// Tier describes one staff table: its storage key, default role code, whether it
// tracks the prize flag and which performance counters it carries.
type Tier struct {
	Key           string
	Alias         string
	Code          string
	EntityMessage string
	HasPrize      bool
	Counters      []string
}

var baseCounters = []string{"horas", "atSup", "auxSup", "atCid", "denuncia"}

var (
	Interns = Tier{
		Key:           "estagiarios",
		Alias:         "interns",
		Code:          "EST",
		EntityMessage: "EntityIntern",
		Counters:      []string{"horas", "atSup", "chat", "atCid", "aulas", "ban"},
	}
	Support = Tier{
		Key:           "suportes",
		Alias:         "support",
		Code:          "SUP",
		EntityMessage: "EntitySupport",
		HasPrize:      true,
		Counters:      append(append([]string{}, baseCounters...), "aulas", "ban", "telagem", "ticketSS"),
	}
	Moderators = Tier{
		Key:           "moderadores",
		Alias:         "moderators",
		Code:          "MOD",
		EntityMessage: "EntityModerator",
		HasPrize:      true,
		Counters:      append(append([]string{}, baseCounters...), "revisao", "instrucoes", "entrevistas", "ban", "telagem", "ticketSS"),
	}
	Admins = Tier{
		Key:           "admins",
		Alias:         "administrators",
		Code:          "ADM",
		EntityMessage: "EntityAdmin",
		HasPrize:      true,
		Counters:      append(append([]string{}, baseCounters...), "revisao", "instrucoes", "entrevistas", "devolucoes", "ban", "telagem", "ticketSS"),
	}
	Supervisors = Tier{
		Key:           "supervisores",
		Alias:         "supervisors",
		Code:          "SPV",
		EntityMessage: "EntitySupervisor",
		HasPrize:      true,
		Counters:      append(append([]string{}, baseCounters...), "revisao", "instrucoes", "entrevistas", "devolucoes", "ban", "telagem", "ticketSS"),
	}
)

// Tiers lists every staff table in export order.
func Tiers() []Tier {
	return []Tier{Interns, Support, Moderators, Admins, Supervisors}
}

// TierByKey finds a tier by table name or alias.
func TierByKey(key string) (Tier, bool) {
	for _, t := range Tiers() {
		if t.Key == key || t.Alias == key {
			return t, true
		}
	}
	return Tier{}, false
}

// Columns returns the writable columns in storage order. The same list is the
// PATCH allow-list.
func (t Tier) Columns() []Column {
	cols := []Column{
		{Name: ColName, Kind: ColumnText},
		{Name: ColRole, Kind: ColumnText},
		{Name: ColStatus, Kind: ColumnText},
		{Name: ColDiscordID, Kind: ColumnText},
	}
	if t.HasPrize {
		cols = append(cols, Column{Name: ColPrize, Kind: ColumnText})
	}
	for _, name := range t.Counters {
		cols = append(cols, Column{Name: name, Kind: ColumnInt})
	}
	return cols
}

// Column looks up a writable column by name.
func (t Tier) Column(name string) (Column, bool) {
	for _, col := range t.Columns() {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidGoals reports a nested goal document with the wrong shape.
var ErrInvalidGoals = errors.New("invalid goals document")

// Thresholds are the promotion and bonus targets of one metric.
type Thresholds struct {
	Promotion int64 `json:"promocao"`
	Bonus     int64 `json:"premiacao"`
}

// Goal is one (role, metric) row of the goals table.
type Goal struct {
	Role   string `json:"cargo"`
	Metric string `json:"metrica"`
	Thresholds
}

// GoalMatrix nests thresholds by role code then metric name.
type GoalMatrix map[string]map[string]Thresholds

// NewGoalMatrix groups rows into the nested shape.
func NewGoalMatrix(goals []Goal) GoalMatrix {
	m := make(GoalMatrix)
	for _, g := range goals {
		m.Set(g.Role, g.Metric, g.Thresholds)
	}
	return m
}

// Set stores the thresholds of one pair.
func (m GoalMatrix) Set(role, metric string, t Thresholds) {
	metrics, ok := m[role]
	if !ok {
		metrics = make(map[string]Thresholds)
		m[role] = metrics
	}
	metrics[metric] = t
}

// Goals flattens the matrix ordered by role then metric.
func (m GoalMatrix) Goals() []Goal {
	goals := make([]Goal, 0, len(m)*8)
	for role, metrics := range m {
		for metric, t := range metrics {
			goals = append(goals, Goal{Role: role, Metric: metric, Thresholds: t})
		}
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].Role != goals[j].Role {
			return goals[i].Role < goals[j].Role
		}
		return goals[i].Metric < goals[j].Metric
	})
	return goals
}

// ParseThreshold converts an optional threshold value. A missing or null value
// yields nil.
func ParseThreshold(field string, raw any) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := coerceInt(field, raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseGoalMatrix reads a decoded {cargo: {metrica: {promocao, premiacao}}}
// document. Missing thresholds become 0.
func ParseGoalMatrix(raw any) (GoalMatrix, error) {
	roles, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrInvalidGoals
	}
	m := make(GoalMatrix, len(roles))
	for role, rv := range roles {
		metrics, ok := rv.(map[string]any)
		if !ok || role == "" {
			return nil, fmt.Errorf("%w: role %q", ErrInvalidGoals, role)
		}
		for metric, mv := range metrics {
			values, ok := mv.(map[string]any)
			if !ok || metric == "" {
				return nil, fmt.Errorf("%w: %s/%s", ErrInvalidGoals, role, metric)
			}
			var t Thresholds
			for field, dst := range map[string]*int64{"promocao": &t.Promotion, "premiacao": &t.Bonus} {
				v, err := ParseThreshold(field, values[field])
				if err != nil {
					return nil, fmt.Errorf("%w: %s/%s: %v", ErrInvalidGoals, role, metric, err)
				}
				if v != nil {
					*dst = *v
				}
			}
			m.Set(role, metric, t)
		}
	}
	return m, nil
}

// DefaultSupervisorGoals are the SPV targets seeded when no SPV goal exists.
func DefaultSupervisorGoals() map[string]Thresholds {
	return map[string]Thresholds{
		"HORAS":         {Promotion: 50, Bonus: 100},
		"AT.SUPORTE":    {Promotion: 30, Bonus: 60},
		"AUX.SUPORTE":   {Promotion: 50, Bonus: 100},
		"AT.CIDADE":     {Promotion: 50, Bonus: 100},
		"TCKT DENUNCIA": {Promotion: 20, Bonus: 50},
		"TCKT REVISÃO":  {Promotion: 50, Bonus: 100},
		"INSTRUÇÕES":    {Promotion: 0, Bonus: 5},
	}
}

// DefaultGoalMatrix is the matrix seeded into an empty goals table.
func DefaultGoalMatrix() GoalMatrix {
	return GoalMatrix{
		"EST": {
			"HORAS":        {Promotion: 50, Bonus: 100},
			"AT.SUPORTE":   {Promotion: 300, Bonus: 400},
			"CHAT DUVIDAS": {Promotion: 50, Bonus: 100},
			"AT.CIDADE":    {Promotion: 300, Bonus: 400},
			"AULAS":        {Promotion: 1, Bonus: 4},
			"BAN HACK":     {Promotion: 0, Bonus: 40},
		},
		"SUP": {
			"HORAS":         {Promotion: 90, Bonus: 150},
			"AT.SUPORTE":    {Promotion: 300, Bonus: 400},
			"AUX.SUPORTE":   {Promotion: 150, Bonus: 250},
			"AT.CIDADE":     {Promotion: 300, Bonus: 500},
			"TCKT DENUNCIA": {Promotion: 120, Bonus: 200},
			"AULAS":         {Promotion: 1, Bonus: 8},
			"BAN HACK":      {Promotion: 10, Bonus: 30},
		},
		"MOD": {
			"HORAS":         {Promotion: 100, Bonus: 180},
			"AT.SUPORTE":    {Promotion: 60, Bonus: 150},
			"AUX.SUPORTE":   {Promotion: 150, Bonus: 250},
			"AT.CIDADE":     {Promotion: 200, Bonus: 400},
			"TCKT DENUNCIA": {Promotion: 80, Bonus: 150},
			"TCKT REVISÃO":  {Promotion: 100, Bonus: 200},
			"INSTRUÇÕES":    {Promotion: 5, Bonus: 10},
		},
		"ADM": {
			"HORAS":         {Promotion: 120, Bonus: 200},
			"AT.SUPORTE":    {Promotion: 60, Bonus: 150},
			"AUX.SUPORTE":   {Promotion: 200, Bonus: 300},
			"AT.CIDADE":     {Promotion: 100, Bonus: 200},
			"TCKT DENUNCIA": {Promotion: 80, Bonus: 150},
			"TCKT REVISÃO":  {Promotion: 100, Bonus: 200},
			"INSTRUÇÕES":    {Promotion: 5, Bonus: 10},
		},
	}
}

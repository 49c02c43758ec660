package feedback

import (
	"strings"
	"time"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/query"
)

// Criteria scored from 1 to 5.
const (
	CritOrganisation = "organisation"
	CritContenuKiam  = "contenu_kiam"
	CritFormations   = "formations"
	CritDortoirs     = "dortoirs"
	CritNourriture   = "nourriture"
)

var ScoredCriteria = []string{CritOrganisation, CritContenuKiam, CritFormations, CritDortoirs, CritNourriture}

type Feedback struct {
	ID              int       `json:"id"`
	Nom             string    `json:"nom,omitempty"`
	Sexe            string    `json:"sexe,omitempty"`
	Organisation    int       `json:"organisation"`
	ContenuKiam     int       `json:"contenu_kiam"`
	Formations      int       `json:"formations"`
	Dortoirs        int       `json:"dortoirs"`
	Nourriture      int       `json:"nourriture"`
	NoteGlobale     float64   `json:"note_globale"`
	Recommande      bool      `json:"recommande"`
	PointsApprecies string    `json:"points_apprecies,omitempty"`
	Suggestions     string    `json:"suggestions,omitempty"`
	CreatedAt       time.Time `json:"created_at"` // UTC
}

// Score returns the 1-5 score of a criterion, 0 for an unknown one.
func (f Feedback) Score(criterion string) int {
	switch criterion {
	case CritOrganisation:
		return f.Organisation
	case CritContenuKiam:
		return f.ContenuKiam
	case CritFormations:
		return f.Formations
	case CritDortoirs:
		return f.Dortoirs
	case CritNourriture:
		return f.Nourriture
	}
	return 0
}

// Author is the submitter's name, "Anonyme" when not given.
func (f Feedback) Author() string {
	if f.Nom == "" {
		return "Anonyme"
	}
	return f.Nom
}

// NewFeedback is submitted by seminar participants through the public endpoint.
type NewFeedback struct {
	Nom             string  `json:"nom,omitempty" validate:"max=100"`
	Sexe            string  `json:"sexe,omitempty" validate:"omitempty,sexe"`
	Organisation    int     `json:"organisation" validate:"min=1,max=5"`
	ContenuKiam     int     `json:"contenu_kiam" validate:"min=1,max=5"`
	Formations      int     `json:"formations" validate:"min=1,max=5"`
	Dortoirs        int     `json:"dortoirs" validate:"min=1,max=5"`
	Nourriture      int     `json:"nourriture" validate:"min=1,max=5"`
	NoteGlobale     float64 `json:"note_globale" validate:"min=0,max=20"`
	Recommande      bool    `json:"recommande"`
	PointsApprecies string  `json:"points_apprecies,omitempty" validate:"max=2000"`
	Suggestions     string  `json:"suggestions,omitempty" validate:"max=2000"`
}

func (nf *NewFeedback) Validate() error {
	nf.Nom = core.CleanString(nf.Nom)
	nf.Sexe = strings.ToUpper(core.CleanString(nf.Sexe))
	nf.PointsApprecies = core.CleanString(nf.PointsApprecies)
	nf.Suggestions = core.CleanString(nf.Suggestions)
	return core.ValidateStruct(nf)
}

type QueryFilter struct {
	Search         string   `query:"search"`
	Sexe           string   `query:"sexe"`
	Recommande     *bool    `query:"recommande"`
	MinNoteGlobale *float64 `query:"min_note_globale"`
}

// Criteria searches the name and both free-text answers.
func (qf QueryFilter) Criteria() query.Criteria[Feedback] {
	c := query.Criteria[Feedback]{
		Search: qf.Search,
		SearchFields: []query.Field[Feedback]{
			func(f Feedback) string { return f.Nom },
			func(f Feedback) string { return f.PointsApprecies },
			func(f Feedback) string { return f.Suggestions },
		},
		Equals: []query.Match[Feedback]{{Field: func(f Feedback) string { return f.Sexe }, Value: qf.Sexe}},
	}
	if qf.Recommande != nil {
		want := *qf.Recommande
		c.Predicates = append(c.Predicates, func(f Feedback) bool { return f.Recommande == want })
	}
	if qf.MinNoteGlobale != nil {
		lo := *qf.MinNoteGlobale
		c.Predicates = append(c.Predicates, func(f Feedback) bool { return f.NoteGlobale >= lo })
	}
	return c
}

// Filter keeps the feedbacks matching qf, in order.
func Filter(fs []Feedback, qf QueryFilter) []Feedback {
	return query.Filter(fs, qf.Criteria())
}

// Summary aggregates feedbacks. Averages are 0 when there is nothing to aggregate.
type Summary struct {
	Count          int                `json:"count"`
	Averages       map[string]float64 `json:"averages"`
	NoteGlobale    float64            `json:"note_globale"`
	RecommandeRate float64            `json:"recommande_rate"` // in [0, 1]
}

// Summarize computes per-criterion averages and the recommendation rate of fs.
func Summarize(fs []Feedback) Summary {
	s := Summary{Count: len(fs), Averages: make(map[string]float64, len(ScoredCriteria))}
	for _, crit := range ScoredCriteria {
		s.Averages[crit] = 0
	}
	if len(fs) == 0 {
		return s
	}

	var recommande int
	for _, f := range fs {
		for _, crit := range ScoredCriteria {
			s.Averages[crit] += float64(f.Score(crit))
		}
		s.NoteGlobale += f.NoteGlobale
		if f.Recommande {
			recommande++
		}
	}
	n := float64(len(fs))
	for _, crit := range ScoredCriteria {
		s.Averages[crit] /= n
	}
	s.NoteGlobale /= n
	s.RecommandeRate = float64(recommande) / n
	return s
}

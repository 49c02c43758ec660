package grading

import (
	"strconv"
	"strings"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/query"
)

// Note slots
const (
	LibelleEntree     = "test_entree"
	LibelleConduite   = "conduite"
	libelleEvalPrefix = "evaluation_"
)

// EvaluationLibelle returns the slot of the n-th evaluation, e.g. "evaluation_2".
func EvaluationLibelle(n int) string {
	return libelleEvalPrefix + strconv.Itoa(n)
}

// LibelleLabel is the human readable name of a slot.
func LibelleLabel(libelle string) string {
	switch {
	case libelle == LibelleEntree:
		return "Test d'entrée"
	case libelle == LibelleConduite:
		return "Conduite"
	case strings.HasPrefix(libelle, libelleEvalPrefix):
		return "Évaluation " + strings.TrimPrefix(libelle, libelleEvalPrefix)
	}
	return libelle
}

type Note struct {
	ID          int     `json:"id"`
	Matricule   string  `json:"matricule"`
	Libelle     string  `json:"libelle"`
	Note        float64 `json:"note"`
	Observation string  `json:"observation,omitempty"`
}

// Slot identifies the (matricule, libelle) pair a note fills.
func (n Note) Slot() string { return SlotKey(n.Matricule, n.Libelle) }

func SlotKey(matricule, libelle string) string {
	return matricule + "|" + libelle
}

// NewNote contains information needed to record a Note.
type NewNote struct {
	Matricule   string  `json:"matricule" validate:"required"`
	Libelle     string  `json:"libelle" validate:"required,libelle"`
	Note        float64 `json:"note" validate:"min=0,max=20"`
	Observation string  `json:"observation,omitempty" validate:"max=500"`
}

func (nn *NewNote) Validate() error {
	nn.Matricule = normalizeMatricule(nn.Matricule)
	nn.Libelle = core.CleanString(nn.Libelle, true /* lower */)
	nn.Observation = core.CleanString(nn.Observation)
	return core.ValidateStruct(nn)
}

// UpdateNote replaces the score and observation of an existing Note.
type UpdateNote struct {
	Note        float64 `json:"note" validate:"min=0,max=20"`
	Observation string  `json:"observation,omitempty" validate:"max=500"`
}

func (un *UpdateNote) Validate() error {
	un.Observation = core.CleanString(un.Observation)
	return core.ValidateStruct(un)
}

// Bulletin is computed by the API from a participant's notes.
type Bulletin struct {
	Matricule       string  `json:"matricule"`
	Nom             string  `json:"nom"`
	Prenom          string  `json:"prenom"`
	Niveau          string  `json:"niveau"`
	MoyenneGenerale float64 `json:"moyenne_generale"`
	Rang            int     `json:"rang"`
	Notes           []Note  `json:"notes,omitempty"`
}

func (b Bulletin) FullName() string {
	return strings.TrimSpace(b.Prenom + " " + b.Nom)
}

func (b Bulletin) Mention() string { return MentionFor(b.MoyenneGenerale) }

type QueryFilter struct {
	Matricule string `query:"matricule"`
	Libelle   string `query:"libelle"`
	MinNote   *float64
	MaxNote   *float64
}

func (qf QueryFilter) Criteria() query.Criteria[Note] {
	c := query.Criteria[Note]{
		Equals:   []query.Match[Note]{{Field: func(n Note) string { return n.Matricule }, Value: qf.Matricule}},
		Contains: []query.Match[Note]{{Field: func(n Note) string { return n.Libelle }, Value: qf.Libelle}},
	}
	if qf.MinNote != nil {
		lo := *qf.MinNote
		c.Predicates = append(c.Predicates, func(n Note) bool { return n.Note >= lo })
	}
	if qf.MaxNote != nil {
		hi := *qf.MaxNote
		c.Predicates = append(c.Predicates, func(n Note) bool { return n.Note <= hi })
	}
	return c
}

// FilterNotes keeps the notes matching qf, in order.
func FilterNotes(notes []Note, qf QueryFilter) []Note {
	return query.Filter(notes, qf.Criteria())
}

type BulletinFilter struct {
	Search  string
	Niveau  string
	Mention string
}

func (bf BulletinFilter) Criteria() query.Criteria[Bulletin] {
	var (
		nom       query.Field[Bulletin] = func(b Bulletin) string { return b.Nom }
		prenom    query.Field[Bulletin] = func(b Bulletin) string { return b.Prenom }
		matricule query.Field[Bulletin] = func(b Bulletin) string { return b.Matricule }
	)
	return query.Criteria[Bulletin]{
		Search:       bf.Search,
		SearchFields: []query.Field[Bulletin]{query.Join(nom, prenom), query.Join(prenom, nom), matricule},
		Equals: []query.Match[Bulletin]{
			{Field: func(b Bulletin) string { return b.Niveau }, Value: bf.Niveau},
			{Field: Bulletin.Mention, Value: bf.Mention},
		},
	}
}

// FilterBulletins keeps the bulletins matching bf, in order.
func FilterBulletins(bs []Bulletin, bf BulletinFilter) []Bulletin {
	return query.Filter(bs, bf.Criteria())
}

// noteOrderings are the sort keys accepted by SortNotes.
var noteOrderings = map[string]query.Comparator[Note]{
	"matricule": func(a, b Note) int { return query.CompareStrings(a.Matricule, b.Matricule) },
	"libelle":   func(a, b Note) int { return query.CompareStrings(a.Libelle, b.Libelle) },
	"note":      func(a, b Note) int { return query.CompareFloats(a.Note, b.Note) },
}

// SortNotes orders notes by a "field,-field" ordering.
func SortNotes(notes []Note, ordering string) []Note {
	return query.Sort(notes, query.ParseOrdering(ordering), noteOrderings)
}

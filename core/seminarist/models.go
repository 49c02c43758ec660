package seminarist

import (
	"strings"
	"time"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/query"
)

// DefaultMedical is stored when no allergy or medical history is given ("rien à signaler").
const DefaultMedical = "RAS"

// Sexes
const (
	SexeMasculin = "M"
	SexeFeminin  = "F"
)

type Participant struct {
	ID                 int       `json:"id"`
	Matricule          string    `json:"matricule"`
	Nom                string    `json:"nom"`
	Prenom             string    `json:"prenom"`
	Sexe               string    `json:"sexe"`
	Age                int       `json:"age"`
	NiveauAcademique   string    `json:"niveau_academique"`
	Niveau             string    `json:"niveau,omitempty"`
	Dortoir            string    `json:"dortoir"`
	ContactParent      string    `json:"contact_parent"`
	ContactSeminariste string    `json:"contact_seminariste,omitempty"`
	Allergie           string    `json:"allergie"`
	AntecedentMedical  string    `json:"antecedent_medical"`
	PhotoURL           string    `json:"photo_url,omitempty"`
	NoteEntree         *float64  `json:"note_entree,omitempty"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (p Participant) FullName() string {
	return strings.TrimSpace(p.Prenom + " " + p.Nom)
}

// HasEntranceNote reports whether the entrance test was scored.
func (p Participant) HasEntranceNote() bool { return p.NoteEntree != nil }

// NewParticipant contains information needed to register a Participant.
// The matricule is assigned by the API.
type NewParticipant struct {
	Nom                string   `json:"nom" validate:"required,max=100"`
	Prenom             string   `json:"prenom" validate:"required,max=100"`
	Sexe               string   `json:"sexe" validate:"required,sexe"`
	Age                int      `json:"age" validate:"required,min=1,max=120"`
	NiveauAcademique   string   `json:"niveau_academique" validate:"required"`
	Niveau             string   `json:"niveau,omitempty" validate:"omitempty,niveau"`
	Dortoir            string   `json:"dortoir_code" validate:"required"`
	ContactParent      string   `json:"contact_parent" validate:"required,phone"`
	ContactSeminariste string   `json:"contact_seminariste,omitempty" validate:"omitempty,phone"`
	Allergie           string   `json:"allergie,omitempty"`
	AntecedentMedical  string   `json:"antecedent_medical,omitempty"`
	PhotoURL           string   `json:"photo_url,omitempty" validate:"omitempty,url"`
	NoteEntree         *float64 `json:"note_entree,omitempty" validate:"omitempty,min=0,max=20"`
}

// Clean trims every field and applies the defaults.
func (np *NewParticipant) Clean() {
	np.Nom = core.CleanString(np.Nom)
	np.Prenom = core.CleanString(np.Prenom)
	np.Sexe = strings.ToUpper(core.CleanString(np.Sexe))
	np.NiveauAcademique = core.CleanString(np.NiveauAcademique)
	np.Niveau = core.CleanString(np.Niveau)
	np.Dortoir = strings.ToUpper(core.CleanString(np.Dortoir))
	np.ContactParent = core.CleanString(np.ContactParent)
	np.ContactSeminariste = core.CleanString(np.ContactSeminariste)
	np.Allergie = defaultMedical(np.Allergie)
	np.AntecedentMedical = defaultMedical(np.AntecedentMedical)
	np.PhotoURL = core.CleanString(np.PhotoURL)
}

func (np *NewParticipant) Validate() error {
	np.Clean()
	return core.ValidateStruct(np)
}

func defaultMedical(s string) string {
	if s = core.CleanString(s); s == "" {
		return DefaultMedical
	}
	return s
}

// UpdateParticipant defines what information may be provided to modify an existing Participant.
// Nil fields are left unchanged.
type UpdateParticipant struct {
	Nom                *string  `json:"nom,omitempty" validate:"omitempty,min=1,max=100"`
	Prenom             *string  `json:"prenom,omitempty" validate:"omitempty,min=1,max=100"`
	Sexe               *string  `json:"sexe,omitempty" validate:"omitempty,sexe"`
	Age                *int     `json:"age,omitempty" validate:"omitempty,min=1,max=120"`
	NiveauAcademique   *string  `json:"niveau_academique,omitempty"`
	Niveau             *string  `json:"niveau,omitempty" validate:"omitempty,niveau"`
	Dortoir            *string  `json:"dortoir_code,omitempty" validate:"omitempty,min=1"`
	ContactParent      *string  `json:"contact_parent,omitempty" validate:"omitempty,phone"`
	ContactSeminariste *string  `json:"contact_seminariste,omitempty" validate:"omitempty,phone"`
	Allergie           *string  `json:"allergie,omitempty"`
	AntecedentMedical  *string  `json:"antecedent_medical,omitempty"`
	PhotoURL           *string  `json:"photo_url,omitempty" validate:"omitempty,url"`
	NoteEntree         *float64 `json:"note_entree,omitempty" validate:"omitempty,min=0,max=20"`
}

func cleanPtr(s *string, upper ...bool) {
	if s == nil {
		return
	}
	*s = core.CleanString(*s)
	if len(upper) > 0 && upper[0] {
		*s = strings.ToUpper(*s)
	}
}

func (up *UpdateParticipant) Validate() error {
	cleanPtr(up.Nom)
	cleanPtr(up.Prenom)
	cleanPtr(up.Sexe, true)
	cleanPtr(up.NiveauAcademique)
	cleanPtr(up.Niveau)
	cleanPtr(up.Dortoir, true)
	cleanPtr(up.ContactParent)
	cleanPtr(up.ContactSeminariste)
	cleanPtr(up.PhotoURL)
	if up.Allergie != nil {
		*up.Allergie = defaultMedical(*up.Allergie)
	}
	if up.AntecedentMedical != nil {
		*up.AntecedentMedical = defaultMedical(*up.AntecedentMedical)
	}
	return core.ValidateStruct(up)
}

// IsEmpty reports whether no field would change.
func (up UpdateParticipant) IsEmpty() bool {
	return up.Nom == nil && up.Prenom == nil && up.Sexe == nil && up.Age == nil &&
		up.NiveauAcademique == nil && up.Niveau == nil && up.Dortoir == nil &&
		up.ContactParent == nil && up.ContactSeminariste == nil && up.Allergie == nil &&
		up.AntecedentMedical == nil && up.PhotoURL == nil && up.NoteEntree == nil
}

// Apply returns p with every non-nil field of up.
func (up UpdateParticipant) Apply(p Participant) Participant {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Nom, up.Nom)
	set(&p.Prenom, up.Prenom)
	set(&p.Sexe, up.Sexe)
	set(&p.NiveauAcademique, up.NiveauAcademique)
	set(&p.Niveau, up.Niveau)
	set(&p.Dortoir, up.Dortoir)
	set(&p.ContactParent, up.ContactParent)
	set(&p.ContactSeminariste, up.ContactSeminariste)
	set(&p.Allergie, up.Allergie)
	set(&p.AntecedentMedical, up.AntecedentMedical)
	set(&p.PhotoURL, up.PhotoURL)
	if up.Age != nil {
		p.Age = *up.Age
	}
	if up.NoteEntree != nil {
		note := *up.NoteEntree
		p.NoteEntree = &note
	}
	return p
}

type QueryFilter struct {
	Search   string `query:"search"`
	Sexe     string `query:"sexe"`
	Niveau   string `query:"niveau"`
	Dortoir  string `query:"dortoir"`
	Ordering string `query:"ordering"`
	// NoteEntree filters on whether the entrance test was scored; nil means either.
	NoteEntree *bool `query:"note_entree"`
}

func (qf QueryFilter) IsEmpty() bool {
	return query.IsAny(qf.Search) && query.IsAny(qf.Sexe) && query.IsAny(qf.Niveau) &&
		query.IsAny(qf.Dortoir) && qf.NoteEntree == nil
}

var (
	fieldNom       query.Field[Participant] = func(p Participant) string { return p.Nom }
	fieldPrenom    query.Field[Participant] = func(p Participant) string { return p.Prenom }
	fieldMatricule query.Field[Participant] = func(p Participant) string { return p.Matricule }

	orderings = map[string]query.Comparator[Participant]{
		"nom":       func(a, b Participant) int { return query.CompareStrings(a.Nom, b.Nom) },
		"prenom":    func(a, b Participant) int { return query.CompareStrings(a.Prenom, b.Prenom) },
		"matricule": func(a, b Participant) int { return query.CompareStrings(a.Matricule, b.Matricule) },
		"niveau":    func(a, b Participant) int { return query.CompareStrings(a.Niveau, b.Niveau) },
		"dortoir":   func(a, b Participant) int { return query.CompareStrings(a.Dortoir, b.Dortoir) },
		"age":       func(a, b Participant) int { return query.CompareFloats(float64(a.Age), float64(b.Age)) },
		"note_entree": func(a, b Participant) int {
			return query.CompareFloats(noteOrMinus(a.NoteEntree), noteOrMinus(b.NoteEntree))
		},
	}
)

func noteOrMinus(n *float64) float64 {
	if n == nil {
		return -1
	}
	return *n
}

// Criteria searches "nom prenom", "prenom nom" and the matricule, matches sexe and niveau exactly
// and dortoir as a substring.
func (qf QueryFilter) Criteria() query.Criteria[Participant] {
	c := query.Criteria[Participant]{
		Search: qf.Search,
		SearchFields: []query.Field[Participant]{
			query.Join(fieldNom, fieldPrenom),
			query.Join(fieldPrenom, fieldNom),
			fieldMatricule,
		},
		Equals: []query.Match[Participant]{
			{Field: func(p Participant) string { return p.Sexe }, Value: qf.Sexe},
			{Field: func(p Participant) string { return p.Niveau }, Value: qf.Niveau},
		},
		Contains: []query.Match[Participant]{
			{Field: func(p Participant) string { return p.Dortoir }, Value: qf.Dortoir},
		},
	}
	if qf.NoteEntree != nil {
		want := *qf.NoteEntree
		c.Predicates = append(c.Predicates, func(p Participant) bool { return p.HasEntranceNote() == want })
	}
	return c
}

// Filter applies qf to ps then orders the result by qf.Ordering.
func Filter(ps []Participant, qf QueryFilter) []Participant {
	filtered := query.Filter(ps, qf.Criteria())
	if qf.Ordering == "" {
		return filtered
	}
	return query.Sort(filtered, query.ParseOrdering(qf.Ordering), orderings)
}

// Niveaux returns the group of every participant, for seeding a grading.Balancer.
func Niveaux(ps []Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Niveau)
	}
	return out
}

// BandOf is the band of p's group, or of its entrance note when no group is set yet.
func BandOf(p Participant) string {
	if band := grading.BandOfGroup(p.Niveau); band != "" {
		return band
	}
	if p.NoteEntree != nil {
		return grading.BandFor(*p.NoteEntree)
	}
	return ""
}

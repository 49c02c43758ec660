package grading

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kiam/core"
)

var (
	libelleTag   = "libelle"
	libelleText  = "libellé inconnu (test_entree, evaluation_N ou conduite)"
	libelleRegex = regexp.MustCompile(`^(test_entree|conduite|evaluation_[1-9][0-9]*)$`)

	niveauTag  = "niveau"
	niveauText = "niveau inconnu (PrimaireA, PrimaireB, SecondaireA ou SecondaireB)"
)

func init() {
	_ = core.Validate.RegisterValidation(libelleTag, libelleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, libelleTag, libelleText)

	_ = core.Validate.RegisterValidation(niveauTag, niveauValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, niveauTag, niveauText)
}

// ValidLibelle reports whether l is a known note slot.
func ValidLibelle(l string) bool {
	return libelleRegex.MatchString(l)
}

func libelleValidation(fl validator.FieldLevel) bool {
	return ValidLibelle(fl.Field().String())
}

// niveauValidation only accepts one of Groups; combine with omitempty for optional fields.
func niveauValidation(fl validator.FieldLevel) bool {
	return IsGroup(fl.Field().String())
}

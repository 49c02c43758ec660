package main

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kiam/core"
	"github.com/trezcool/kiam/services/apiclient"
)

var kindMessages = map[apiclient.Kind]string{
	apiclient.KindUnauthorized:       "session expirée, reconnectez-vous (admin login)",
	apiclient.KindForbidden:          "permission refusée",
	apiclient.KindNotFound:           "introuvable",
	apiclient.KindConflict:           "existe déjà",
	apiclient.KindServerError:        "erreur du serveur, réessayez plus tard",
	apiclient.KindNetworkUnavailable: "serveur injoignable, vérifiez votre connexion",
}

// describe renders err for the terminal: one line per invalid field, a plain message for API failures.
func describe(err error) string {
	var verr *core.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		fields := verr.FieldMap()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, len(names))
		for i, name := range names {
			lines[i] = "  " + name + " : " + fields[name]
		}
		return "données invalides\n" + strings.Join(lines, "\n")
	}
	if apiErr, ok := apiclient.AsError(err); ok {
		if msg, ok := kindMessages[apiErr.Kind]; ok {
			return msg
		}
	}
	return err.Error()
}

// Package remoterepos implements the domain repositories over the Kiam REST API.
package remoterepos

import (
	"strconv"

	"github.com/trezcool/kiam/services/apiclient"
)

func itoa(id int) string { return strconv.Itoa(id) }

// notFound maps a 404 to the domain sentinel, anything else is kept.
func notFound(err, sentinel error) error {
	if apiclient.IsKind(err, apiclient.KindNotFound) {
		return sentinel
	}
	return err
}

// conflict maps a 409 to the domain sentinel, anything else is kept.
func conflict(err, sentinel error) error {
	if apiclient.IsKind(err, apiclient.KindConflict) {
		return sentinel
	}
	return err
}

package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/feedback"
	"github.com/trezcool/kiam/core/grading"
	"github.com/trezcool/kiam/core/paging"
	"github.com/trezcool/kiam/core/seminarist"
	"github.com/trezcool/kiam/core/session"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func newParticipant(nom, prenom string) seminarist.NewParticipant {
	return seminarist.NewParticipant{
		Nom: nom, Prenom: prenom, Sexe: "F", Age: 14,
		NiveauAcademique: "3e", Dortoir: "d1", ContactParent: "+225 0102030405",
	}
}

func Test_authApi(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "admin", account.RoleAdministration, true)
	ts.createUser(t, "ndog", account.RoleFinance, false)

	login := func(identifier, pwd string) []byte {
		return marshallObj(t, session.Credentials{Identifier: identifier, Password: pwd})
	}

	ts.runAll(t, []httpTest{
		{name: "home", path: "/", wantCode: http.StatusOK},
		{name: "missing credentials", method: http.MethodPost, path: "/auth/login", body: login("", ""), wantCode: http.StatusBadRequest},
		{
			name: "wrong password", method: http.MethodPost, path: "/auth/login", body: login("admin", "nope"),
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{name: "unknown user", method: http.MethodPost, path: "/auth/login", body: login("ghost", testPassword), wantCode: http.StatusUnauthorized},
		{
			name: "inactive user", method: http.MethodPost, path: "/auth/login", body: login("ndog", testPassword),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "me requires auth", path: "/auth/me", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "me rejects bad tokens", path: "/auth/me", token: "garbage", wantCode: http.StatusUnauthorized},
	})

	t.Run("login by email", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPost, path: "/auth/login", body: login("ADMIN@kiam.test", testPassword)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp session.LoginResponse
		decode(t, rec, &resp)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, admin.ID, resp.User.ID)
		assert.False(t, resp.User.LastLogin.IsZero(), "last login recorded")

		rec = ts.run(t, httpTest{path: "/auth/me", token: resp.AccessToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var me account.User
		decode(t, rec, &me)
		assert.Equal(t, "admin", me.Username)
	})

	t.Run("deactivated after login", func(t *testing.T) {
		token := ts.token(t, admin)
		_, err := ts.db.SetUserStatus(admin.ID, false)
		require.NoError(t, err)
		rec := ts.run(t, httpTest{path: "/auth/me", token: token})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_participantApi(t *testing.T) {
	ts := setup(t)
	token := ts.token(t, ts.createUser(t, "staff", account.RoleScientifique, true))

	var created seminarist.Participant
	t.Run("create", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPost, path: "/seminaristes", token: token, body: marshallObj(t, newParticipant("Koné", "Awa"))})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &created)
		assert.Equal(t, "KIAM-2026-0001", created.Matricule)
		assert.Equal(t, "D1", created.Dortoir)
		assert.Equal(t, seminarist.DefaultMedical, created.Allergie)
	})

	detail := fmt.Sprintf("/seminaristes/%d", created.ID)
	invalid := newParticipant("", "Awa")
	invalid.Sexe = "X"

	ts.runAll(t, []httpTest{
		{name: "auth required", path: "/seminaristes", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "invalid", method: http.MethodPost, path: "/seminaristes", token: token, body: marshallObj(t, invalid), wantCode: http.StatusBadRequest},
		{name: "retrieve", path: detail, token: token, wantData: marshallObj(t, created)},
		{name: "retrieve unknown", path: "/seminaristes/42", token: token, wantCode: http.StatusNotFound},
		{name: "retrieve bad id", path: "/seminaristes/abc", token: token, wantCode: http.StatusNotFound},
		{name: "patch nothing", method: http.MethodPatch, path: detail, token: token, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "patch unknown", method: http.MethodPatch, path: "/seminaristes/42", token: token, body: []byte(`{"dortoir_code":"d2"}`), wantCode: http.StatusNotFound},
	})

	t.Run("patch", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPatch, path: detail, token: token, body: []byte(`{"dortoir_code":" d2 "}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p seminarist.Participant
		decode(t, rec, &p)
		assert.Equal(t, "D2", p.Dortoir)
		assert.Equal(t, "Awa", p.Prenom)
	})

	t.Run("put keeps the matricule", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPut, path: detail, token: token, body: marshallObj(t, newParticipant("Koné", "Aminata"))})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p seminarist.Participant
		decode(t, rec, &p)
		assert.Equal(t, "Aminata", p.Prenom)
		assert.Equal(t, created.Matricule, p.Matricule)
	})

	t.Run("list clamps the limit", func(t *testing.T) {
		rec := ts.run(t, httpTest{path: "/seminaristes?page=0&limit=500", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[seminarist.Participant]
		decode(t, rec, &page)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, paging.MaxPageSize, page.Limit)
		assert.Len(t, page.Data, 1)
	})

	t.Run("page past the end", func(t *testing.T) {
		rec := ts.run(t, httpTest{path: "/seminaristes?page=3", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[seminarist.Participant]
		decode(t, rec, &page)
		assert.NotNil(t, page.Data)
		assert.Empty(t, page.Data)
	})

	ts.runAll(t, []httpTest{
		{name: "delete", method: http.MethodDelete, path: detail, token: token, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: detail, token: token, wantCode: http.StatusNotFound},
	})
}

func Test_noteApi(t *testing.T) {
	ts := setup(t)
	token := ts.token(t, ts.createUser(t, "staff", account.RoleScientifique, true))
	awa := ts.db.CreateParticipant(newParticipant("Koné", "Awa"))
	issa := ts.db.CreateParticipant(newParticipant("Traoré", "Issa"))

	note := func(matricule, libelle string, score float64) []byte {
		return marshallObj(t, grading.NewNote{Matricule: matricule, Libelle: libelle, Note: score})
	}

	var created grading.Note
	t.Run("create", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPost, path: "/notes", token: token, body: note(awa.Matricule, grading.LibelleConduite, 14)})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &created)
		assert.Equal(t, awa.Matricule, created.Matricule)
	})
	_, err := ts.db.CreateNote(grading.NewNote{Matricule: issa.Matricule, Libelle: grading.LibelleConduite, Note: 10})
	require.NoError(t, err)

	ts.runAll(t, []httpTest{
		{name: "auth required", path: "/notes", wantCode: http.StatusUnauthorized},
		{
			name: "same slot", method: http.MethodPost, path: "/notes", token: token, body: note(awa.Matricule, grading.LibelleConduite, 9),
			wantCode: http.StatusConflict, wantData: marshallObj(t, httpErr{Error: grading.ErrNoteExists.Error()}),
		},
		{name: "unknown matricule", method: http.MethodPost, path: "/notes", token: token, body: note("KIAM-2026-9999", grading.LibelleConduite, 9), wantCode: http.StatusBadRequest},
		{name: "unknown libelle", method: http.MethodPost, path: "/notes", token: token, body: note(awa.Matricule, "recreation", 9), wantCode: http.StatusBadRequest},
		{name: "out of range", method: http.MethodPost, path: "/notes", token: token, body: note(awa.Matricule, grading.EvaluationLibelle(1), 21), wantCode: http.StatusBadRequest},
		{
			name: "update unknown", method: http.MethodPut, path: "/notes/42", token: token, body: []byte(`{"note":12}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "note introuvable"}),
		},
		{
			name: "bulletin unknown", path: "/bulletins/KIAM-2026-9999", token: token,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "bulletin introuvable"}),
		},
	})

	t.Run("filter by matricule", func(t *testing.T) {
		rec := ts.run(t, httpTest{path: "/notes?matricule=" + awa.Matricule, token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[grading.Note]
		decode(t, rec, &page)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, []grading.Note{created}, page.Data)
	})

	t.Run("update then bulletins", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPut, path: fmt.Sprintf("/notes/%d", created.ID), token: token, body: []byte(`{"note":18,"observation":"très bien"}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = ts.run(t, httpTest{path: "/bulletins/" + awa.Matricule, token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var b grading.Bulletin
		decode(t, rec, &b)
		assert.Equal(t, 18.0, b.MoyenneGenerale)
		assert.Equal(t, 1, b.Rang)

		rec = ts.run(t, httpTest{path: "/bulletins", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[grading.Bulletin]
		decode(t, rec, &page)
		assert.Equal(t, 2, page.Total)
	})

	ts.runAll(t, []httpTest{
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/notes/%d", created.ID), token: token, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: fmt.Sprintf("/notes/%d", created.ID), token: token, wantCode: http.StatusNotFound},
	})
}

func Test_userApi(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "admin", account.RoleAdministration, true)
	staff := ts.createUser(t, "staff", account.RoleFinance, true)
	adminToken := ts.token(t, admin)

	newUser := func(username, email string) []byte {
		return marshallObj(t, account.NewUser{
			Username: username, Email: email, Nom: "Traoré", Prenom: "Issa",
			Role: account.RoleScientifique, Password: "S3minaire!Kz", PasswordConfirm: "S3minaire!Kz",
		})
	}

	ts.runAll(t, []httpTest{
		{name: "auth required", path: "/users", wantCode: http.StatusUnauthorized},
		{
			name: "admin required", path: "/users", token: ts.token(t, staff),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "roles", path: "/users/roles", token: adminToken, wantData: marshallObj(t, account.Roles)},
		{name: "create", method: http.MethodPost, path: "/users", token: adminToken, body: newUser("issa", "issa@kiam.test"), wantCode: http.StatusCreated},
		{name: "username taken", method: http.MethodPost, path: "/users", token: adminToken, body: newUser("ISSA", "other@kiam.test"), wantCode: http.StatusConflict},
		{name: "email taken", method: http.MethodPost, path: "/users", token: adminToken, body: newUser("other", "issa@kiam.test"), wantCode: http.StatusConflict},
		{name: "weak password", method: http.MethodPost, path: "/users", token: adminToken, body: []byte(`{"username":"weak","nom":"W","prenom":"W","role":"finance","password":"12345678","password_confirm":"12345678"}`), wantCode: http.StatusBadRequest},
		{
			name: "self toggle", method: http.MethodPatch, path: fmt.Sprintf("/users/%d/status", admin.ID), token: adminToken, body: []byte(`{"is_active":false}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: account.ErrSelfModification.Error()}),
		},
		{name: "self delete", method: http.MethodDelete, path: fmt.Sprintf("/users/%d", admin.ID), token: adminToken, wantCode: http.StatusForbidden},
		{name: "toggle unknown", method: http.MethodPatch, path: "/users/42/status", token: adminToken, body: []byte(`{"is_active":false}`), wantCode: http.StatusNotFound},
	})

	t.Run("toggle", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPatch, path: fmt.Sprintf("/users/%d/status", staff.ID), token: adminToken, body: []byte(`{"is_active":false}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr account.User
		decode(t, rec, &usr)
		assert.False(t, usr.IsActive)
	})

	t.Run("update", func(t *testing.T) {
		rec := ts.run(t, httpTest{method: http.MethodPut, path: fmt.Sprintf("/users/%d", staff.ID), token: adminToken, body: []byte(`{"prenom":"Moussa"}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var usr account.User
		decode(t, rec, &usr)
		assert.Equal(t, "Moussa", usr.Prenom)
		assert.Equal(t, "staff", usr.Username)
	})

	t.Run("list", func(t *testing.T) {
		rec := ts.run(t, httpTest{path: "/users", token: adminToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[account.User]
		decode(t, rec, &page)
		assert.Equal(t, 3, page.Total)
	})

	ts.runAll(t, []httpTest{
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/users/%d", staff.ID), token: adminToken, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: fmt.Sprintf("/users/%d", staff.ID), token: adminToken, wantCode: http.StatusNotFound},
	})
}

func Test_feedbackApi(t *testing.T) {
	ts := setup(t)
	token := ts.token(t, ts.createUser(t, "staff", account.RoleAdministration, true))
	body := marshallObj(t, feedback.NewFeedback{Organisation: 4, ContenuKiam: 5, Formations: 4, Dortoirs: 3, Nourriture: 2, NoteGlobale: 15, Recommande: true})

	ts.runAll(t, []httpTest{
		{name: "public create", method: http.MethodPost, path: "/feedbacks", body: body, wantCode: http.StatusCreated},
		{name: "invalid scores", method: http.MethodPost, path: "/feedbacks", body: []byte(`{"organisation":9}`), wantCode: http.StatusBadRequest},
		{name: "list requires auth", path: "/feedbacks", wantCode: http.StatusUnauthorized},
		{name: "delete requires auth", method: http.MethodDelete, path: "/feedbacks/1", wantCode: http.StatusUnauthorized},
	})

	t.Run("list", func(t *testing.T) {
		rec := ts.run(t, httpTest{path: "/feedbacks", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		var page paging.Page[feedback.Feedback]
		decode(t, rec, &page)
		require.Len(t, page.Data, 1)
		assert.True(t, page.Data[0].Recommande)
	})

	ts.runAll(t, []httpTest{
		{name: "delete", method: http.MethodDelete, path: "/feedbacks/1", token: token, wantCode: http.StatusNoContent},
		{name: "delete again", method: http.MethodDelete, path: "/feedbacks/1", token: token, wantCode: http.StatusNotFound},
	})
}

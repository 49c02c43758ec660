package inmemdb

import (
	"github.com/trezcool/kiam/core/account"
	"github.com/trezcool/kiam/core/paging"
)

func (db *DB) ListUsers(page, limit int) paging.Page[account.User] {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return paging.Slice(rows(db.users), page, limit)
}

func (db *DB) GetUser(id int) (account.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if usr, ok := db.users[id]; ok {
		return *usr, nil
	}
	return account.User{}, account.ErrNotFound
}

// GetUserByIdentifier finds an account by username or email.
func (db *DB) GetUserByIdentifier(identifier string) (account.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for _, usr := range db.users {
		if usr.Username == identifier || usr.Email == identifier {
			return *usr, nil
		}
	}
	return account.User{}, account.ErrNotFound
}

// checkUniqueness is called with the lock held. excludedID is the account being edited, 0 for none.
func (db *DB) checkUniqueness(username, email string, excludedID int) error {
	for _, usr := range db.users {
		if usr.ID == excludedID {
			continue
		}
		if usr.Username == username {
			return account.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return account.ErrEmailExists
		}
	}
	return nil
}

// CreateUser stores a validated nu with a bcrypt hash of its password.
func (db *DB) CreateUser(nu account.NewUser) (account.User, error) {
	usr := account.User{
		Username: nu.Username,
		Email:    nu.Email,
		Nom:      nu.Nom,
		Prenom:   nu.Prenom,
		Role:     nu.Role,
		IsActive: true,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return account.User{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.checkUniqueness(usr.Username, usr.Email, 0); err != nil {
		return account.User{}, err
	}
	db.userSeq++
	usr.ID = db.userSeq
	usr.CreatedAt = db.now()
	usr.UpdatedAt = usr.CreatedAt
	db.users[usr.ID] = &usr
	return usr, nil
}

// UpdateUser only saves the set fields of uu.
func (db *DB) UpdateUser(id int, uu account.UpdateUser) (account.User, error) {
	var hash []byte
	if uu.Password != "" {
		var tmp account.User
		if err := tmp.SetPassword(uu.Password); err != nil {
			return account.User{}, err
		}
		hash = tmp.PasswordHash
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	origUsr, ok := db.users[id]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	usr := *origUsr
	if uu.Username != "" {
		usr.Username = uu.Username
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.Nom != "" {
		usr.Nom = uu.Nom
	}
	if uu.Prenom != "" {
		usr.Prenom = uu.Prenom
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if hash != nil {
		usr.PasswordHash = hash
	}
	if err := db.checkUniqueness(usr.Username, usr.Email, id); err != nil {
		return account.User{}, err
	}
	usr.UpdatedAt = db.now()
	db.users[id] = &usr
	return usr, nil
}

func (db *DB) SetUserStatus(id int, isActive bool) (account.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, ok := db.users[id]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	usr.IsActive = isActive
	usr.UpdatedAt = db.now()
	return *usr, nil
}

func (db *DB) SetLastLogin(id int) (account.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, ok := db.users[id]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	usr.LastLogin = db.now()
	return *usr, nil
}

func (db *DB) DeleteUser(id int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[id]; !ok {
		return account.ErrNotFound
	}
	delete(db.users, id)
	return nil
}

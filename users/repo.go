package users

// UserRepo stores account credentials. Lookups by email expect a normalised email.
type UserRepo interface {
	Upsert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(ID string) (*User, error)
}

// ProfileRepo stores profiles keyed by user ID
type ProfileRepo interface {
	UpsertProfile(profile *Profile) error
	GetProfile(userID string) (*Profile, error)
	ListProfiles() ([]*Profile, error)
}

// RoleRepo binds one role to each user ID
type RoleRepo interface {
	SetRole(userID string, role Role) error
	GetRole(userID string) (Role, error)
}

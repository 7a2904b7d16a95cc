package dto

// SeedChannel is one channel row accepted by the seeding tools.
type SeedChannel struct {
	Slug string `json:"slug" yaml:"slug" validate:"required,max=120"`
	Name string `json:"name" yaml:"name" validate:"required,max=120"`
}

// SeedUser is one user row accepted by the seeding tools.
type SeedUser struct {
	Name  string `json:"name" yaml:"name" validate:"required,max=120"`
	Email string `json:"email" yaml:"email" validate:"omitempty,email"`
}

// SeedChannelsRequest wraps a channel seed batch.
type SeedChannelsRequest struct {
	Items []SeedChannel `json:"items" yaml:"channels" validate:"dive"`
}

// SeedUsersRequest wraps a user seed batch.
type SeedUsersRequest struct {
	Items []SeedUser `json:"items" yaml:"users" validate:"dive"`
}

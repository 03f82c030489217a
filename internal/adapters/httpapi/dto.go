package httpapi

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/flavorhub/community-api/internal/app/session"
	"github.com/flavorhub/community-api/internal/domain"
)

type SignupRequest struct {
	FullName         string              `json:"fullName" validate:"required,max=200"`
	Email            openapi_types.Email `json:"email" validate:"required"`
	SocialHandle     string              `json:"socialHandle" validate:"required,min=3,max=64"`
	SocialPassword   string              `json:"socialPassword" validate:"required,max=256"`
	Password         string              `json:"password" validate:"required,max=72"`
	InterestCategory string              `json:"interestCategory" validate:"required,oneof=food-blogging culinary-arts home-cooking baking nutrition food-photography"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public shape of a directory record. Credential hashes are never rendered.
type UserView struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	SocialHandle     string    `json:"socialHandle"`
	InterestCategory string    `json:"interestCategory"`
	SocialLinked     bool      `json:"socialLinked"`
	RegisteredAt     time.Time `json:"registeredAt"`
}

type SessionView struct {
	State string    `json:"state"`
	User  *UserView `json:"user,omitempty"`
}

type SignupResponse struct {
	User UserView `json:"user"`
}

type SessionResponse struct {
	Session SessionView `json:"session"`
}

type UsersResponse struct {
	Users []UserView `json:"users"`
}

type DirectoryResponse struct {
	Backend string `json:"backend"`
}

func toUserView(u domain.UserRecord) UserView {
	return UserView{
		ID:               string(u.ID),
		FullName:         u.FullName,
		Email:            u.Email,
		SocialHandle:     u.SocialHandle,
		InterestCategory: string(u.InterestCategory),
		SocialLinked:     u.SocialLinked,
		RegisteredAt:     u.RegisteredAt.UTC(),
	}
}

func toSessionView(s session.Session) SessionView {
	v := SessionView{State: s.State().String()}
	if u, ok := s.User(); ok {
		uv := toUserView(u)
		v.User = &uv
	}
	return v
}

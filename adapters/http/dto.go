package http

import (
	"github.com/khoahotran/labour-connect/internal/application/usecase/profile"
	"github.com/khoahotran/labour-connect/internal/domain/labour"
)

// Auth DTOs

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

// Profile DTOs

type ProfileDTO struct {
	ID           string              `json:"id,omitempty"`
	Name         string              `json:"name"`
	Contact      string              `json:"contact"`
	Skills       []string            `json:"skills"`
	Availability labour.Availability `json:"availability"`
	Charges      float64             `json:"charges"`
	Location     string              `json:"location"`
	ImageURL     string              `json:"imageUrl"`
	UserID       string              `json:"userId"`
}

type NoticeDTO struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type SessionResponse struct {
	State           string     `json:"state"`
	Profile         ProfileDTO `json:"profile"`
	Persisted       bool       `json:"persisted"`
	HasPendingImage bool       `json:"has_pending_image"`
	Notice          *NoticeDTO `json:"notice,omitempty"`
}

func ToProfileDTO(p labour.Profile) ProfileDTO {
	skills := make([]string, len(p.Skills))
	copy(skills, p.Skills)
	return ProfileDTO{
		ID:           p.ID,
		Name:         p.Name,
		Contact:      p.Contact,
		Skills:       skills,
		Availability: p.Availability,
		Charges:      p.Charges,
		Location:     p.Location,
		ImageURL:     p.ImageURL,
		UserID:       p.UserID,
	}
}

func ToSessionResponse(s *profile.Session) SessionResponse {
	resp := SessionResponse{
		State:           string(s.State),
		Profile:         ToProfileDTO(s.Profile),
		Persisted:       s.Persisted,
		HasPendingImage: s.PendingImage != nil,
	}
	if s.Notice != nil {
		resp.Notice = &NoticeDTO{Level: string(s.Notice.Level), Message: s.Notice.Message}
	}
	return resp
}

type DraftActionRequest struct {
	Kind    string  `json:"kind" binding:"required,oneof=set_name set_contact set_charges set_location add_skill remove_skill toggle_availability"`
	Value   string  `json:"value"`
	Charges float64 `json:"charges"`
	Day     string  `json:"day"`
}

type DraftRequest struct {
	Actions []DraftActionRequest `json:"actions" binding:"required,min=1,dive"`
}

func (r *DraftRequest) ToDomainActions() []labour.Action {
	actions := make([]labour.Action, len(r.Actions))
	for i, a := range r.Actions {
		actions[i] = labour.Action{
			Kind:    labour.ActionKind(a.Kind),
			Value:   a.Value,
			Charges: a.Charges,
			Day:     labour.Weekday(a.Day),
		}
	}
	return actions
}

package labour

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Collection is the document store collection holding one profile per user.
const Collection = "labourers"

var (
	ErrProfileNotFound = errors.New("labour profile not found")
	ErrUnknownWeekday  = errors.New("unknown weekday")
	ErrUnknownAction   = errors.New("unknown draft action")
	ErrNegativeCharges = errors.New("charges must not be negative")
)

type Profile struct {
	ID            string       `json:"id,omitempty" validate:"-"`
	Name          string       `json:"name" validate:"required"`
	Contact       string       `json:"contact" validate:"required"`
	Skills        Skills       `json:"skills"`
	Availability  Availability `json:"availability"`
	Charges       float64      `json:"charges" validate:"gte=0"`
	Location      string       `json:"location" validate:"required"`
	ImageURL      string       `json:"imageUrl"`
	ImagePublicID string       `json:"imagePublicId,omitempty"`
	UserID        string       `json:"userId"`
}

// NewEmpty is the canonical blank record for userID.
func NewEmpty(userID string) Profile {
	return Profile{
		Skills:       Skills{},
		Availability: Availability{},
		UserID:       userID,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the required-field constraints enforced before a save.
// Text is taken as entered; only an empty string fails required.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid profile: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// Clone returns a deep copy so revisions never share the skills backing array.
func (p Profile) Clone() Profile {
	out := p
	out.Skills = p.Skills.clone()
	return out
}

// Document is the persisted shape. Availability is a pointer so records
// written before the field existed can be told apart from all-false ones.
type Document struct {
	Name          string        `json:"name" bson:"name"`
	Contact       string        `json:"contact" bson:"contact"`
	Skills        []string      `json:"skills" bson:"skills"`
	Availability  *Availability `json:"availability,omitempty" bson:"availability,omitempty"`
	Charges       float64       `json:"charges" bson:"charges"`
	Location      string        `json:"location" bson:"location"`
	ImageURL      string        `json:"imageUrl" bson:"imageUrl"`
	ImagePublicID string        `json:"imagePublicId,omitempty" bson:"imagePublicId,omitempty"`
	UserID        string        `json:"userId" bson:"userId"`
}

func NewDocument(p Profile) Document {
	availability := p.Availability
	skills := p.Skills.clone()
	return Document{
		Name:          p.Name,
		Contact:       p.Contact,
		Skills:        skills,
		Availability:  &availability,
		Charges:       p.Charges,
		Location:      p.Location,
		ImageURL:      p.ImageURL,
		ImagePublicID: p.ImagePublicID,
		UserID:        p.UserID,
	}
}

// Profile converts a stored document keyed by id, backfilling a missing
// availability with the all-false default.
func (d Document) Profile(id string) Profile {
	p := Profile{
		ID:            id,
		Name:          d.Name,
		Contact:       d.Contact,
		Skills:        Skills(d.Skills).clone(),
		Charges:       d.Charges,
		Location:      d.Location,
		ImageURL:      d.ImageURL,
		ImagePublicID: d.ImagePublicID,
		UserID:        d.UserID,
	}
	if d.Availability != nil {
		p.Availability = *d.Availability
	}
	return p
}

// Repository is the document store: one profile document per user id.
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Set(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID string) error
}

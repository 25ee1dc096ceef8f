// Package membership validates group parameters and admits members to a group's roster.
package membership

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mmynk/chitfund/internal/models"
)

const (
	MinMembers        = 3
	MaxMembers        = 50
	MaxDurationCycles = 60
	MinNameLength     = 3
)

// Params are the inputs to group creation.
type Params struct {
	Name               string
	ContributionAmount models.Amount
	TotalMembers       int

	// DurationCycles defaults to TotalMembers when zero.
	DurationCycles int

	Creator string
}

// normalize fills defaults without validating.
func (p Params) normalize() Params {
	p.Name = strings.TrimSpace(p.Name)
	if p.DurationCycles == 0 {
		p.DurationCycles = p.TotalMembers
	}
	return p
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

// Validate reports every problem with p at once.
func Validate(p Params) error {
	p = p.normalize()
	var errs []error

	if len(p.Name) < MinNameLength {
		errs = append(errs, violation("name must be at least %d characters", MinNameLength))
	}
	if p.Creator == "" {
		errs = append(errs, violation("creator is required"))
	}
	if p.TotalMembers < MinMembers || p.TotalMembers > MaxMembers {
		errs = append(errs, violation("total members must be between %d and %d, got %d", MinMembers, MaxMembers, p.TotalMembers))
	}
	if p.DurationCycles < p.TotalMembers {
		errs = append(errs, violation("duration of %d cycles is shorter than the %d members", p.DurationCycles, p.TotalMembers))
	}
	if p.DurationCycles > MaxDurationCycles {
		errs = append(errs, violation("duration must be at most %d cycles, got %d", MaxDurationCycles, p.DurationCycles))
	}
	if p.ContributionAmount <= 0 {
		errs = append(errs, violation("contribution amount must be greater than 0"))
	} else if p.ContributionAmount > models.Amount(math.MaxInt64/(MaxMembers*MaxDurationCycles)) {
		errs = append(errs, violation("contribution amount %d is too large", p.ContributionAmount))
	}

	return errors.Join(errs...)
}

// NewGroup builds a Forming group whose roster holds only the creator.
func NewGroup(id string, p Params, createdAt int64) (*models.Group, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	p = p.normalize()

	return &models.Group{
		ID:                 id,
		Name:               p.Name,
		ContributionAmount: p.ContributionAmount,
		TotalMembers:       p.TotalMembers,
		DurationCycles:     p.DurationCycles,
		Members:            []string{p.Creator},
		Status:             models.GroupForming,
		CreatedBy:          p.Creator,
		CreatedAt:          createdAt,
	}, nil
}

// Join appends member to the roster and reports whether the roster is now full.
// On error the roster is unchanged.
func Join(g *models.Group, member string) (full bool, err error) {
	if member == "" {
		return false, violation("member is required")
	}
	if g.IsMember(member) {
		return false, fmt.Errorf("%w: %s in group %s", models.ErrAlreadyMember, member, g.ID)
	}
	if g.IsFull() {
		return false, fmt.Errorf("%w: %d of %d members", models.ErrGroupFull, len(g.Members), g.TotalMembers)
	}
	if g.Status != models.GroupForming {
		return false, models.NewStateError("join", string(models.GroupForming), string(g.Status))
	}

	g.Members = append(g.Members, member)
	return g.IsFull(), nil
}

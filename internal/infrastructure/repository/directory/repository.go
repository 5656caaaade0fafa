package directory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database/entities"
	"github.com/iuridev/sge-messaging-api/internal/utils/platformerrors"
)

// Repository reads profile rows owned by the identity service and implements
// messaging.Directory. Eligibility rules: admins see every other profile,
// managers see admins plus managers of their own organization.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var row entities.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"profile not found",
				err,
				"b2e8d4a6-7c1f-4b9e-8a3d-6f0c2e9b5a74",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get profile",
			err,
			"d7a3f9c1-5e8b-4d2f-9c6a-1b4e8f3a7d05",
		)
	}
	profile := mapProfile(row)
	return &profile, nil
}

// ListEligibleContacts returns the profiles self may message, ordered by
// display name so the contact list base order is deterministic.
func (r *Repository) ListEligibleContacts(ctx context.Context, self *domain.Profile) ([]*domain.Profile, error) {
	query := r.db.WithContext(ctx).Where("id <> ?", self.ID)
	switch self.Role {
	case domain.RoleAdmin:
		// Admins can reach everyone.
	case domain.RoleManager:
		query = query.Where(
			"role = ? OR (role = ? AND organization_id = ?)",
			string(domain.RoleAdmin), string(domain.RoleManager), self.OrganizationID,
		)
	default:
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeForbidden,
			"role has no messaging eligibility",
			nil,
			"e4c0a8f2-9d6b-4e7a-b1c3-8f5d2a7e9c46",
		)
	}

	var rows []entities.Profile
	if err := query.Order("display_name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list eligible contacts",
			err,
			"f8b6d2e4-3a9c-4f1b-8e5d-7c2a9f4b6e18",
		)
	}

	profiles := make([]*domain.Profile, 0, len(rows))
	for i := range rows {
		profile := mapProfile(rows[i])
		profiles = append(profiles, &profile)
	}
	return profiles, nil
}

func mapProfile(row entities.Profile) domain.Profile {
	return domain.Profile{
		ID:             row.ID,
		DisplayName:    row.DisplayName,
		Role:           domain.Role(row.Role),
		Sector:         row.Sector,
		OrganizationID: row.OrganizationID,
	}
}

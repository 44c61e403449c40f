// Package organization provides store operations for organizations and their members.
package organization

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/uniuri"
)

const (
	// slugSuffixLen is the length of the random part added to derived slugs.
	slugSuffixLen = 6
	// slugAttempts bounds the retries of a derived slug that is taken.
	slugAttempts = 5
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrOrganizationNotFound is returned when no organization matches.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrNameEmpty is returned when an organization is created without name.
	ErrNameEmpty = errors.New("organization name cannot be empty")
	// ErrSlugTaken is returned when the slug is used by another organization.
	ErrSlugTaken = errors.New("organization slug already exists")
	// ErrMemberNotFound is returned when the user is not a member.
	ErrMemberNotFound = errors.New("member not found")
	// ErrAlreadyMember is returned when the user is already a member.
	ErrAlreadyMember = errors.New("user is already a member of this organization")
	// ErrInvalidRole is returned for roles other than owner, admin and member.
	ErrInvalidRole = errors.New("invalid member role")
)

// Slugify derives a url safe slug from a name.
func Slugify(name string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)

			dash = false
		case !dash && b.Len() > 0:
			b.WriteRune('-')

			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// slugSuffix is lower case so derived slugs stay within Slugify's alphabet.
func slugSuffix() string {
	return strings.ToLower(uniuri.NewLen(slugSuffixLen))
}

// derivedSlug is the slug of a name, "org-<random>" when the name has no ascii letters or digits.
func derivedSlug(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}

	return "org-" + slugSuffix()
}

// Create stores an organization and makes ownerID its owner in one transaction.
// An explicit slug must be free. A slug derived from the name gets a random
// suffix when it is taken.
func Create(db *gorm.DB, org *models.Organization, ownerID string) (*models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return nil, ErrNameEmpty
	}

	org.Slug = strings.TrimSpace(org.Slug)
	derived := org.Slug == ""

	if derived {
		org.Slug = derivedSlug(org.Name)
	}

	base := org.Slug
	owner := &models.Member{UserID: ownerID, Role: models.RoleOwner}

	for attempt := 0; ; attempt++ {
		err := create(db, org, owner)

		switch {
		case err == nil:
			return owner, nil
		case errors.Is(err, ErrSlugTaken) && derived && attempt < slugAttempts:
			org.Slug = base + "-" + slugSuffix()
		default:
			return nil, err
		}
	}
}

func create(db *gorm.DB, org *models.Organization, owner *models.Member) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Organization{}).Where("slug = ?", org.Slug).Count(&count).Error; err != nil {
			return fmt.Errorf("check slug: %w", err)
		}

		if count > 0 {
			return ErrSlugTaken
		}

		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("create organization: %w", err)
		}

		owner.OrganizationID = org.ID

		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("create owner: %w", err)
		}

		return nil
	})
}

// Get retrieves an organization by id.
func Get(db *gorm.DB, id string) (*models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var org models.Organization
	if err := db.Where("id = ?", id).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("get organization: %w", err)
	}

	return &org, nil
}

// GetBySlug retrieves an organization by slug.
func GetBySlug(db *gorm.DB, slug string) (*models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var org models.Organization
	if err := db.Where("slug = ?", slug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}

		return nil, fmt.Errorf("get organization by slug: %w", err)
	}

	return &org, nil
}

// ListForUser returns the organizations a user is a member of, oldest membership first.
func ListForUser(db *gorm.DB, userID string) ([]models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var orgs []models.Organization

	err := db.Joins("JOIN members ON members.organization_id = organizations.id").
		Where("members.user_id = ?", userID).
		Order("members.created_at").
		Find(&orgs).Error
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	return orgs, nil
}

// ActiveForUser resolves the organization a user currently works in.
// It is the active organization of the latest session while the user is still a member there,
// otherwise the organization of the oldest membership. Users without memberships get nil and no error.
func ActiveForUser(db *gorm.DB, userID string) (*models.Organization, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var latest models.Session

	err := db.Where("user_id = ? AND active_organization_id IS NOT NULL", userID).
		Order("created_at DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}

	if latest.ActiveOrganizationID != nil {
		_, err = GetMember(db, *latest.ActiveOrganizationID, userID)

		switch {
		case err == nil:
			return Get(db, *latest.ActiveOrganizationID)
		case !errors.Is(err, ErrMemberNotFound):
			return nil, err
		}
	}

	orgs, err := ListForUser(db, userID)
	if err != nil {
		return nil, err
	}

	if len(orgs) == 0 {
		return nil, nil //nolint:nilnil
	}

	return &orgs[0], nil
}

// Delete removes an organization with its members and invitations.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).Delete(&models.Invitation{}).Error; err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}

		if err := tx.Where("organization_id = ?", id).Delete(&models.Member{}).Error; err != nil {
			return fmt.Errorf("delete members: %w", err)
		}

		if err := tx.Model(&models.Session{}).Where("active_organization_id = ?", id).
			Update("active_organization_id", nil).Error; err != nil {
			return fmt.Errorf("clear sessions: %w", err)
		}

		res := tx.Where("id = ?", id).Delete(&models.Organization{})
		if res.Error != nil {
			return fmt.Errorf("delete organization: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrOrganizationNotFound
		}

		return nil
	})
}

package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskhub/internal/database"
	"github.com/yukikurage/taskhub/internal/models"
	"github.com/yukikurage/taskhub/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCreateProject is returned when inserting the project row fails inside CreateWithOwner.
	ErrCreateProject = errors.New("project repository: create project failed")
	// ErrCreateOwnerMembership is returned when inserting the owner's membership fails inside CreateWithOwner.
	ErrCreateOwnerMembership = errors.New("project repository: create owner membership failed")
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithOwner creates a project and the owner's admin membership in one transaction
func (r *GormProjectRepository) CreateWithOwner(project *models.Project, owner *models.Membership) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateProject, err)
		}

		owner.ProjectID = project.ID
		owner.UserID = project.OwnerID
		if err := tx.Omit(clause.Associations).Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOwnerMembership, err)
		}

		return nil
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.Preload("Owner").First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser lists the projects a user belongs to, oldest first
func (r *GormProjectRepository) ListForUser(userID uint64, params utils.PaginationParams) ([]models.Project, int64, error) {
	memberOf := r.db.Model(&models.Membership{}).Select("project_id").Where("user_id = ?", userID)
	query := r.db.Model(&models.Project{}).
		Where("projects.owner_id = ? OR projects.id IN (?)", userID, memberOf)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	if err := query.
		Preload("Owner").
		Scopes(database.CreationOrder("projects"), database.Paginate(params)).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit(clause.Associations).Save(project).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteProject(tx, id)
	})
}

// deleteProject removes a project with its tasks, comments, time logs and memberships. tx must
// already be a transaction.
func deleteProject(tx *gorm.DB, id uint64) error {
	taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

	if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TimeLog{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Project{}, id).Error
}

// FindMember finds a specific membership
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// EnsureMember returns the existing membership untouched, or creates a non-admin one.
// The bool reports whether a row was created.
func (r *GormProjectRepository) EnsureMember(projectID, userID uint64) (*models.Membership, bool, error) {
	existing, err := r.FindMember(projectID, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	member := &models.Membership{ProjectID: projectID, UserID: userID, IsAdmin: false}
	if err := r.db.Omit(clause.Associations).Create(member).Error; err != nil {
		// Lost a race against a concurrent insert; the unique index kept one row.
		if existing, findErr := r.FindMember(projectID, userID); findErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return member, true, nil
}

// FirstMembership returns the user's earliest membership
func (r *GormProjectRepository) FirstMembership(userID uint64) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.Where("user_id = ?", userID).
		Scopes(database.CreationOrder("memberships")).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Scopes(database.CreationOrder("memberships")).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

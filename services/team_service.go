package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/playverse/playverse-backend/models"
	"github.com/playverse/playverse-backend/repositories"
	"github.com/playverse/playverse-backend/storage"
)

type CreateTeamInput struct {
	Name        string `json:"name"`
	MemberLimit int    `json:"member_limit"`
}

type TeamService interface {
	Create(ctx context.Context, ownerID int, input CreateTeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	AddMember(ctx context.Context, teamID, requesterID, userID int) error
	Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository, uploader storage.FileUploader) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo, uploader: uploader}
}

func (s *teamService) Create(ctx context.Context, ownerID int, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if input.MemberLimit <= 0 {
		return nil, ErrValidationFailed
	}

	team := &models.Team{
		Name:        input.Name,
		OwnerID:     ownerID,
		MemberLimit: input.MemberLimit,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerConflict) {
			return nil, ErrTeamOwnerConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	memberIDs, err := s.teamRepo.ListMemberIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	members := make([]models.User, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		member, memberErr := s.userRepo.GetByID(ctx, memberID)
		if memberErr != nil {
			if errors.Is(memberErr, repositories.ErrUserNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load team member: %w", memberErr)
		}
		populateUserURLs(member, s.uploader)
		members = append(members, *member)
	}
	team.Members = members
	return team, nil
}

// AddMember добавляет пользователя в команду. Лимит состава проверяется в том
// же операторе, что и вставка, так что гонка на последнее место невозможна.
func (s *teamService) AddMember(ctx context.Context, teamID, requesterID, userID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team.OwnerID != requesterID {
		return ErrForbiddenOperation
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to check user: %w", err)
	}

	if err := s.teamRepo.AddMember(ctx, teamID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamMemberConflict):
			return ErrTeamMemberConflict
		case errors.Is(err, repositories.ErrTeamFull):
			return ErrTeamFull
		case errors.Is(err, repositories.ErrTeamMemberInvalid):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (s *teamService) Delete(ctx context.Context, id, requesterID int, requesterRole models.UserRole) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team.OwnerID != requesterID && requesterRole != models.RoleAdmin {
		return ErrForbiddenOperation
	}

	if err := s.teamRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
	"github.com/zulumai/exam-portal/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken = errors.New("username is already registered")
	ErrUserNotFound  = errors.New("user not found")
)

// AccountService manages student accounts and their recorded results.
type AccountService struct {
	userRepo    *repository.UserRepository
	resultRepo  *repository.ResultRepository
	store       storage.Provider
	emailDomain string
	log         zerolog.Logger
}

func NewAccountService(userRepo *repository.UserRepository, resultRepo *repository.ResultRepository, store storage.Provider, emailDomain string, log zerolog.Logger) *AccountService {
	return &AccountService{
		userRepo:    userRepo,
		resultRepo:  resultRepo,
		store:       store,
		emailDomain: emailDomain,
		log:         log.With().Str("component", "account_service").Logger(),
	}
}

// ProfileImage carries an uploaded image stream alongside its metadata.
type ProfileImage struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// Create registers a new student account. The email address is derived
// from the username under the portal's domain. A profile image, when
// provided, is stored before the row is written.
func (s *AccountService) Create(ctx context.Context, req *model.CreateUserRequest, image *ProfileImage) (*model.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	imageURL := ""
	if image != nil {
		imageURL, err = s.store.Upload(ctx, image.Reader, image.Size, image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store profile image: %w", err)
		}
	}

	user := &model.User{
		Username:        username,
		Email:           fmt.Sprintf("%s@%s", username, s.emailDomain),
		FullName:        strings.TrimSpace(req.FullName),
		Role:            model.RoleStudent,
		PasswordHash:    string(hash),
		ProfileImageURL: imageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if imageURL != "" {
			_ = s.store.Delete(ctx, imageURL)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", user.Username).
		Msg("Student account created")
	return user, nil
}

// Get returns a single account by id.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// List returns all registered accounts, newest first.
func (s *AccountService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// Delete removes an account together with its recorded results and
// stored profile image.
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.resultRepo.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if user.ProfileImageURL != "" {
		if err := s.store.Delete(ctx, user.ProfileImageURL); err != nil {
			s.log.Warn().Err(err).Str("user_id", id.String()).Msg("Profile image not removed")
		}
	}

	s.log.Info().Str("user_id", id.String()).Msg("Student account deleted")
	return nil
}

// ResetExam purges every recorded result for the account so the student
// can retake the exams with a clean history.
func (s *AccountService) ResetExam(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}

	deleted, err := s.resultRepo.DeleteByUser(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("purge results: %w", err)
	}

	s.log.Info().
		Str("user_id", id.String()).
		Int64("results_deleted", deleted).
		Msg("Exam history reset")
	return deleted, nil
}

// Results returns the account's exam history, newest first.
func (s *AccountService) Results(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	return s.resultRepo.ListByUser(ctx, userID)
}

// AllResults returns one page of recorded exam results together with the
// total row count, for the admin results table.
func (s *AccountService) AllResults(ctx context.Context, page, perPage int) ([]model.ExamResult, int, error) {
	total, err := s.resultRepo.CountAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	results, err := s.resultRepo.ListAll(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	return results, total, nil
}

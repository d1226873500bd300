package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/abudi-09/CMS-sub000/internal/database"
	"github.com/abudi-09/CMS-sub000/internal/models"
	"github.com/abudi-09/CMS-sub000/internal/repository"
	"github.com/abudi-09/CMS-sub000/pkg/utils"
)

type UserService interface {
	Register(ctx context.Context, req *models.UserRegisterRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.UserLoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, token string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error)
	ListUsers(ctx context.Context, filter *models.UserFilter) ([]models.UserResponse, int64, error)
	ListByRole(ctx context.Context, role models.Role, department string) ([]models.UserResponse, error)
	Approve(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.UserResponse, error)
	Deactivate(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.UserResponse, error)
}

type userService struct {
	users        repository.UserRepository
	notifier     NotificationService
	dispatcher   Dispatcher
	jwtManager   *utils.JWTManager
	sessionStore *database.SessionStore
	log          zerolog.Logger
}

func NewUserService(
	users repository.UserRepository,
	notifier NotificationService,
	dispatcher Dispatcher,
	jwtManager *utils.JWTManager,
	sessionStore *database.SessionStore,
	log zerolog.Logger,
) UserService {
	return &userService{
		users:        users,
		notifier:     notifier,
		dispatcher:   dispatcher,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		log:          log.With().Str("component", "users").Logger(),
	}
}

// Register creates a pending account. Nobody self-assigns a privileged role
// into an approved state: every signup waits for admin approval.
func (s *userService) Register(ctx context.Context, req *models.UserRegisterRequest) (*models.UserResponse, error) {
	role := models.RoleStudent
	if req.Role != "" {
		normalized, ok := models.NormalizeRole(req.Role)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
		}
		role = normalized
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
	}
	exists, err = s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: username already taken", ErrDuplicate)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      req.Email,
		Username:   req.Username,
		Password:   hashed,
		FullName:   req.FullName,
		Role:       role,
		Department: req.Department,
		IsApproved: false,
		IsActive:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.notifyAdminsOfSignup(user)

	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) Login(ctx context.Context, req *models.UserLoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	if !user.IsApproved {
		return nil, ErrPendingApproval
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := database.Session{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    string(user.Role),
		LoginAt: now,
	}
	if err := s.sessionStore.SetUserSession(ctx, session, s.jwtManager.GetTokenExpiration()); err != nil {
		return nil, err
	}

	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("could not stamp last login")
	}

	return &models.LoginResponse{
		Token: token,
		User:  models.ToUserResponse(user),
	}, nil
}

func (s *userService) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.sessionStore.DeleteUserSession(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("could not delete session")
	}
	return s.sessionStore.BlacklistToken(ctx, token, s.jwtManager.GetTokenExpiration())
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, filter *models.UserFilter) ([]models.UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = models.ToUserResponse(&users[i])
	}
	return responses, total, nil
}

func (s *userService) ListByRole(ctx context.Context, role models.Role, department string) ([]models.UserResponse, error) {
	users, err := s.users.ListByRole(ctx, role, department)
	if err != nil {
		return nil, err
	}
	responses := make([]models.UserResponse, len(users))
	for i := range users {
		responses[i] = models.ToUserResponse(&users[i])
	}
	return responses, nil
}

func (s *userService) Approve(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.UserResponse, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.IsApproved = true
	user.IsRejected = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	uid := user.ID
	s.dispatcher.Enqueue("notify-approval", func(ctx context.Context) {
		err := s.notifier.Notify(ctx, &models.Notification{
			UserID:  uid,
			Type:    models.NotificationUserSignup,
			Title:   "Account approved",
			Message: "Your account has been approved. You can now use the complaint system.",
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("approval notification failed")
		}
	})

	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) Deactivate(ctx context.Context, actor models.Actor, userID uuid.UUID) (*models.UserResponse, error) {
	if actor.Role != models.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	if actor.ID == userID {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", ErrValidation)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	// Drop the live session; the per-request user re-read locks the account out.
	if err := s.sessionStore.DeleteUserSession(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("could not delete session on deactivation")
	}

	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) notifyAdminsOfSignup(user *models.User) {
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	role := user.Role
	s.dispatcher.Enqueue("notify-signup", func(ctx context.Context) {
		admins, err := s.users.ListIDsByRoles(ctx, "", []models.Role{models.RoleAdmin})
		if err != nil {
			s.log.Warn().Err(err).Msg("could not resolve admins for signup notice")
			return
		}
		err = s.notifier.NotifyUsers(ctx, admins, models.Notification{
			Type:    models.NotificationUserSignup,
			Title:   "New account pending approval",
			Message: fmt.Sprintf("%s registered as %s and is awaiting approval.", name, role),
		})
		if err != nil {
			s.log.Warn().Err(err).Msg("signup notification failed")
		}
	})
}

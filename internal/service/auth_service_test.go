package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tasktrack/internal/auth"
	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
)

func TestAuthService_Register(t *testing.T) {
	employeeID := uint(3)

	tests := []struct {
		name          string
		username      string
		password      string
		role          model.Role
		employeeID    *uint
		setupMock     func(*MockUserRepository)
		expectedError error
		expectedRole  model.Role
	}{
		{
			name:     "successful registration with defaults",
			username: "john.doe",
			password: "password123",
			role:     "",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "john.doe").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleUser,
		},
		{
			name:       "registration with explicit role and employee link",
			username:   "boss",
			password:   "password123",
			role:       model.RoleAdmin,
			employeeID: &employeeID,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "boss").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleAdmin,
		},
		{
			name:     "username already exists",
			username: "taken",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "taken").Return(&model.User{Username: "taken"}, nil)
			},
			expectedError: apperrors.ErrUsernameTaken,
		},
		{
			name:          "unknown role rejected",
			username:      "odd",
			password:      "password123",
			role:          model.Role("superuser"),
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService)

			user, err := service.Register(context.Background(), tt.username, tt.password, tt.role, tt.employeeID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.username, user.Username)
				assert.Equal(t, tt.expectedRole, user.Role)
				assert.Equal(t, tt.employeeID, user.EmployeeID)
				// Hash, never the plaintext
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	employeeID := uint(5)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), 10)

	tests := []struct {
		name          string
		username      string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			username: "jane.smith",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "jane.smith").Return(&model.User{
					ID:           2,
					Username:     "jane.smith",
					PasswordHash: string(hashedPassword),
					Role:         model.RoleUser,
					EmployeeID:   &employeeID,
				}, nil)
			},
		},
		{
			name:     "unknown username",
			username: "nobody",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "nobody").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			username: "jane.smith",
			password: "letmein",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByUsername", mock.Anything, "jane.smith").Return(&model.User{
					ID:           2,
					Username:     "jane.smith",
					PasswordHash: string(hashedPassword),
					Role:         model.RoleUser,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret")
			service := NewAuthService(mockRepo, jwtService)

			token, user, err := service.Login(context.Background(), tt.username, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.NotNil(t, user)

				// Embedded claims match what was registered
				claims, err := jwtService.ValidateToken(token)
				assert.NoError(t, err)
				assert.Equal(t, user.ID, claims.UserID)
				assert.Equal(t, user.Username, claims.Username)
				assert.Equal(t, user.Role, claims.Role)
				assert.Equal(t, user.EmployeeID, claims.EmployeeID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	jwtService := auth.NewJWTService("test-secret")
	service := NewAuthService(mockRepo, jwtService)

	var stored *model.User
	mockRepo.On("FindByUsername", mock.Anything, "mike.johnson").Return(nil, gorm.ErrRecordNotFound).Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*model.User)
		stored.ID = 9
	}).Return(nil)

	employeeID := uint(3)
	_, err := service.Register(context.Background(), "mike.johnson", "password123", model.RoleUser, &employeeID)
	assert.NoError(t, err)

	mockRepo.On("FindByUsername", mock.Anything, "mike.johnson").Return(stored, nil)

	token, user, err := service.Login(context.Background(), "mike.johnson", "password123")
	assert.NoError(t, err)
	assert.Equal(t, uint(9), user.ID)

	claims, err := jwtService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleUser, claims.Role)
	if assert.NotNil(t, claims.EmployeeID) {
		assert.Equal(t, employeeID, *claims.EmployeeID)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewAuthService(mockRepo, auth.NewJWTService("test-secret"))

	mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Username: "admin"}, nil)
	mockRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	user, err := service.CurrentUser(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "admin", user.Username)

	_, err = service.CurrentUser(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tasktrack/internal/cache"
	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
)

const employeeCacheTTL = 5 * time.Minute

// EmployeeService handles employee operations.
type EmployeeService interface {
	List(ctx context.Context) ([]model.Employee, error)
	Get(ctx context.Context, id uint) (*model.Employee, error)
	Create(ctx context.Context, employee *model.Employee) (*model.Employee, error)
	Update(ctx context.Context, id uint, fields *model.Employee) (*model.Employee, error)
	Delete(ctx context.Context, id uint) error
}

type employeeService struct {
	repo  repository.EmployeeRepository
	cache *cache.Client
}

// NewEmployeeService creates a new employee service.
func NewEmployeeService(repo repository.EmployeeRepository, cache *cache.Client) EmployeeService {
	return &employeeService{
		repo:  repo,
		cache: cache,
	}
}

func (s *employeeService) cacheKey(id uint) string {
	return fmt.Sprintf("employee:%d", id)
}

func (s *employeeService) List(ctx context.Context) ([]model.Employee, error) {
	return s.repo.List(ctx)
}

// Get retrieves an employee by ID with cache-aside caching.
func (s *employeeService) Get(ctx context.Context, id uint) (*model.Employee, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.Employee
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(employee); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, employeeCacheTTL)
	}

	return employee, nil
}

func (s *employeeService) Create(ctx context.Context, employee *model.Employee) (*model.Employee, error) {
	if err := s.repo.Create(ctx, employee); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	_ = s.cache.Delete(ctx, dashboardCacheKey)
	return employee, nil
}

func (s *employeeService) Update(ctx context.Context, id uint, fields *model.Employee) (*model.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEmployeeNotFound
		}
		return nil, err
	}

	employee.Name = fields.Name
	employee.Email = fields.Email
	employee.Department = fields.Department
	employee.Position = fields.Position

	if err := s.repo.Update(ctx, employee); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return employee, nil
}

// Delete removes the employee unconditionally. Tasks referencing it are
// unassigned rather than deleted; see EmployeeRepository.Delete.
func (s *employeeService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id), dashboardCacheKey)
	return nil
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "tasktrack/internal/errors"
	"tasktrack/internal/model"
)

func TestEmployeeService_Get(t *testing.T) {
	mockRepo := new(MockEmployeeRepository)
	mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.Employee{ID: 1, Name: "Ann Lee", Email: "ann@x.com"}, nil)
	mockRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	service := NewEmployeeService(mockRepo, nil)

	employee, err := service.Get(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "Ann Lee", employee.Name)

	_, err = service.Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperrors.ErrEmployeeNotFound)
}

func TestEmployeeService_Create_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockEmployeeRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Employee")).Return(gorm.ErrDuplicatedKey)

	service := NewEmployeeService(mockRepo, nil)

	_, err := service.Create(context.Background(), &model.Employee{Name: "Ann Lee", Email: "ann@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestEmployeeService_Update(t *testing.T) {
	mockRepo := new(MockEmployeeRepository)
	mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.Employee{
		ID: 1, Name: "Ann Lee", Email: "ann@x.com", Department: "Sales",
	}, nil)
	var saved *model.Employee
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Employee")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.Employee)
	}).Return(nil)

	service := NewEmployeeService(mockRepo, nil)

	employee, err := service.Update(context.Background(), 1, &model.Employee{
		Name:  "Ann Lee",
		Email: "ann.lee@x.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, "ann.lee@x.com", employee.Email)
	// update writes whole-record field values, free text included
	assert.Equal(t, "", saved.Department)
	assert.Equal(t, uint(1), saved.ID)
}

func TestEmployeeService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockEmployeeRepository)
	mockRepo.On("FindByID", mock.Anything, uint(7)).Return(nil, gorm.ErrRecordNotFound)

	service := NewEmployeeService(mockRepo, nil)

	_, err := service.Update(context.Background(), 7, &model.Employee{Name: "x", Email: "x@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrEmployeeNotFound)
}

func TestEmployeeService_Delete(t *testing.T) {
	mockRepo := new(MockEmployeeRepository)
	mockRepo.On("Delete", mock.Anything, uint(1)).Return(nil)

	service := NewEmployeeService(mockRepo, nil)

	assert.NoError(t, service.Delete(context.Background(), 1))
	mockRepo.AssertExpectations(t)
}

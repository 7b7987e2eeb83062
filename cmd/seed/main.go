package main

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tasktrack/internal/config"
	"tasktrack/internal/db"
	"tasktrack/internal/model"
	"tasktrack/internal/repository"
)

const seedPassword = "password123"

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.Employee{}, &model.User{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	employees, err := seedEmployees(ctx, gormDB)
	if err != nil {
		log.Fatalf("Failed to seed employees: %v", err)
	}
	log.Printf("Seeded %d employees", len(employees))

	users, err := seedUsers(ctx, gormDB, employees)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Printf("Seeded %d users", users)

	tasks, err := seedTasks(ctx, gormDB, employees)
	if err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}
	log.Printf("Seeded %d tasks", tasks)

	log.Println("Seed completed successfully!")
	log.Println("Login credentials:")
	log.Printf("  Admin: username=admin, password=%s", seedPassword)
	log.Printf("  Users: john.doe / jane.smith / mike.johnson, password=%s", seedPassword)
}

// seedEmployees creates the demo employees, keyed by email so reruns are safe.
func seedEmployees(ctx context.Context, gormDB *gorm.DB) ([]model.Employee, error) {
	repo := repository.NewEmployeeRepository(gormDB)

	demo := []model.Employee{
		{Name: "John Doe", Email: "john.doe@example.com", Department: "Engineering", Position: "Backend Developer"},
		{Name: "Jane Smith", Email: "jane.smith@example.com", Department: "Engineering", Position: "Frontend Developer"},
		{Name: "Mike Johnson", Email: "mike.johnson@example.com", Department: "Operations", Position: "Systems Administrator"},
	}

	seeded := make([]model.Employee, 0, len(demo))
	for _, employee := range demo {
		var existing model.Employee
		err := gormDB.WithContext(ctx).Where("email = ?", employee.Email).First(&existing).Error
		if err == nil {
			seeded = append(seeded, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err := repo.Create(ctx, &employee); err != nil {
			return nil, err
		}
		seeded = append(seeded, employee)
	}
	return seeded, nil
}

// seedUsers creates the admin plus one linked user per demo employee.
func seedUsers(ctx context.Context, gormDB *gorm.DB, employees []model.Employee) (int, error) {
	repo := repository.NewUserRepository(gormDB)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seedPassword), 10)
	if err != nil {
		return 0, err
	}

	users := []model.User{
		{Username: "admin", Role: model.RoleAdmin},
	}
	usernames := []string{"john.doe", "jane.smith", "mike.johnson"}
	for i, employee := range employees {
		if i >= len(usernames) {
			break
		}
		id := employee.ID
		users = append(users, model.User{
			Username:   usernames[i],
			Role:       model.RoleUser,
			EmployeeID: &id,
		})
	}

	count := 0
	for _, user := range users {
		if _, err := repo.FindByUsername(ctx, user.Username); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return count, err
		}
		user.PasswordHash = string(hashedPassword)
		if err := repo.Create(ctx, &user); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// seedTasks creates a handful of demo tasks when the table is empty.
func seedTasks(ctx context.Context, gormDB *gorm.DB, employees []model.Employee) (int, error) {
	repo := repository.NewTaskRepository(gormDB)

	var existing int64
	if err := gormDB.WithContext(ctx).Model(&model.Task{}).Count(&existing).Error; err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	if len(employees) < 3 {
		return 0, nil
	}

	due := time.Now().AddDate(0, 0, 14)
	tasks := []model.Task{
		{Title: "Set up CI pipeline", Description: "Build and test on every push", Status: model.TaskStatusInProgress, Priority: model.TaskPriorityHigh, EmployeeID: &employees[0].ID, DueDate: &due},
		{Title: "Redesign login page", Status: model.TaskStatusPending, Priority: model.TaskPriorityMedium, EmployeeID: &employees[1].ID},
		{Title: "Rotate backup credentials", Status: model.TaskStatusCompleted, Priority: model.TaskPriorityHigh, EmployeeID: &employees[2].ID},
		{Title: "Write onboarding docs", Status: model.TaskStatusPending, Priority: model.TaskPriorityLow},
	}

	count := 0
	for i := range tasks {
		if err := repo.Create(ctx, &tasks[i]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

package main

import (
	"context"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskman/internal/config"
	"taskman/internal/db"
	"taskman/internal/model"
	"taskman/internal/repository"
)

type seedUser struct {
	Username string
	Email    string
	Password string
	Tasks    []model.Task
}

var seedData = []seedUser{
	{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Tasks: []model.Task{
			{Title: "Buy milk", Status: model.TaskStatusTodo},
			{Title: "Write report", Description: "Quarterly numbers", Status: model.TaskStatusInProgress},
		},
	},
	{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret2",
		Tasks: []model.Task{
			{Title: "Ship release", Status: model.TaskStatusCompleted},
		},
	},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewPostgres(cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	created := 0
	for _, su := range seedData {
		// Idempotent by email: existing users keep their current data.
		if _, err := userRepo.FindByEmail(ctx, su.Email); err == nil {
			log.Printf("User %s already exists, skipping", su.Email)
			continue
		} else if err != gorm.ErrRecordNotFound {
			log.Fatalf("Lookup %s: %v", su.Email, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Hash password for %s: %v", su.Email, err)
		}

		user := &model.User{
			Username:     su.Username,
			Email:        su.Email,
			PasswordHash: string(hash),
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Create user %s: %v", su.Email, err)
		}

		for _, task := range su.Tasks {
			task.OwnerID = user.ID
			if err := taskRepo.Create(ctx, &task); err != nil {
				log.Fatalf("Create task %q for %s: %v", task.Title, su.Email, err)
			}
		}
		created++
	}

	log.Printf("Seed complete: %d users created", created)
}

package app

import (
	"github.com/virtuos/siddata-backend/internal/handlers"
	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/middleware"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Student     *handlers.StudentHandler
	Activity    *handlers.ActivityHandler
	Recommender *handlers.RecommenderHandler
}

func wireHandlers(log *logger.Logger, r Repos, s Services) Handlers {
	log.Info("Wiring handlers...")
	student := handlers.NewStudentHandler(r.Origin, s.User)
	return Handlers{
		Auth:        handlers.NewAuthHandler(s.Auth),
		Student:     student,
		Activity:    handlers.NewActivityHandler(student, s.Dispatch),
		Recommender: handlers.NewRecommenderHandler(student, s.Registry, r.Recommender, r.Enrollment),
	}
}

func wireMiddleware(log *logger.Logger, s Services) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(log, s.Auth)
}

package app

import (
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
)

type Repos struct {
	Origin      repos.OriginRepo
	User        repos.UserRepo
	Recommender repos.RecommenderRepo
	Enrollment  repos.EnrollmentRepo
	Goal        repos.GoalRepo
	Activity    repos.ActivityRepo
	Content     repos.ContentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Origin:      repos.NewOriginRepo(db, log),
		User:        repos.NewUserRepo(db, log),
		Recommender: repos.NewRecommenderRepo(db, log),
		Enrollment:  repos.NewEnrollmentRepo(db, log),
		Goal:        repos.NewGoalRepo(db, log),
		Activity:    repos.NewActivityRepo(db, log),
		Content:     repos.NewContentRepo(db, log),
	}
}

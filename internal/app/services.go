package app

import (
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/platform/classifier"
	"github.com/virtuos/siddata-backend/internal/platform/mailer"
	"github.com/virtuos/siddata-backend/internal/recommenders"
	"github.com/virtuos/siddata-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Template services.TemplateService
	Dispatch services.DispatchService
	Batch    services.BatchService
	User     services.UserService
	Registry *recommenders.Registry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	templateService := services.NewTemplateService(db, r.Activity, cfg.Strict, log)

	registry, err := recommenders.NewRegistry(recommenders.Deps{
		Origins:      r.Origin,
		Users:        r.User,
		Recommenders: r.Recommender,
		Enrollments:  r.Enrollment,
		Goals:        r.Goal,
		Activities:   r.Activity,
		Content:      r.Content,
		Templates:    templateService,
		Classifier:   classifier.NewFromEnv(log),
		Mailer:       mailer.NewFromEnv(log),
		Log:          log,
	})
	if err != nil {
		return Services{}, err
	}

	return Services{
		Auth:     services.NewAuthService(db, log, r.Origin, cfg.JWTSecretKey, cfg.TokenTTL),
		Template: templateService,
		Dispatch: services.NewDispatchService(registry, r.Activity, r.Goal, r.Enrollment, r.Recommender, r.User, log),
		Batch:    services.NewBatchService(registry, cfg.BatchParallelism, log),
		User:     services.NewUserService(registry, r.User, r.Enrollment, r.Recommender, r.Goal, r.Activity, templateService, log),
		Registry: registry,
	}, nil
}

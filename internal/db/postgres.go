package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/types"
	"github.com/virtuos/siddata-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "siddata", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		// Unique-index violations must surface as gorm.ErrDuplicatedKey so
		// the repos can map them onto the constraint-violation taxonomy.
		TranslateError: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// Models returns every persisted entity, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&types.Origin{},
		&types.User{},
		&types.UserProperty{},
		&types.Recommender{},
		&types.Enrollment{},
		&types.Goal{},
		&types.GoalProperty{},
		&types.Question{},
		&types.Resource{},
		&types.Person{},
		&types.Activity{},
	}
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(Models()...); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_user_origin_id", `ALTER TABLE "user" ADD CONSTRAINT "fk_user_origin_id" FOREIGN KEY ("origin_id") REFERENCES "origin"("id") ON DELETE CASCADE`},
		{"fk_user_property_user_id", `ALTER TABLE "user_property" ADD CONSTRAINT "fk_user_property_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_enrollment_user_id", `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"fk_enrollment_recommender_id", `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_recommender_id" FOREIGN KEY ("recommender_id") REFERENCES "recommender"("id") ON DELETE CASCADE`},
		{"fk_goal_enrollment_id", `ALTER TABLE "goal" ADD CONSTRAINT "fk_goal_enrollment_id" FOREIGN KEY ("enrollment_id") REFERENCES "enrollment"("id") ON DELETE CASCADE`},
		{"fk_goal_property_goal_id", `ALTER TABLE "goal_property" ADD CONSTRAINT "fk_goal_property_goal_id" FOREIGN KEY ("goal_id") REFERENCES "goal"("id") ON DELETE CASCADE`},
		{"fk_activity_goal_id", `ALTER TABLE "activity" ADD CONSTRAINT "fk_activity_goal_id" FOREIGN KEY ("goal_id") REFERENCES "goal"("id") ON DELETE CASCADE`},
		{"fk_activity_question_id", `ALTER TABLE "activity" ADD CONSTRAINT "fk_activity_question_id" FOREIGN KEY ("question_id") REFERENCES "question"("id") ON DELETE SET NULL`},
		{"fk_activity_resource_id", `ALTER TABLE "activity" ADD CONSTRAINT "fk_activity_resource_id" FOREIGN KEY ("resource_id") REFERENCES "resource"("id") ON DELETE SET NULL`},
		{"fk_activity_person_id", `ALTER TABLE "activity" ADD CONSTRAINT "fk_activity_person_id" FOREIGN KEY ("person_id") REFERENCES "person"("id") ON DELETE SET NULL`},
		{"fk_resource_origin_id", `ALTER TABLE "resource" ADD CONSTRAINT "fk_resource_origin_id" FOREIGN KEY ("origin_id") REFERENCES "origin"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		drop := fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %q`, tableOf(c.stmt), c.name)
		if err := s.db.Exec(drop).Error; err != nil {
			s.log.Error("Failed to drop existing constraint", "constraint", c.name, "error", err)
			return err
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			s.log.Error("Failed to add constraint", "constraint", c.name, "error", err)
			return err
		}
	}
	return nil
}

func tableOf(stmt string) string {
	// stmt always starts with `ALTER TABLE "name" ...`.
	var table string
	fmt.Sscanf(stmt, "ALTER TABLE %s", &table)
	return table
}

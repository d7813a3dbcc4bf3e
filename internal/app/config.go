package app

import (
	"strings"
	"time"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	TokenTTL     time.Duration

	AllowedOrigins []string

	// BatchParallelism bounds concurrent plugin hooks inside one batch run.
	BatchParallelism int
	CronSpec         string
	TemplateRefresh  string

	// Strict turns template/override consistency warnings into errors.
	Strict bool
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	tokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log)
	return Config{
		JWTSecretKey:     jwtSecretKey,
		TokenTTL:         time.Duration(tokenTTLSeconds) * time.Second,
		AllowedOrigins:   strings.Split(allowedOrigins, ","),
		BatchParallelism: utils.GetEnvAsInt("BATCH_PARALLELISM", 4, log),
		CronSpec:         utils.GetEnv("SIDDATA_CRON_SPEC", "0 3 * * *", log),
		TemplateRefresh:  utils.GetEnv("SIDDATA_TEMPLATE_REFRESH_SPEC", "30 2 * * *", log),
		Strict:           utils.GetEnvAsBool("SIDDATA_STRICT", false, log),
	}
}

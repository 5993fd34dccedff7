package app

import (
	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/utils"
)

type Config struct {
	HTTPAddr string
	LogMode  string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr: utils.GetEnv("HTTP_ADDR", ":8080", log),
		LogMode:  utils.GetEnv("LOG_MODE", "development", log),
	}
}

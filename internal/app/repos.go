package app

import (
	"gorm.io/gorm"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/repos"
)

type Repos struct {
	Document repos.DocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Document: repos.NewDocumentRepo(db, log),
	}
}

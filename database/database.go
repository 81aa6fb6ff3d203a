package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type Database struct {
	db               *gorm.DB
	userRepo         *UserRepo
	projectRepo      *ProjectRepo
	projectTagRepo   *ProjectTagRepo
	projectImageRepo *ProjectImageRepo
	projectLinkRepo  *ProjectLinkRepo
	commentRepo      *CommentRepo
	contactRepo      *ContactRepo
	chatRepo         *ChatRepo
	costRepo         *CostRepo
	receiptRepo      *ReceiptRepo
	analyticsRepo    *AnalyticsRepo
	embeddingRepo    *EmbeddingRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:               db,
		userRepo:         NewUserRepo(db),
		projectRepo:      NewProjectRepo(db),
		projectTagRepo:   NewProjectTagRepo(db),
		projectImageRepo: NewProjectImageRepo(db),
		projectLinkRepo:  NewProjectLinkRepo(db),
		commentRepo:      NewCommentRepo(db),
		contactRepo:      NewContactRepo(db),
		chatRepo:         NewChatRepo(db),
		costRepo:         NewCostRepo(db),
		receiptRepo:      NewReceiptRepo(db),
		analyticsRepo:    NewAnalyticsRepo(db),
		embeddingRepo:    NewEmbeddingRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) ProjectTagRepo() *ProjectTagRepo {
	return d.projectTagRepo
}

func (d Database) ProjectImageRepo() *ProjectImageRepo {
	return d.projectImageRepo
}

func (d Database) ProjectLinkRepo() *ProjectLinkRepo {
	return d.projectLinkRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) ContactRepo() *ContactRepo {
	return d.contactRepo
}

func (d Database) ChatRepo() *ChatRepo {
	return d.chatRepo
}

func (d Database) CostRepo() *CostRepo {
	return d.costRepo
}

func (d Database) ReceiptRepo() *ReceiptRepo {
	return d.receiptRepo
}

func (d Database) AnalyticsRepo() *AnalyticsRepo {
	return d.analyticsRepo
}

func (d Database) EmbeddingRepo() *EmbeddingRepo {
	return d.embeddingRepo
}

// Migrate creates or updates the tables of every model.
func (d Database) Migrate() error {
	return Migrate(d.db)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.AllModels()...)
}

// Ping checks that the primary connection answers.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

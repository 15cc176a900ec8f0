package bootstrap

import (
	"anoa.com/socialgraph/internal/entity"
	"anoa.com/socialgraph/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Follow{},
		&entity.Notification{},
		&entity.NotificationPreference{},
		&entity.Thread{},
		&entity.Reply{},
	)
}

type seedUser struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	Role        string
	IsPrivate   bool
}

var developmentUsers = []seedUser{
	{Username: "admin", DisplayName: "Administrator", Email: "admin@example.com", Password: "admin123", Role: entity.RoleAdmin},
	{Username: "alice", DisplayName: "Alice", Email: "alice@example.com", Password: "alice123", Role: entity.RoleUser},
	{Username: "bob", DisplayName: "Bob", Email: "bob@example.com", Password: "bob12345", Role: entity.RoleUser, IsPrivate: true},
}

// SeedDevelopmentUsers creates the demo accounts that do not exist yet and
// returns how many were inserted.
func SeedDevelopmentUsers(db *gorm.DB) (int, error) {
	created := 0
	for _, su := range developmentUsers {
		var count int64
		if err := db.Model(&entity.User{}).
			Where("username = ? OR email = ?", su.Username, su.Email).
			Count(&count).Error; err != nil {
			return created, err
		}

		if count > 0 {
			logger.Debug("seed user already exists, skipping", zap.String("username", su.Username))
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, err
		}

		user := entity.User{
			Username:     su.Username,
			DisplayName:  su.DisplayName,
			Email:        su.Email,
			PasswordHash: string(hash),
			Role:         su.Role,
			IsPrivate:    su.IsPrivate,
		}
		if err := db.Create(&user).Error; err != nil {
			return created, err
		}
		created++
		logger.Info("seeded user", zap.String("username", su.Username), zap.Bool("private", su.IsPrivate))
	}

	return created, nil
}

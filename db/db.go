package db

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/firesafe/config"
	"github.com/techagentng/firesafe/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config, log *logrus.Logger) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c, log)
	return gormDB
}

func (g *GormDB) Init(c *config.Config, log *logrus.Logger) {
	var err error
	switch c.DBType {
	case "sqlite":
		log.WithField("path", c.SqlitePath).Info("opening sqlite database")
		g.DB, err = openSqlite(c.SqlitePath, gormConfig(c))
	default:
		log.WithFields(logrus.Fields{
			"host": c.PostgresHost,
			"db":   c.PostgresDB,
			"port": c.PostgresPort,
		}).Info("connecting to postgres")
		g.DB, err = getPostgresDB(c)
	}
	if err != nil {
		log.WithError(err).Fatal("unable to open database")
	}

	if err := migrate(g.DB); err != nil {
		log.WithError(err).Fatal("unable to run migrations")
	}
}

func gormConfig(c *config.Config) *gorm.Config {
	gormConfig := &gorm.Config{TranslateError: true, NowFunc: utcNow}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	return gormConfig
}

// utcNow keeps stored timestamps in one zone; sqlite compares them as text.
func utcNow() time.Time {
	return time.Now().UTC()
}

func getPostgresDB(c *config.Config) (*gorm.DB, error) {
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	return gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig(c))
}

func openSqlite(path string, gormConfig *gorm.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection also keeps ":memory:"
	// databases from splitting across the pool.
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return gormDB, nil
}

// OpenSqlite opens and migrates a sqlite database at path (":memory:" for a
// throwaway one) with SQL logging silenced.
func OpenSqlite(path string) (*GormDB, error) {
	gormDB, err := openSqlite(path, &gorm.Config{
		TranslateError: true,
		NowFunc:        utcNow,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := migrate(gormDB); err != nil {
		return nil, err
	}
	return &GormDB{DB: gormDB}, nil
}

func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{ID: uuid.New(), Name: models.RoleAdmin},
		{ID: uuid.New(), Name: models.RoleUser},
	}

	for _, role := range roles {
		if err := db.FirstOrCreate(&role, models.Role{Name: role.Name}).Error; err != nil {
			return err
		}
	}

	return nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Blacklist{},
		&models.House{},
		&models.BlogPost{},
		&models.PushToken{},
		&models.Report{},
		&models.FireStation{},
	)
}

// SeedAdmin creates the first administrator when no user owns email yet.
func SeedAdmin(db *gorm.DB, fullname, email, hashedPassword string) error {
	var role models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
		return err
	}
	admin := models.User{
		Fullname:       fullname,
		Email:          email,
		HashedPassword: hashedPassword,
		RoleID:         role.ID,
	}
	return db.Omit("Role").Where(models.User{Email: email}).FirstOrCreate(&admin).Error
}

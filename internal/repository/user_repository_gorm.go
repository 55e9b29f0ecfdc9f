package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/account-service/internal/domain"
)

// seedAuthorities are created by MigrateGorm when missing.
var seedAuthorities = []string{domain.AuthorityAdmin, domain.AuthorityUser}

type authorityRecord struct {
	Name string `gorm:"primaryKey;size:50"`
}

func (authorityRecord) TableName() string { return "authorities" }

type userRecord struct {
	ID             string            `gorm:"primaryKey;size:36"`
	Login          string            `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash   string            `gorm:"size:60;not null"`
	FirstName      string            `gorm:"size:50"`
	LastName       string            `gorm:"size:50"`
	Email          string            `gorm:"size:254;uniqueIndex;not null"`
	ImageURL       string            `gorm:"size:256"`
	Activated      bool              `gorm:"not null;default:false"`
	LangKey        string            `gorm:"size:10"`
	ActivationKey  *string           `gorm:"size:20;index"`
	ResetKey       *string           `gorm:"size:20;index"`
	ResetDate      *time.Time
	Authorities    []authorityRecord `gorm:"many2many:user_authorities;joinForeignKey:UserID;joinReferences:AuthorityName"`
	CreatedBy      string            `gorm:"size:50"`
	CreatedAt      time.Time
	LastModifiedBy string            `gorm:"size:50"`
	LastModifiedAt time.Time
}

func (userRecord) TableName() string { return "users" }

// MigrateGorm creates the account tables and seeds the authority catalogue.
func MigrateGorm(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&authorityRecord{}, &userRecord{}); err != nil {
		return err
	}
	for _, name := range seedAuthorities {
		if err := db.FirstOrCreate(&authorityRecord{Name: name}, authorityRecord{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository returns a gorm-backed implementation used by the
// sqlite profile and by tests.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	rec := toUserRecord(user)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translateGormErr(err)
	}
	user.CreatedAt = rec.CreatedAt
	return nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *domain.User) error {
	rec := toUserRecord(user)
	return translateGormErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRecord{ID: rec.ID}).
			Select("*").
			Omit("ID", "Authorities", "CreatedBy", "CreatedAt").
			Updates(&rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		assoc := tx.Model(&userRecord{ID: rec.ID}).Association("Authorities")
		if len(rec.Authorities) == 0 {
			return assoc.Clear()
		}
		return assoc.Replace(rec.Authorities)
	}))
}

func (r *gormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_authorities WHERE user_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Delete(&userRecord{}, "id = ?", id).Error
	})
}

func (r *gormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUserRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.first(ctx, "login = ?", strings.ToLower(login))
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "LOWER(email) = LOWER(?)", email)
}

func (r *gormUserRepository) GetByActivationKey(ctx context.Context, key string) (*domain.User, error) {
	return r.first(ctx, "activation_key = ?", key)
}

func (r *gormUserRepository) GetByResetKey(ctx context.Context, key string) (*domain.User, error) {
	return r.first(ctx, "reset_key = ?", key)
}

func (r *gormUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	base := r.db.WithContext(ctx).Model(&userRecord{}).Where("login <> ?", filter.ExcludeLogin)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var recs []userRecord
	if err := base.Session(&gorm.Session{}).
		Preload("Authorities").
		Order("login").
		Limit(limit).
		Offset(max(filter.Offset, 0)).
		Find(&recs).Error; err != nil {
		return nil, 0, err
	}
	return fromUserRecords(recs), int(total), nil
}

func (r *gormUserRepository) ListNotActivatedBefore(ctx context.Context, before time.Time) ([]domain.User, error) {
	var recs []userRecord
	if err := r.db.WithContext(ctx).
		Preload("Authorities").
		Where("activated = ? AND created_at < ?", false, before).
		Order("created_at").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return fromUserRecords(recs), nil
}

func (r *gormUserRepository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).Preload("Authorities").Where(query, arg).First(&rec).Error; err != nil {
		return nil, normalizeErr(err)
	}
	user := fromUserRecord(rec)
	return &user, nil
}

type gormAuthorityRepository struct {
	db *gorm.DB
}

// NewGormAuthorityRepository returns a gorm-backed authority catalogue.
func NewGormAuthorityRepository(db *gorm.DB) AuthorityRepository {
	return &gormAuthorityRepository{db: db}
}

func (r *gormAuthorityRepository) List(ctx context.Context) ([]domain.Authority, error) {
	var recs []authorityRecord
	if err := r.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Authority, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Authority{Name: rec.Name})
	}
	return out, nil
}

func (r *gormAuthorityRepository) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&authorityRecord{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func translateGormErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return normalizeErr(err)
}

func toUserRecord(u *domain.User) userRecord {
	rec := userRecord{
		ID:             u.ID,
		Login:          u.Login,
		PasswordHash:   u.PasswordHash,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		ImageURL:       u.ImageURL,
		Activated:      u.Activated,
		LangKey:        u.LangKey,
		ActivationKey:  u.ActivationKey,
		ResetKey:       u.ResetKey,
		ResetDate:      u.ResetDate,
		CreatedBy:      u.CreatedBy,
		CreatedAt:      u.CreatedAt,
		LastModifiedBy: u.LastModifiedBy,
		LastModifiedAt: u.LastModifiedAt,
	}
	rec.Authorities = make([]authorityRecord, 0, len(u.Authorities))
	for _, name := range u.Authorities {
		rec.Authorities = append(rec.Authorities, authorityRecord{Name: name})
	}
	return rec
}

func fromUserRecord(rec userRecord) domain.User {
	u := domain.User{
		ID:             rec.ID,
		Login:          rec.Login,
		PasswordHash:   rec.PasswordHash,
		FirstName:      rec.FirstName,
		LastName:       rec.LastName,
		Email:          rec.Email,
		ImageURL:       rec.ImageURL,
		Activated:      rec.Activated,
		LangKey:        rec.LangKey,
		ActivationKey:  rec.ActivationKey,
		ResetKey:       rec.ResetKey,
		ResetDate:      rec.ResetDate,
		CreatedBy:      rec.CreatedBy,
		CreatedAt:      rec.CreatedAt,
		LastModifiedBy: rec.LastModifiedBy,
		LastModifiedAt: rec.LastModifiedAt,
	}
	for _, a := range rec.Authorities {
		u.Authorities = append(u.Authorities, a.Name)
	}
	return u
}

func fromUserRecords(recs []userRecord) []domain.User {
	out := make([]domain.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromUserRecord(rec))
	}
	return out
}

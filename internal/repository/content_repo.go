package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/roots-api/internal/models"
)

// PostFilter narrows wall post listings. With IncludeGeneral set, posts that
// belong to no competition match alongside those of CompetitionID.
type PostFilter struct {
	CompetitionID  *uint
	IncludeGeneral bool
	Search         string
	Page           int
	PageSize       int
}

// PostRepository persists wall posts.
type PostRepository interface {
	List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	GetByID(ctx context.Context, id uint) (models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// GalleryFilter narrows gallery listings.
type GalleryFilter struct {
	CompetitionID *uint
	EventID       *uint
	Search        string
	Page          int
	PageSize      int
}

// GalleryRepository persists event galleries.
type GalleryRepository interface {
	List(ctx context.Context, filter GalleryFilter) ([]models.Gallery, int64, error)
	GetByID(ctx context.Context, id uint) (models.Gallery, error)
	Create(ctx context.Context, gallery *models.Gallery) error
	Update(ctx context.Context, gallery *models.Gallery) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository constructs the post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})

	switch {
	case filter.CompetitionID != nil && filter.IncludeGeneral:
		query = query.Where("(competition_id = ? OR competition_id IS NULL)", *filter.CompetitionID)
	case filter.CompetitionID != nil:
		query = query.Where("competition_id = ?", *filter.CompetitionID)
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(body) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("is_pinned DESC").Order("added_at DESC").Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Competition").Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Competition").Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(r.db.WithContext(ctx), &models.Post{}, id)
}

type galleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository constructs the gallery repository.
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) List(ctx context.Context, filter GalleryFilter) ([]models.Gallery, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Gallery{})

	if filter.CompetitionID != nil {
		query = query.Where("competition_id = ?", *filter.CompetitionID)
	}
	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(caption) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var galleries []models.Gallery
	if err := query.Scopes(paginate(filter.Page, filter.PageSize)).
		Order("date DESC").Order("id DESC").
		Find(&galleries).Error; err != nil {
		return nil, 0, err
	}
	return galleries, total, nil
}

func (r *galleryRepository) GetByID(ctx context.Context, id uint) (models.Gallery, error) {
	var gallery models.Gallery
	if err := r.db.WithContext(ctx).First(&gallery, id).Error; err != nil {
		return models.Gallery{}, err
	}
	return gallery, nil
}

func (r *galleryRepository) Create(ctx context.Context, gallery *models.Gallery) error {
	return r.db.WithContext(ctx).Omit("Competition", "Event").Create(gallery).Error
}

func (r *galleryRepository) Update(ctx context.Context, gallery *models.Gallery) error {
	return r.db.WithContext(ctx).Omit("Competition", "Event").Save(gallery).Error
}

func (r *galleryRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(r.db.WithContext(ctx), &models.Gallery{}, id)
}

// paginate limits a listing to one page; a non-positive pageSize returns everything.
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		page = max(page, 1)
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

func deleteByID(db *gorm.DB, model interface{}, id uint) error {
	result := db.Delete(model, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

package dto

import (
	"time"

	"github.com/noah-isme/roots-api/internal/models"
)

// ContentListRequest captures filters for post and gallery listings.
type ContentListRequest struct {
	CompetitionID uint
	EventID       uint
	// IncludeGeneral also lists posts that belong to no competition.
	IncludeGeneral bool
	Search         string
	Page           int
	PageSize       int
}

// PageResponse is one page of a listing.
type PageResponse[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// PostRequest creates or replaces a wall post.
type PostRequest struct {
	Title         string `json:"title" validate:"required,max=100"`
	Body          string `json:"body" validate:"omitempty,max=20000"`
	CompetitionID *uint  `json:"competition_id" validate:"omitempty,gt=0"`
	IsPinned      bool   `json:"is_pinned"`
}

// PostResponse serializes a wall post.
type PostResponse struct {
	ID            uint      `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	CompetitionID *uint     `json:"competition_id,omitempty"`
	IsPinned      bool      `json:"is_pinned"`
	AddedAt       time.Time `json:"added_at"`
	ModifiedAt    time.Time `json:"modified_at"`
}

// NewPostResponse converts a post model.
func NewPostResponse(post models.Post) PostResponse {
	return PostResponse{
		ID:            post.ID,
		Slug:          post.Slug,
		Title:         post.Title,
		Body:          post.Body,
		CompetitionID: post.CompetitionID,
		IsPinned:      post.IsPinned,
		AddedAt:       post.AddedAt,
		ModifiedAt:    post.ModifiedAt,
	}
}

// GalleryRequest creates or replaces an event gallery.
type GalleryRequest struct {
	Name          string    `json:"name" validate:"required,max=50"`
	Caption       string    `json:"caption" validate:"omitempty,max=5000"`
	CoverImage    string    `json:"cover_image" validate:"omitempty,max=512"`
	CompetitionID uint      `json:"competition_id" validate:"required"`
	EventID       uint      `json:"event_id" validate:"required"`
	Date          time.Time `json:"date" validate:"required"`
}

// GalleryResponse serializes an event gallery.
type GalleryResponse struct {
	ID            uint      `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Caption       string    `json:"caption,omitempty"`
	CoverImage    string    `json:"cover_image,omitempty"`
	CompetitionID uint      `json:"competition_id"`
	EventID       uint      `json:"event_id"`
	Date          time.Time `json:"date"`
	AddedAt       time.Time `json:"added_at"`
}

// NewGalleryResponse converts a gallery model.
func NewGalleryResponse(gallery models.Gallery) GalleryResponse {
	return GalleryResponse{
		ID:            gallery.ID,
		Slug:          gallery.Slug,
		Name:          gallery.Name,
		Caption:       gallery.Caption,
		CoverImage:    gallery.CoverImage,
		CompetitionID: gallery.CompetitionID,
		EventID:       gallery.EventID,
		Date:          gallery.Date,
		AddedAt:       gallery.AddedAt,
	}
}

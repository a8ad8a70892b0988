package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mohamedzeina/node-social/models"
	"github.com/mohamedzeina/node-social/storage"
	"github.com/mohamedzeina/node-social/utils"
)

// Broadcaster pushes a post mutation event to connected realtime subscribers.
// Delivery is fire-and-forget.
type Broadcaster interface {
	BroadcastPost(action string, post interface{})
}

const (
	minTitleLen   = 5
	minContentLen = 5
)

// FeedCachePrefix keys every cached feed page.
const FeedCachePrefix = "cache:feed:"

// invalidateFeedCache drops all cached feed pages after a successful mutation.
// Both surfaces run through the pipeline, so neither can leave a stale page.
var invalidateFeedCache = func() { utils.InvalidateByPrefix(FeedCachePrefix) }

// PostInput carries the fields of a create or update request. ImagePath is the
// stored relative path, either freshly uploaded or carried over from the
// existing post.
type PostInput struct {
	Title     string
	Content   string
	ImagePath string
}

// PostService runs the post mutation pipeline shared by the REST and GraphQL
// surfaces: authentication check, validation, resource resolution, ownership
// check, image transition, persistence, notification.
type PostService struct {
	db       *gorm.DB
	images   *storage.ImageStore
	hub      Broadcaster
	pageSize int
}

// NewPostService wires the pipeline. hub may be nil when no realtime fan-out
// is attached.
func NewPostService(db *gorm.DB, images *storage.ImageStore, hub Broadcaster, pageSize int) *PostService {
	if pageSize <= 0 {
		pageSize = 2
	}
	return &PostService{db: db, images: images, hub: hub, pageSize: pageSize}
}

// PageSize returns the fixed feed page size.
func (s *PostService) PageSize() int {
	return s.pageSize
}

// isOwner is the single authorization predicate applied before any mutating step.
func isOwner(post *models.Post, id Identity) bool {
	return id.Authenticated && post.CreatorID == id.UserID
}

// validate collects every violation instead of stopping at the first.
func validate(in *PostInput) []FieldError {
	in.Title = utils.Sanitize(strings.TrimSpace(in.Title))
	in.Content = utils.Sanitize(strings.TrimSpace(in.Content))

	var violations []FieldError
	if len(in.Title) < minTitleLen {
		violations = append(violations, FieldError{Field: "title", Message: "title must be at least 5 characters"})
	}
	if len(in.Content) < minContentLen {
		violations = append(violations, FieldError{Field: "content", Message: "content must be at least 5 characters"})
	}
	if in.ImagePath == "" {
		violations = append(violations, FieldError{Field: "image", Message: "image is required"})
	}
	return violations
}

// List returns one feed page ordered by creation time descending plus the
// total count. The count is an independent read; no snapshot isolation is
// guaranteed between the two.
func (s *PostService) List(page int) ([]models.Post, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, ErrInternal("failed to count posts")
	}

	var posts []models.Post
	err := s.db.Preload("Creator").
		Order("created_at DESC").
		Offset((page - 1) * s.pageSize).
		Limit(s.pageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, ErrInternal("failed to list posts")
	}
	return posts, total, nil
}

// ListByCreator returns every post of one user, newest first.
func (s *PostService) ListByCreator(userID uint) ([]models.Post, error) {
	var posts []models.Post
	if err := s.db.Where("creator_id = ?", userID).Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, ErrInternal("failed to list posts")
	}
	return posts, nil
}

// Get loads a single post with its creator.
func (s *PostService) Get(postID uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.Preload("Creator").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("post not found")
		}
		return nil, ErrInternal("failed to load post")
	}
	return &post, nil
}

// Create runs the creation pipeline. The creator must resolve to an existing
// user before anything is written. notify controls the realtime broadcast;
// only the REST surface sets it.
func (s *PostService) Create(id Identity, in PostInput, notify bool) (*models.Post, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated()
	}
	if violations := validate(&in); len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	var creator models.User
	if err := s.db.First(&creator, id.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("user not found")
		}
		return nil, ErrInternal("failed to load user")
	}

	post := models.Post{
		Title:     in.Title,
		Content:   in.Content,
		ImagePath: in.ImagePath,
		CreatorID: creator.ID,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, ErrInternal("failed to create post")
	}

	// The post write precedes the user collection update.
	if err := s.db.Model(&creator).Association("Posts").Append(&post); err != nil {
		return nil, ErrInternal("failed to update user posts")
	}

	post.Creator = creator
	invalidateFeedCache()
	s.notify(notify, "create", post)
	return &post, nil
}

// Update runs the update pipeline; only the creator may update. A changed
// image path schedules deletion of the replaced file before the write.
func (s *PostService) Update(id Identity, postID uint, in PostInput, notify bool) (*models.Post, error) {
	if !id.Authenticated {
		return nil, ErrUnauthenticated()
	}
	if violations := validate(&in); len(violations) > 0 {
		return nil, ErrValidation(violations)
	}

	post, err := s.Get(postID)
	if err != nil {
		return nil, err
	}
	if !isOwner(post, id) {
		return nil, ErrForbidden("you can only update your own posts")
	}

	if in.ImagePath != post.ImagePath {
		s.images.DeleteAsync(post.ImagePath)
	}

	post.Title = in.Title
	post.Content = in.Content
	post.ImagePath = in.ImagePath
	if err := s.db.Save(post).Error; err != nil {
		return nil, ErrInternal("failed to update post")
	}

	invalidateFeedCache()
	s.notify(notify, "update", *post)
	return post, nil
}

// Delete runs the deletion pipeline; only the creator may delete. The post row
// goes first, then the creator's collection, then the best-effort image unlink.
func (s *PostService) Delete(id Identity, postID uint, notify bool) error {
	if !id.Authenticated {
		return ErrUnauthenticated()
	}

	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("post not found")
		}
		return ErrInternal("failed to load post")
	}
	if !isOwner(&post, id) {
		return ErrForbidden("you can only delete your own posts")
	}

	if err := s.db.Delete(&post).Error; err != nil {
		return ErrInternal("failed to delete post")
	}
	if err := s.db.Model(&models.User{ID: post.CreatorID}).Association("Posts").Delete(&post); err != nil {
		// row is gone; the back-reference cleanup is best-effort weak consistency
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to detach post %d from user %d: %v", post.ID, post.CreatorID, err)
		}
	}

	s.images.DeleteAsync(post.ImagePath)
	invalidateFeedCache()
	s.notify(notify, "delete", post.ID)
	return nil
}

// notify emits the mutation event after successful persistence, never before.
// It must not fail the request when nobody is listening.
func (s *PostService) notify(enabled bool, action string, payload interface{}) {
	if !enabled || s.hub == nil {
		return
	}
	s.hub.BroadcastPost(action, payload)
}

package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohamedzeina/node-social/middleware"
	"github.com/mohamedzeina/node-social/services"
	"github.com/mohamedzeina/node-social/storage"
	"github.com/mohamedzeina/node-social/utils"
)

// FeedController exposes the post CRUD pipeline over REST. Mutations through
// this surface are broadcast to realtime subscribers.
type FeedController struct {
	posts  *services.PostService
	images *storage.ImageStore
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(posts *services.PostService, images *storage.ImageStore) *FeedController {
	return &FeedController{posts: posts, images: images}
}

// ListPosts returns one feed page plus the independent total count.
func (f *FeedController) ListPosts(ctx *gin.Context) {
	page := parsePage(ctx.Query("page"))

	cacheKey := fmt.Sprintf("%spage=%d", services.FeedCachePrefix, page)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, total, err := f.posts.List(page)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	payload := gin.H{
		"posts":      posts,
		"totalItems": total,
		"page":       page,
		"perPage":    f.posts.PageSize(),
	}
	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post.
func (f *FeedController) GetPost(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}
	post, err := f.posts.Get(postID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreatePost stores the uploaded image and runs the creation pipeline.
func (f *FeedController) CreatePost(ctx *gin.Context) {
	imagePath := ""
	if file, err := ctx.FormFile("image"); err == nil {
		stored, err := f.images.Store(file)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to store image")
			return
		}
		imagePath = stored
	}

	post, err := f.posts.Create(middleware.CurrentIdentity(ctx), services.PostInput{
		Title:     ctx.PostForm("title"),
		Content:   ctx.PostForm("content"),
		ImagePath: imagePath,
	}, true)
	if err != nil {
		// a stored file for a failed create is an orphan
		f.images.DeleteAsync(imagePath)
		respondServiceError(ctx, err)
		return
	}

	utils.Created(ctx, "post created", gin.H{
		"post":    post,
		"creator": gin.H{"_id": post.Creator.ID, "name": post.Creator.Name},
	})
}

// UpdatePost accepts either a fresh upload or the existing image path.
func (f *FeedController) UpdatePost(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}

	imagePath := ctx.PostForm("image")
	uploaded := ""
	if file, err := ctx.FormFile("image"); err == nil {
		stored, err := f.images.Store(file)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to store image")
			return
		}
		if stored != "" {
			imagePath = stored
			uploaded = stored
		}
	}

	post, err := f.posts.Update(middleware.CurrentIdentity(ctx), postID, services.PostInput{
		Title:     ctx.PostForm("title"),
		Content:   ctx.PostForm("content"),
		ImagePath: imagePath,
	}, true)
	if err != nil {
		// a fresh upload for a failed update is an orphan
		f.images.DeleteAsync(uploaded)
		respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post, its back-reference and (best-effort) its image.
func (f *FeedController) DeletePost(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}

	if err := f.posts.Delete(middleware.CurrentIdentity(ctx), postID, true); err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

func parsePage(raw string) int {
	page := 1
	if p, err := strconv.Atoi(raw); err == nil && p > 0 {
		page = p
	}
	return page
}

func parsePostID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40400, "post not found")
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps the service taxonomy onto HTTP statuses and the
// standard response envelope. Validation failures carry the field list.
func respondServiceError(ctx *gin.Context, err error) {
	e := services.AsError(err)
	status := services.HTTPStatus(e)

	var data interface{}
	if e.Kind == services.KindValidation {
		data = gin.H{"errors": e.Fields}
	}
	utils.Respond(ctx, status, status*100+1, e.Message, data)
}

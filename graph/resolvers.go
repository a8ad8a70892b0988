package graph

import (
	"context"
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/mohamedzeina/node-social/models"
	"github.com/mohamedzeina/node-social/services"
)

type identityKey struct{}

// WithIdentity attaches the request's authentication result for resolvers.
func WithIdentity(ctx context.Context, id services.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func identityFrom(ctx context.Context) services.Identity {
	if id, ok := ctx.Value(identityKey{}).(services.Identity); ok {
		return id
	}
	return services.Anonymous()
}

// gqlError carries the service taxonomy into GraphQL error extensions.
type gqlError struct {
	err *services.Error
}

func (e gqlError) Error() string { return e.err.Message }

func (e gqlError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"status": services.HTTPStatus(e.err)}
	if len(e.err.Fields) > 0 {
		ext["data"] = e.err.Fields
	}
	return ext
}

func wrap(err error) error { return gqlError{err: services.AsError(err)} }

// Resolver holds the services shared with the REST surface. GraphQL mutations
// run the same pipeline but do not notify the realtime broadcaster.
type Resolver struct {
	Auth  *services.AuthService
	Posts *services.PostService
}

func (r *Resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["userInput"].(map[string]interface{})
	user, err := r.Auth.Signup(services.SignupInput{
		Email:    stringArg(input, "email"),
		Name:     stringArg(input, "name"),
		Password: stringArg(input, "password"),
	})
	if err != nil {
		return nil, wrap(err)
	}
	return *user, nil
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	token, userID, err := r.Auth.Login(stringArg(p.Args, "email"), stringArg(p.Args, "password"))
	if err != nil {
		return nil, wrap(err)
	}
	return map[string]interface{}{
		"token":  token,
		"userId": fmt.Sprint(userID),
	}, nil
}

func (r *Resolver) getPosts(p graphql.ResolveParams) (interface{}, error) {
	if !identityFrom(p.Context).Authenticated {
		return nil, wrap(services.ErrUnauthenticated())
	}
	page, _ := p.Args["page"].(int)
	posts, total, err := r.Posts.List(page)
	if err != nil {
		return nil, wrap(err)
	}
	return map[string]interface{}{
		"posts":      posts,
		"totalPosts": int(total),
	}, nil
}

func (r *Resolver) getPost(p graphql.ResolveParams) (interface{}, error) {
	if !identityFrom(p.Context).Authenticated {
		return nil, wrap(services.ErrUnauthenticated())
	}
	postID, err := parseID(p.Args["id"])
	if err != nil {
		return nil, wrap(services.ErrNotFound("post not found"))
	}
	post, err := r.Posts.Get(postID)
	if err != nil {
		return nil, wrap(err)
	}
	return *post, nil
}

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	input, _ := p.Args["postInput"].(map[string]interface{})
	post, err := r.Posts.Create(identityFrom(p.Context), postInputFrom(input), false)
	if err != nil {
		return nil, wrap(err)
	}
	return *post, nil
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	postID, err := parseID(p.Args["id"])
	if err != nil {
		return nil, wrap(services.ErrNotFound("post not found"))
	}
	input, _ := p.Args["postInput"].(map[string]interface{})
	post, err := r.Posts.Update(identityFrom(p.Context), postID, postInputFrom(input), false)
	if err != nil {
		return nil, wrap(err)
	}
	return *post, nil
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	postID, err := parseID(p.Args["id"])
	if err != nil {
		return nil, wrap(services.ErrNotFound("post not found"))
	}
	if err := r.Posts.Delete(identityFrom(p.Context), postID, false); err != nil {
		return nil, wrap(err)
	}
	return true, nil
}

func (r *Resolver) user(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.Auth.CurrentUser(identityFrom(p.Context))
	if err != nil {
		return nil, wrap(err)
	}
	return *user, nil
}

func (r *Resolver) updateStatus(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.Auth.UpdateStatus(identityFrom(p.Context), stringArg(p.Args, "status"))
	if err != nil {
		return nil, wrap(err)
	}
	return *user, nil
}

// userPosts resolves the posts field of a user.
func (r *Resolver) userPosts(p graphql.ResolveParams) (interface{}, error) {
	user, ok := userFromSource(p.Source)
	if !ok {
		return nil, nil
	}
	posts, err := r.Posts.ListByCreator(user.ID)
	if err != nil {
		return nil, wrap(err)
	}
	return posts, nil
}

func postInputFrom(input map[string]interface{}) services.PostInput {
	return services.PostInput{
		Title:     stringArg(input, "title"),
		Content:   stringArg(input, "content"),
		ImagePath: stringArg(input, "imageUrl"),
	}
}

func stringArg(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func parseID(v interface{}) (uint, error) {
	switch t := v.(type) {
	case string:
		id, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(id), nil
	case int:
		if t < 0 {
			return 0, fmt.Errorf("negative id %d", t)
		}
		return uint(t), nil
	case float64:
		if t < 0 {
			return 0, fmt.Errorf("negative id %v", t)
		}
		return uint(t), nil
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}

func userFromSource(src interface{}) (models.User, bool) {
	switch t := src.(type) {
	case models.User:
		return t, true
	case *models.User:
		return *t, true
	default:
		return models.User{}, false
	}
}

func postFromSource(src interface{}) (models.Post, bool) {
	switch t := src.(type) {
	case models.Post:
		return t, true
	case *models.Post:
		return *t, true
	default:
		return models.Post{}, false
	}
}

package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/mohamedzeina/node-social/models"
)

type postHarness struct {
	posts *PostService
	hub   *recordingHub
	dir   string
	user  *models.User
	db    *gorm.DB
}

func newPostHarness(t *testing.T) postHarness {
	t.Helper()
	db := testDB(t)
	images, dir := testImages(t)
	hub := &recordingHub{}
	posts := NewPostService(db, images, hub, 2)
	user := mustSignup(t, db, "creator@example.com")
	return postHarness{posts: posts, hub: hub, dir: dir, user: user, db: db}
}

func validInput() PostInput {
	return PostInput{Title: "First post", Content: "Hello world", ImagePath: "img.png"}
}

func touchImage(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o644); err != nil {
		t.Fatalf("touch %s: %v", name, err)
	}
}

func TestCreateRequiresAuthentication(t *testing.T) {
	h := newPostHarness(t)

	_, err := h.posts.Create(Anonymous(), validInput(), true)
	if kind := serviceKind(t, err); kind != KindUnauthenticated {
		t.Fatalf("kind = %v, want unauthenticated", kind)
	}
	if len(h.hub.events) != 0 {
		t.Error("rejected create must not broadcast")
	}
}

func TestCreateCollectsAllViolations(t *testing.T) {
	h := newPostHarness(t)

	_, err := h.posts.Create(Authenticated(h.user.ID), PostInput{Title: "Hi", Content: "no", ImagePath: ""}, true)
	if kind := serviceKind(t, err); kind != KindValidation {
		t.Fatalf("kind = %v, want validation", kind)
	}
	fields := AsError(err).Fields
	if len(fields) != 3 {
		t.Fatalf("got %d violations, want 3: %+v", len(fields), fields)
	}
	if len(h.hub.events) != 0 {
		t.Error("failed create must not broadcast")
	}
}

func TestCreateUnknownCreatorIsNotFound(t *testing.T) {
	h := newPostHarness(t)

	_, err := h.posts.Create(Authenticated(9999), validInput(), false)
	if kind := serviceKind(t, err); kind != KindNotFound {
		t.Fatalf("kind = %v, want not found", kind)
	}
}

func TestCreatePersistsAndNotifies(t *testing.T) {
	h := newPostHarness(t)

	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if post.ID == 0 {
		t.Error("expected a persisted post id")
	}
	if post.Creator.ID != h.user.ID {
		t.Errorf("creator = %d, want %d", post.Creator.ID, h.user.ID)
	}

	byCreator, err := h.posts.ListByCreator(h.user.ID)
	if err != nil {
		t.Fatalf("ListByCreator: %v", err)
	}
	if len(byCreator) != 1 {
		t.Fatalf("creator has %d posts, want 1", len(byCreator))
	}

	if len(h.hub.events) != 1 || h.hub.events[0].action != "create" {
		t.Fatalf("events = %+v, want one create", h.hub.events)
	}
}

func TestCreateWithoutNotifySkipsBroadcast(t *testing.T) {
	h := newPostHarness(t)

	if _, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(h.hub.events) != 0 {
		t.Errorf("events = %+v, want none", h.hub.events)
	}
}

func TestCreateStripsMarkup(t *testing.T) {
	h := newPostHarness(t)

	in := validInput()
	in.Title = "Hello <script>alert(1)</script> feed"
	post, err := h.posts.Create(Authenticated(h.user.ID), in, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.Contains(post.Title, "<script>") {
		t.Errorf("title kept markup: %q", post.Title)
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	h := newPostHarness(t)

	titles := []string{"first post", "second post", "third post"}
	for _, title := range titles {
		in := validInput()
		in.Title = title
		if _, err := h.posts.Create(Authenticated(h.user.ID), in, false); err != nil {
			t.Fatalf("Create %q: %v", title, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	page1, total, err := h.posts.List(1)
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 has %d posts, want 2", len(page1))
	}
	if page1[0].Title != "third post" || page1[1].Title != "second post" {
		t.Errorf("page 1 order = [%q, %q], want newest first", page1[0].Title, page1[1].Title)
	}
	if page1[0].Creator.ID != h.user.ID {
		t.Error("creator not preloaded")
	}

	page2, total, err := h.posts.List(2)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if total != 3 {
		t.Errorf("page 2 total = %d, want 3", total)
	}
	if len(page2) != 1 || page2[0].Title != "first post" {
		t.Errorf("page 2 = %+v, want the oldest post", page2)
	}
}

func TestListClampsPageBelowOne(t *testing.T) {
	h := newPostHarness(t)
	if _, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, total, err := h.posts.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Errorf("List(0) = %d posts, total %d; want the first page", len(got), total)
	}
}

func TestUpdateOnlyByOwner(t *testing.T) {
	h := newPostHarness(t)
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stranger := mustSignup(t, h.db, "other@example.com")

	in := validInput()
	in.Title = "hijacked title"
	_, err = h.posts.Update(Authenticated(stranger.ID), post.ID, in, true)
	if kind := serviceKind(t, err); kind != KindForbidden {
		t.Fatalf("kind = %v, want forbidden", kind)
	}

	reloaded, err := h.posts.Get(post.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.Title != "First post" {
		t.Errorf("title = %q, forbidden update must not write", reloaded.Title)
	}
	if len(h.hub.events) != 0 {
		t.Error("forbidden update must not broadcast")
	}
}

func TestUpdateReplacesImageAndNotifies(t *testing.T) {
	h := newPostHarness(t)
	touchImage(t, h.dir, "img.png")
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := PostInput{Title: "Updated post", Content: "New body text", ImagePath: "replacement.png"}
	updated, err := h.posts.Update(Authenticated(h.user.ID), post.ID, in, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Updated post" || updated.ImagePath != "replacement.png" {
		t.Errorf("update did not stick: %+v", updated)
	}

	waitFor(t, "old image removal", func() bool {
		_, err := os.Stat(filepath.Join(h.dir, "img.png"))
		return os.IsNotExist(err)
	})

	if len(h.hub.events) != 1 || h.hub.events[0].action != "update" {
		t.Fatalf("events = %+v, want one update", h.hub.events)
	}
}

func TestUpdateKeepingImageLeavesFileAlone(t *testing.T) {
	h := newPostHarness(t)
	touchImage(t, h.dir, "img.png")
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := validInput()
	in.Title = "Edited title"
	if _, err := h.posts.Update(Authenticated(h.user.ID), post.ID, in, false); err != nil {
		t.Fatalf("Update: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(filepath.Join(h.dir, "img.png")); err != nil {
		t.Errorf("unchanged image was removed: %v", err)
	}
}

func TestDeleteRemovesPostBackrefAndImage(t *testing.T) {
	h := newPostHarness(t)
	touchImage(t, h.dir, "img.png")
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := h.posts.Delete(Authenticated(h.user.ID), post.ID, true); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := h.posts.Get(post.ID); serviceKind(t, err) != KindNotFound {
		t.Error("deleted post still loads")
	}
	remaining, err := h.posts.ListByCreator(h.user.ID)
	if err != nil {
		t.Fatalf("ListByCreator: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("creator still references %d posts", len(remaining))
	}
	waitFor(t, "image removal", func() bool {
		_, err := os.Stat(filepath.Join(h.dir, "img.png"))
		return os.IsNotExist(err)
	})

	if len(h.hub.events) != 1 || h.hub.events[0].action != "delete" {
		t.Fatalf("events = %+v, want one delete", h.hub.events)
	}
	if id, ok := h.hub.events[0].payload.(uint); !ok || id != post.ID {
		t.Errorf("delete payload = %v, want post id %d", h.hub.events[0].payload, post.ID)
	}
}

func TestDeleteOnlyByOwner(t *testing.T) {
	h := newPostHarness(t)
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stranger := mustSignup(t, h.db, "other@example.com")

	if err := h.posts.Delete(Authenticated(stranger.ID), post.ID, false); serviceKind(t, err) != KindForbidden {
		t.Error("stranger delete should be forbidden")
	}
	if _, err := h.posts.Get(post.ID); err != nil {
		t.Errorf("post vanished after forbidden delete: %v", err)
	}
}

func TestDeleteMissingPostIsNotFound(t *testing.T) {
	h := newPostHarness(t)
	if err := h.posts.Delete(Authenticated(h.user.ID), 424242, false); serviceKind(t, err) != KindNotFound {
		t.Error("expected not found for a missing post")
	}
}

func TestEveryMutationInvalidatesTheFeedCache(t *testing.T) {
	h := newPostHarness(t)

	invalidations := 0
	orig := invalidateFeedCache
	invalidateFeedCache = func() { invalidations++ }
	t.Cleanup(func() { invalidateFeedCache = orig })

	// both surfaces share this pipeline, so notify on or off must not matter
	post, err := h.posts.Create(Authenticated(h.user.ID), validInput(), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if invalidations != 1 {
		t.Fatalf("invalidations after create = %d, want 1", invalidations)
	}

	in := validInput()
	in.Title = "Updated post"
	if _, err := h.posts.Update(Authenticated(h.user.ID), post.ID, in, false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if invalidations != 2 {
		t.Fatalf("invalidations after update = %d, want 2", invalidations)
	}

	if err := h.posts.Delete(Authenticated(h.user.ID), post.ID, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if invalidations != 3 {
		t.Fatalf("invalidations after delete = %d, want 3", invalidations)
	}

	// failed mutations leave the cache alone
	if _, err := h.posts.Create(Anonymous(), validInput(), false); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := h.posts.Create(Authenticated(h.user.ID), PostInput{}, false); err == nil {
		t.Fatal("expected an error")
	}
	if invalidations != 3 {
		t.Errorf("failed mutations bumped invalidations to %d", invalidations)
	}
}

func TestGetMissingPostIsNotFound(t *testing.T) {
	h := newPostHarness(t)
	if _, err := h.posts.Get(424242); serviceKind(t, err) != KindNotFound {
		t.Error("expected not found for a missing post")
	}
}

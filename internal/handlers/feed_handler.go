package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/services/feed"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
	"github.com/Windi-Fikriyansyah/homeservice_be/internal/storage"
)

type FeedHandler struct {
	Feed    *feed.Service
	Storage storage.Storage
	Log     logrus.FieldLogger
}

func NewFeedHandler(svc *feed.Service, st storage.Storage, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{Feed: svc, Storage: st, Log: log}
}

// Routes mounts the feed on a router that already requires a session.
func (h *FeedHandler) Routes(r fiber.Router, homeowner, freelancer, authorOrAdmin, member fiber.Handler) {
	g := r.Group("/posts")
	g.Get("/", h.List)
	g.Post("/", freelancer, h.Create)
	g.Delete("/:id", authorOrAdmin, h.Delete)
	g.Post("/:id/like", homeowner, h.ToggleLike)
	g.Get("/:id/comments", h.Comments)
	g.Post("/:id/comments", member, h.AddComment)
}

func author(c *fiber.Ctx) (feed.Author, error) {
	s := session.From(c)
	if s == nil {
		return feed.Author{}, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return feed.Author{ID: s.UserID, Role: s.Role, Name: s.Name}, nil
}

func (h *FeedHandler) feedFail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, feed.ErrPostNotFound):
		return fail404(c, "Post not found")
	case errors.Is(err, feed.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You can only delete your own posts",
		})
	case errors.Is(err, feed.ErrEmptyPost):
		errs := FieldErrors{}
		errs.Add("content", "Write something or attach an image")
		return validationFail(c, errs)
	case errors.Is(err, feed.ErrEmptyComment):
		errs := FieldErrors{}
		errs.Add("comment_content", "Comment cannot be empty")
		return validationFail(c, errs)
	}
	h.Log.WithError(err).WithField("path", c.Path()).Error("feed request failed")
	return fail500(c, "Something went wrong, please try again")
}

// List returns the feed, optionally narrowed to ?freelancer_id=.
func (h *FeedHandler) List(c *fiber.Ctx) error {
	viewer, err := getAuth(c)
	if err != nil {
		return err
	}
	page, limit := pageQuery(c)

	f := feed.ListFilter{Viewer: viewer, Page: page, Limit: limit}
	if raw := c.Query("freelancer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid freelancer_id")
		}
		f.FreelancerID = &id
	}

	posts, total, err := h.Feed.ListPosts(c.UserContext(), f)
	if err != nil {
		return h.feedFail(c, err)
	}
	return c.JSON(paged(posts, page, limit, total))
}

// Create publishes a post from multipart fields "content" and optional "image".
func (h *FeedHandler) Create(c *fiber.Ctx) error {
	userID, err := getAuth(c)
	if err != nil {
		return err
	}

	content := c.FormValue("content")
	var key, imageURL string
	if file, err := c.FormFile("image"); err == nil {
		key, err = storeImage(c, h.Storage, storage.BucketPostImages, userID, file)
		if err != nil {
			if errors.Is(err, errImageType) || errors.Is(err, errImageSize) {
				errs := FieldErrors{}
				errs.Add("image", err.Error())
				return validationFail(c, errs)
			}
			h.Log.WithError(err).Error("store post image")
			return fail500(c, "Failed to save image")
		}
		imageURL = h.Storage.PublicURL(key)
	}

	p, err := h.Feed.CreatePost(c.UserContext(), userID, content, imageURL)
	if err != nil {
		if key != "" {
			if derr := h.Storage.Delete(c.UserContext(), key); derr != nil {
				h.Log.WithError(derr).WithField("key", key).Warn("remove orphaned post image")
			}
		}
		return h.feedFail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Post published",
		"data":    p,
	})
}

func (h *FeedHandler) Delete(c *fiber.Ctx) error {
	a, err := author(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.Feed.DeletePost(c.UserContext(), id, a); err != nil {
		return h.feedFail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post deleted",
	})
}

func (h *FeedHandler) ToggleLike(c *fiber.Ctx) error {
	a, err := author(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	liked, count, err := h.Feed.ToggleLike(c.UserContext(), id, a)
	if err != nil {
		return h.feedFail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"liked":      liked,
			"like_count": count,
		},
	})
}

func (h *FeedHandler) Comments(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.Feed.ListComments(c.UserContext(), id)
	if err != nil {
		return h.feedFail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": comments})
}

type commentReq struct {
	Content string `json:"comment_content"`
}

func (h *FeedHandler) AddComment(c *fiber.Ctx) error {
	a, err := author(c)
	if err != nil {
		return err
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return err
	}

	var req commentReq
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	cm, err := h.Feed.AddComment(c.UserContext(), id, a, req.Content)
	if err != nil {
		return h.feedFail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    cm,
	})
}

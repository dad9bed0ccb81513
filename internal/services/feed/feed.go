// Package feed implements provider posts with homeowner likes and comments.
package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed to modify this post")
	ErrEmptyPost    = errors.New("post needs content or an image")
	ErrEmptyComment = errors.New("comment cannot be empty")
)

// Author identifies who likes, comments or deletes.
type Author struct {
	ID   uuid.UUID
	Role models.Role
	Name string
}

type Service struct {
	DB  *gorm.DB
	Log logrus.FieldLogger
}

func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{DB: db, Log: log}
}

// PostView is a post as shown in a feed. Only the author's public name and
// photo are carried; the provider record itself is never serialized.
type PostView struct {
	models.Post
	AuthorName   string `json:"author_name"`
	AuthorPhoto  string `json:"author_photo"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	LikedByMe    bool   `json:"liked_by_me"`
}

type ListFilter struct {
	FreelancerID *uuid.UUID
	Viewer       uuid.UUID
	Page         int
	Limit        int
}

func (s *Service) CreatePost(ctx context.Context, freelancerID uuid.UUID, content, imageURL string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && imageURL == "" {
		return nil, ErrEmptyPost
	}

	p := models.Post{FreelancerID: freelancerID, Content: content, ImageURL: imageURL}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns one page of posts, newest first, with like and comment counts.
func (s *Service) ListPosts(ctx context.Context, f ListFilter) ([]PostView, int64, error) {
	base := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&models.Post{})
		if f.FreelancerID != nil {
			q = q.Where("freelancer_id = ?", *f.FreelancerID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := base().
		Preload("Freelancer.Application").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return []PostView{}, total, nil
	}

	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := s.countBy(ctx, &models.Like{}, ids)
	if err != nil {
		return nil, 0, err
	}
	comments, err := s.countBy(ctx, &models.Comment{}, ids)
	if err != nil {
		return nil, 0, err
	}

	liked := map[uuid.UUID]bool{}
	if f.Viewer != uuid.Nil {
		var likedIDs []uuid.UUID
		if err := s.DB.WithContext(ctx).Model(&models.Like{}).
			Where("post_id IN ? AND author_id = ?", ids, f.Viewer).
			Pluck("post_id", &likedIDs).Error; err != nil {
			return nil, 0, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	out := make([]PostView, len(posts))
	for i, p := range posts {
		v := PostView{
			Post:         p,
			LikeCount:    likes[p.ID],
			CommentCount: comments[p.ID],
			LikedByMe:    liked[p.ID],
		}
		if p.Freelancer != nil {
			v.AuthorPhoto = p.Freelancer.PhotoURL
		}
		if p.Freelancer != nil && p.Freelancer.Application != nil {
			v.AuthorName = strings.TrimSpace(p.Freelancer.Application.FirstName + " " + p.Freelancer.Application.LastName)
		}
		out[i] = v
	}
	return out, total, nil
}

func (s *Service) countBy(ctx context.Context, model any, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		PostID uuid.UUID
		N      int64
	}
	err := s.DB.WithContext(ctx).Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		m[r.PostID] = r.N
	}
	return m, nil
}

// ToggleLike likes the post, or removes the like if the author already liked it.
func (s *Service) ToggleLike(ctx context.Context, postID uuid.UUID, a Author) (liked bool, count int64, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}

		var existing models.Like
		err := tx.Where("post_id = ? AND author_id = ?", postID, a.ID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{PostID: postID, AuthorID: a.ID, AuthorRole: a.Role}).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	})
	return liked, count, err
}

func (s *Service) AddComment(ctx context.Context, postID uuid.UUID, a Author, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	c := models.Comment{
		PostID:     postID,
		AuthorID:   a.ID,
		AuthorRole: a.Role,
		AuthorName: a.Name,
		Content:    content,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := postExists(tx, postID); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	if err := postExists(s.DB.WithContext(ctx), postID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	err := s.DB.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

// DeletePost removes the post with its comments and likes in one transaction.
// Providers may only delete their own posts; admins may delete any post.
// Nothing is deleted when the post does not exist.
func (s *Service) DeletePost(ctx context.Context, postID uuid.UUID, by Author) (*models.Post, error) {
	var post models.Post
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if by.Role != models.RoleAdmin && post.FreelancerID != by.ID {
			return ErrForbidden
		}

		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{"post_id": postID, "by": by.ID, "role": by.Role}).Info("post deleted")
	return &post, nil
}

func postExists(db *gorm.DB, postID uuid.UUID) error {
	var n int64
	if err := db.Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return nil
}

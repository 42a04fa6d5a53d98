package request

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"blog-api/internal/domain/models"
	"blog-api/internal/lib/api/validate"

	"github.com/go-chi/render"
)

// Decode reads a JSON body into v. An empty body leaves v untouched so that
// validation reports the missing fields.
func Decode(r *http.Request, v any) error {
	err := render.DecodeJSON(r.Body, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type Register struct {
	FullName             string  `json:"fullname" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	BirthDate            string  `json:"datebirthday" validate:"required,date"`
	Gender               string  `json:"gender" validate:"required,max=255"`
	LinkPhoto            *string `json:"linkphoto" validate:"omitempty,max=255"`
	Role                 string  `json:"role" validate:"required,max=255"`
	Password             string  `json:"password" validate:"required,min=8"`
	PasswordConfirmation string  `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (r *Register) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = normalizeEmail(r.Email)
	r.BirthDate = strings.TrimSpace(r.BirthDate)
	r.Gender = strings.TrimSpace(r.Gender)
	r.Role = strings.TrimSpace(r.Role)
	r.LinkPhoto = trimOptional(r.LinkPhoto)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Normalize() {
	c.Email = normalizeEmail(c.Email)
}

// UpdateUser is a partial profile update; absent fields stay untouched.
type UpdateUser struct {
	FullName  *string `json:"fullname"`
	Email     *string `json:"email"`
	BirthDate *string `json:"datebirthday"`
	Gender    *string `json:"gender"`
	LinkPhoto *string `json:"linkphoto"`
}

func (u *UpdateUser) Normalize() {
	u.FullName = trimOptional(u.FullName)
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		u.Email = &email
	}
	u.BirthDate = trimOptional(u.BirthDate)
	u.Gender = trimOptional(u.Gender)
	u.LinkPhoto = trimOptional(u.LinkPhoto)
}

func (u UpdateUser) Fields() []validate.Field {
	return []validate.Field{
		{Name: "fullname", Value: u.FullName, Tag: "required,max=255"},
		{Name: "email", Value: u.Email, Tag: "required,email,max=255"},
		{Name: "datebirthday", Value: u.BirthDate, Tag: "required,date"},
		{Name: "gender", Value: u.Gender, Tag: "required,max=255"},
		{Name: "linkphoto", Value: u.LinkPhoto, Tag: "max=255"},
	}
}

func (u UpdateUser) Patch() models.UserPatch {
	return models.UserPatch{
		FullName:  u.FullName,
		Email:     u.Email,
		BirthDate: u.BirthDate,
		Gender:    u.Gender,
		LinkPhoto: u.LinkPhoto,
	}
}

type CreateArticle struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Category    string  `json:"category" validate:"required,max=255"`
	Content     string  `json:"content" validate:"required"`
	LinkPicture *string `json:"link_picture" validate:"omitempty,url,max=255"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

func (c *CreateArticle) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	c.Category = strings.TrimSpace(c.Category)
	c.Content = strings.TrimSpace(c.Content)
	c.LinkPicture = trimOptional(c.LinkPicture)
	c.Status = trimOptional(c.Status)
}

func (c CreateArticle) Article() models.Article {
	art := models.Article{
		Title:    c.Title,
		Category: c.Category,
		Content:  c.Content,
		Status:   models.StatusDraft,
	}
	if c.LinkPicture != nil && *c.LinkPicture != "" {
		art.LinkPicture = c.LinkPicture
	}
	if c.Status != nil && *c.Status != "" {
		art.Status = *c.Status
	}

	return art
}

// UpdateArticle accepts any subset of the CreateArticle fields.
type UpdateArticle struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Content     *string `json:"content"`
	LinkPicture *string `json:"link_picture"`
	Status      *string `json:"status"`
}

func (u *UpdateArticle) Normalize() {
	u.Title = trimOptional(u.Title)
	u.Category = trimOptional(u.Category)
	u.Content = trimOptional(u.Content)
	u.LinkPicture = trimOptional(u.LinkPicture)
	u.Status = trimOptional(u.Status)
}

func (u UpdateArticle) Fields() []validate.Field {
	return []validate.Field{
		{Name: "title", Value: u.Title, Tag: "required,max=255"},
		{Name: "category", Value: u.Category, Tag: "required,max=255"},
		{Name: "content", Value: u.Content, Tag: "required"},
		{Name: "link_picture", Value: u.LinkPicture, Tag: "omitempty,url,max=255"},
		{Name: "status", Value: u.Status, Tag: "required,oneof=draft published archived"},
	}
}

func (u UpdateArticle) Patch() models.ArticlePatch {
	return models.ArticlePatch{
		Title:       u.Title,
		Category:    u.Category,
		Content:     u.Content,
		LinkPicture: u.LinkPicture,
		Status:      u.Status,
	}
}

type CreateComment struct {
	Content string `json:"content" validate:"required"`
}

func (c *CreateComment) Normalize() {
	c.Content = strings.TrimSpace(c.Content)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

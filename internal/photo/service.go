package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/staffphoto/service/internal/employee"
	"github.com/staffphoto/service/internal/storage"
)

// EmployeeStore persists employees.
type EmployeeStore interface {
	Upsert(ctx context.Context, in employee.UpsertInput) (*employee.Employee, error)
}

// Store persists photos.
type Store interface {
	Create(ctx context.Context, in CreateInput) (*Photo, error)
	List(ctx context.Context, page, pageSize int, f Filter) ([]Photo, error)
	Count(ctx context.Context, f Filter) (int, error)
	GetByID(ctx context.Context, id string) (*Photo, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}

// TxManager runs fn inside a read-write transaction.
type TxManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// Settings holds the workflow limits taken from configuration.
type Settings struct {
	Departments    []string
	MaxUploadBytes int64
}

// Service contains the upload and moderation workflows.
type Service struct {
	employees EmployeeStore
	photos    Store
	gateway   storage.Gateway
	tx        TxManager
	settings  Settings
	now       func() time.Time
}

// NewService creates a new photo Service.
func NewService(employees EmployeeStore, photos Store, gateway storage.Gateway, tx TxManager, settings Settings) *Service {
	return &Service{
		employees: employees,
		photos:    photos,
		gateway:   gateway,
		tx:        tx,
		settings:  settings,
		now:       time.Now,
	}
}

// SaveUploadInput is the metadata a client submits after transferring a photo.
type SaveUploadInput struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	PhotoKey   string `json:"photoKey"`
	PhotoURL   string `json:"photoUrl"`
}

// SaveUpload upserts the employee and records the photo in one transaction.
// If persisting fails, the already uploaded object is deleted on a best-effort basis.
func (s *Service) SaveUpload(ctx context.Context, in SaveUploadInput) (*Photo, error) {
	emp := employee.UpsertInput{
		EmployeeID: in.EmployeeID,
		Name:       in.Name,
		Phone:      in.Phone,
		Department: in.Department,
	}.Normalize()
	key := strings.TrimSpace(in.PhotoKey)
	url := strings.TrimSpace(in.PhotoURL)

	if err := s.validateEmployee(emp); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, invalid("photoKey", "请提供照片 key")
	}
	if url == "" {
		return nil, invalid("photoUrl", "请提供照片地址")
	}
	if !strings.HasPrefix(key, emp.EmployeeID+"_") {
		return nil, invalid("photoKey", "照片 key 与工号不匹配")
	}

	return s.persist(ctx, emp, key, url)
}

// UploadInput is a photo streamed through the server instead of directly to storage.
type UploadInput struct {
	EmployeeID  string
	Name        string
	Phone       string
	Department  string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult identifies a stored photo.
type UploadResult struct {
	Photo *Photo `json:"-"`
	Key   string `json:"key"`
	URL   string `json:"url"`
}

// Upload validates the file, stores it under a generated key and records it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	emp := employee.UpsertInput{
		EmployeeID: in.EmployeeID,
		Name:       in.Name,
		Phone:      in.Phone,
		Department: in.Department,
	}.Normalize()

	if err := s.validateEmployee(emp); err != nil {
		return nil, err
	}
	if in.Body == nil || in.Size <= 0 {
		return nil, invalid("file", "请选择照片")
	}
	if in.Size > s.settings.MaxUploadBytes {
		return nil, invalid("file", fmt.Sprintf("文件大小不能超过 %dMB", s.settings.MaxUploadBytes>>20))
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, invalid("file", "请上传图片文件")
	}

	key := storage.GenerateKey(emp.EmployeeID, in.Filename, s.now())
	if err := s.gateway.Upload(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("upload %q: %w", key, err)
	}

	url := s.gateway.PublicURL(key)
	p, err := s.persist(ctx, emp, key, url)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Photo: p, Key: key, URL: url}, nil
}

func (s *Service) persist(ctx context.Context, emp employee.UpsertInput, key, url string) (*Photo, error) {
	var created *Photo
	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		e, err := s.employees.Upsert(ctx, emp)
		if err != nil {
			return err
		}
		created, err = s.photos.Create(ctx, CreateInput{
			URL:        url,
			Key:        key,
			EmployeeID: e.ID,
			Status:     StatusUnprocessed,
		})
		if err != nil {
			return err
		}
		created.Employee = e
		return nil
	})
	if errors.Is(err, ErrAlreadyRecorded) {
		// The object belongs to the existing row; keep it.
		return nil, err
	}
	if err != nil {
		s.discardObject(ctx, key)
		return nil, fmt.Errorf("save upload for %q: %w", emp.EmployeeID, err)
	}

	log.Printf("[photo] saved %s for employee %s", key, emp.EmployeeID)
	return created, nil
}

// discardObject removes an object whose metadata could not be recorded.
func (s *Service) discardObject(ctx context.Context, key string) {
	if err := s.gateway.Delete(context.WithoutCancel(ctx), key); err != nil {
		log.Printf("[photo] orphaned object %s: compensating delete failed: %v", key, err)
		return
	}
	log.Printf("[photo] removed object %s after failed save", key)
}

func (s *Service) validateEmployee(in employee.UpsertInput) error {
	if in.EmployeeID == "" {
		return invalid("employeeId", "请输入工号")
	}
	if in.Department == "" {
		return invalid("department", "请选择部门")
	}
	if !slices.Contains(s.settings.Departments, in.Department) {
		return invalid("department", fmt.Sprintf("未知部门: %s", in.Department))
	}
	return nil
}

// IssueUploadToken returns a token scoped to one key for employeeID. When key is
// empty it is generated from filename; a caller-supplied key must belong to employeeID.
func (s *Service) IssueUploadToken(ctx context.Context, employeeID, filename, key string) (*storage.UploadToken, error) {
	employeeID = strings.TrimSpace(employeeID)
	key = strings.TrimSpace(key)
	if employeeID == "" {
		return nil, invalid("employeeId", "请输入工号")
	}
	if key == "" {
		key = storage.GenerateKey(employeeID, filename, s.now())
	} else if !strings.HasPrefix(key, employeeID+"_") {
		return nil, invalid("key", "照片 key 与工号不匹配")
	}

	tok, err := s.gateway.IssueUploadToken(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("issue upload token: %w", err)
	}
	return tok, nil
}

// DownloadURL returns the proxy-routed URL for key.
func (s *Service) DownloadURL(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", invalid("key", "Missing key parameter")
	}
	return s.gateway.PublicURL(key), nil
}

// ListQuery selects one page of the listing.
type ListQuery struct {
	Page     int
	PageSize int
	Filter   Filter
}

// ListResult is one page of photos plus the filtered total.
type ListResult struct {
	Photos     []Photo
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// ListPhotos fetches a page and the filtered total concurrently and rewrites
// every photo URL through the proxy.
func (s *Service) ListPhotos(ctx context.Context, q ListQuery) (*ListResult, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	if q.Filter.Status != "" && !q.Filter.Status.Valid() {
		return nil, invalid("status", "Invalid status")
	}
	filter := q.Filter

	var (
		photos []Photo
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		photos, err = s.photos.List(gctx, q.Page, q.PageSize, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.photos.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range photos {
		photos[i].URL = s.gateway.PublicURL(photos[i].Key)
	}

	return &ListResult{
		Photos:     photos,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(total, q.PageSize),
	}, nil
}

// UpdateStatus sets the moderation status of a photo.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := uuid.Parse(id); err != nil {
		return invalid("id", "Invalid photo id")
	}
	if !status.Valid() {
		return invalid("status", "Invalid status")
	}
	return s.photos.UpdateStatus(ctx, id, status)
}

// DeletePhoto removes the photo row and then, best effort, its stored object.
// A storage failure is logged and does not fail the call.
func (s *Service) DeletePhoto(ctx context.Context, id string) (*Photo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("id", "Invalid photo id")
	}

	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.photos.Delete(ctx, id); err != nil {
		return nil, err
	}

	if err := s.gateway.Delete(context.WithoutCancel(ctx), p.Key); err != nil {
		log.Printf("[photo] deleted row %s but storage delete of %s failed: %v", id, p.Key, err)
	}
	return p, nil
}

// IsNotFound returns true when the error indicates a photo or employee was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmployeeNotFound)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"learnhub_backend/internal/apperr"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"gorm.io/gorm"
)

const (
	certificateWidth  = 1200
	certificateHeight = 850
)

type CertificateService struct {
	CertificateRepo *repository.CertificateRepository
	CourseRepo      *repository.CourseRepository
	ProgressRepo    *repository.ProgressRepository
	UserRepo        *repository.UserRepository
	Storage         *StorageService
	Now             func() time.Time
}

func NewCertificateService(
	certificateRepo *repository.CertificateRepository,
	courseRepo *repository.CourseRepository,
	progressRepo *repository.ProgressRepository,
	userRepo *repository.UserRepository,
	storage *StorageService,
) *CertificateService {
	return &CertificateService{
		CertificateRepo: certificateRepo,
		CourseRepo:      courseRepo,
		ProgressRepo:    progressRepo,
		UserRepo:        userRepo,
		Storage:         storage,
		Now:             time.Now,
	}
}

// Issue 全部课时完成后颁发证书，每门课只能颁发一次
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, err
	}

	total, completed, err := s.ProgressRepo.CountCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if total == 0 || completed < total {
		return nil, apperr.Validation("course not completed")
	}

	if _, err := s.CertificateRepo.Find(ctx, userID, courseID); err == nil {
		return nil, apperr.Conflict("certificate already issued")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:   userID,
		CourseID: courseID,
		IssuedAt: s.Now(),
	}
	cert.ID = uuid.NewString()

	png, err := RenderCertificate(user.Name, course.Title, cert.ID, cert.IssuedAt)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("certificates/%d/%s.png", userID, cert.ID)
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(png), int64(len(png)), util.MimePNG)
	if err != nil {
		return nil, apperr.Upstream("failed to store certificate", err)
	}
	cert.FileURL = url

	if err := s.CertificateRepo.Create(ctx, cert); err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("orphan certificate file", zap.String("key", key), zap.Error(delErr))
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("certificate already issued")
		}
		return nil, err
	}

	logger.Log.Info("certificate issued",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.String("certificateId", cert.ID),
	)
	return cert, nil
}

func (s *CertificateService) List(ctx context.Context, userID uint) ([]model.Certificate, error) {
	return s.CertificateRepo.ListByUser(ctx, userID)
}

// Verify 通过公开校验码查询证书
func (s *CertificateService) Verify(ctx context.Context, id string) (*model.Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("certificate not found")
	}
	cert, err := s.CertificateRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("certificate not found")
	}
	return cert, err
}

var (
	certFontsOnce sync.Once
	certRegular   *truetype.Font
	certBold      *truetype.Font
	certFontErr   error
)

func loadCertificateFonts() error {
	certFontsOnce.Do(func() {
		certRegular, certFontErr = truetype.Parse(goregular.TTF)
		if certFontErr != nil {
			return
		}
		certBold, certFontErr = truetype.Parse(gobold.TTF)
	})
	return certFontErr
}

func certificateFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// RenderCertificate 生成 PNG 证书图片
func RenderCertificate(learner, courseTitle, code string, issuedAt time.Time) ([]byte, error) {
	if err := loadCertificateFonts(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}

	const w, h = float64(certificateWidth), float64(certificateHeight)
	dc := gg.NewContext(certificateWidth, certificateHeight)

	dc.SetColor(color.White)
	dc.Clear()

	// 边框
	dc.SetColor(color.NRGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff})
	dc.SetLineWidth(12)
	dc.DrawRectangle(30, 30, w-60, h-60)
	dc.Stroke()
	dc.SetLineWidth(2)
	dc.DrawRectangle(55, 55, w-110, h-110)
	dc.Stroke()

	dc.SetColor(color.Black)
	lines := []struct {
		text string
		y    float64
		font *truetype.Font
		size float64
	}{
		{"CERTIFICATE OF COMPLETION", h * 0.25, certBold, 52},
		{"This certifies that", h * 0.40, certRegular, 26},
		{learner, h * 0.50, certBold, 48},
		{"has completed the course", h * 0.60, certRegular, 26},
		{courseTitle, h * 0.70, certBold, 38},
		{"Issued " + issuedAt.UTC().Format(util.DateFormat), h * 0.82, certRegular, 20},
		{"Verification code: " + code, h * 0.88, certRegular, 20},
	}
	for _, l := range lines {
		face := certificateFace(l.font, l.size)
		dc.SetFontFace(face)
		dc.DrawStringAnchored(l.text, w/2, l.y, 0.5, 0.5)
		face.Close()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

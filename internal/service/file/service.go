package file

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG proofs are decoded and re-encoded as JPEG
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	proofMaxSize = 150 * 1024
	proofMinSize = 50 * 1024
)

type FileService interface {
	// UploadAttendanceProof stores a clock-in photo and returns its public URL.
	UploadAttendanceProof(ctx context.Context, staffID string, at time.Time, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, path string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// UploadAttendanceProof compresses the photo into the 50KB-150KB range and
// stores it under attendance/{date}/.
func (s *fileServiceImpl) UploadAttendanceProof(ctx context.Context, staffID string, at time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("invalid file type: only jpg, jpeg, png allowed")
	}

	buffer, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	compressed, err := compressImage(buffer, proofMaxSize, proofMinSize)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	// attendance/{date}/{staffID}-{uuid}.jpg
	newFilename := fmt.Sprintf("%s-%s.jpg", staffID, uuid.NewString())
	path := filepath.Join("attendance", at.UTC().Format("2006-01-02"), newFilename)

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(compressed), path, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload attendance proof: %w", err)
	}

	return s.storage.PublicURL(uploadedPath), nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// compressImage re-encodes buffer as JPEG, lowering quality first and
// downscaling when quality alone does not get under maxSize. Images already
// inside [minSize, maxSize] are returned as is.
func compressImage(buffer []byte, maxSize int, minSize int) ([]byte, error) {
	if len(buffer) <= maxSize && len(buffer) >= minSize {
		return buffer, nil
	}

	img, _, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var compressed []byte
	for quality := 85; quality >= 50; quality -= 5 {
		compressed, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		if len(compressed) <= maxSize {
			return compressed, nil
		}
	}

	bounds := img.Bounds()
	ratio := math.Sqrt(float64(100*1024) / float64(len(compressed)))
	width := max(int(float64(bounds.Dx())*ratio), 600)
	height := max(int(float64(bounds.Dy())*ratio), 400)

	return encodeJPEG(resizeImage(img, width, height), 70)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// resizeImage scales src using CatmullRom interpolation.
func resizeImage(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

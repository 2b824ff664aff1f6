package file

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadAttendanceProof_StoresJPEG(t *testing.T) {
	t.Parallel()
	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	svc := NewFileService(local)

	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	url, err := svc.UploadAttendanceProof(context.Background(), "staff-1", at, bytes.NewReader(pngOf(t, 64, 48, false)), "proof.PNG")
	require.NoError(t, err)

	prefix := "http://localhost:8080/uploads/attendance/2026-03-10/staff-1-"
	require.True(t, strings.HasPrefix(url, prefix), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	stored, err := os.ReadFile(filepath.Join(local.BasePath(), strings.TrimPrefix(url, "http://localhost:8080/uploads/")))
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(stored))
	assert.NoError(t, err)
}

func TestUploadAttendanceProof_RejectsExtension(t *testing.T) {
	t.Parallel()
	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	_, err = NewFileService(local).UploadAttendanceProof(context.Background(), "staff-1", time.Now(), strings.NewReader("GIF89a"), "proof.gif")
	assert.Error(t, err)
}

func TestCompressImage(t *testing.T) {
	t.Parallel()

	inRange := bytes.Repeat([]byte{0xff}, 100*1024)
	out, err := compressImage(inRange, proofMaxSize, proofMinSize)
	require.NoError(t, err)
	assert.Equal(t, inRange, out, "files already in range are kept as is")

	large := pngOf(t, 1200, 900, true)
	require.Greater(t, len(large), proofMaxSize)
	out, err = compressImage(large, proofMaxSize, proofMinSize)
	require.NoError(t, err)
	assert.Less(t, len(out), len(large))
	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, decoded.Bounds().Dx(), 600)

	_, err = compressImage([]byte("definitely not an image"), proofMaxSize, proofMinSize)
	assert.Error(t, err)
}

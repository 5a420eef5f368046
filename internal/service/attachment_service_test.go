package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oladanielT/support-system/internal/blob"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

func TestAttachmentUploadAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	blobs, err := blob.NewLocalStore(t.TempDir(), 64)
	require.NoError(t, err)
	svc := NewAttachmentService(AttachmentDependencies{Store: f.store, Blobs: blobs, MaxBytes: 64, Clock: f.clock.Now})
	c := f.create(t, f.user, "Screen shows artifacts")

	att, err := svc.Upload(ctx, f.user, c.ID, UploadInput{FileName: "../../photo.jpg", MimeType: "image/jpeg", Body: strings.NewReader("jpegbytes")})
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", att.FileName)
	assert.Equal(t, int64(9), att.SizeBytes)
	assert.Equal(t, f.user.ID, att.UploadedBy)

	_, err = svc.Upload(ctx, f.user2, c.ID, UploadInput{FileName: "x.txt", Body: strings.NewReader("x")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.Upload(ctx, f.user, c.ID, UploadInput{FileName: "huge.bin", Body: strings.NewReader(strings.Repeat("a", 65))})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	items, err := svc.List(ctx, f.admin, c.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	detail, err := f.complaints.Get(ctx, f.user, c.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Attachments, 1)

	_, err = svc.List(ctx, f.engineer, c.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

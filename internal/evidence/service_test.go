package evidence

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"isp-order-bot/internal/pkg/model"
	"isp-order-bot/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows map[string]map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]map[string]string{}}
}

func (f *fakeRepo) GetEvidence(_ context.Context, orderID string) (*DBEvidence, error) {
	row, ok := f.rows[orderID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &DBEvidence{
		OrderID:      orderID,
		ODPName:      row["odp_name"],
		SerialNumber: row["ont_sn"],
		PhotoODP:     row["photo_odp"],
		PhotoSNONT:   row["photo_sn_ont"],
	}, nil
}

func (f *fakeRepo) SetField(_ context.Context, orderID, column, value string, _ time.Time) error {
	if !writableColumn(column) {
		return ErrUnknownSlot
	}
	if f.rows[orderID] == nil {
		f.rows[orderID] = map[string]string{}
	}
	f.rows[orderID][column] = value
	return nil
}

type fakeDownloader struct {
	content string
	err     error
}

func (f *fakeDownloader) DownloadFile(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func TestLoadMissingEvidenceIsEmpty(t *testing.T) {
	svc := NewDefaultService(newFakeRepo(), NewLocalStorage(t.TempDir()), &fakeDownloader{})

	ev, err := svc.Load(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", ev.OrderID)
	assert.Equal(t, 0, ev.PhotoCount())
}

func TestStorePhotoWritesFileAndColumn(t *testing.T) {
	dir := t.TempDir()
	repo := newFakeRepo()
	svc := NewDefaultService(repo, NewLocalStorage(dir), &fakeDownloader{content: "jpeg-bytes"})

	key, err := svc.StorePhoto(context.Background(), "ORD 100", model.EvidenceSlots[0], "file-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "ord-100/photo_odp-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, key, repo.rows["ORD 100"]["photo_odp"])

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	ev, err := svc.Load(context.Background(), "ORD 100")
	require.NoError(t, err)
	assert.Equal(t, 1, ev.PhotoCount())
}

func TestStorePhotoDownloadFailure(t *testing.T) {
	repo := newFakeRepo()
	svc := NewDefaultService(repo, NewLocalStorage(t.TempDir()), &fakeDownloader{err: errors.New("boom")})

	_, err := svc.StorePhoto(context.Background(), "ORD-2", model.EvidenceSlots[1], "file-1")
	assert.Error(t, err)
	assert.Empty(t, repo.rows["ORD-2"])
}

func TestStorePhotoUnknownSlot(t *testing.T) {
	svc := NewDefaultService(newFakeRepo(), NewLocalStorage(t.TempDir()), &fakeDownloader{})

	_, err := svc.StorePhoto(context.Background(), "ORD-3", model.EvidenceSlot{Field: "photo_selfie"}, "f")
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestSetTextFields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewDefaultService(repo, NewLocalStorage(t.TempDir()), &fakeDownloader{})

	require.NoError(t, svc.SetODPName(context.Background(), "ORD-4", " ODP-CBB-01 "))
	require.NoError(t, svc.SetSerialNumber(context.Background(), "ORD-4", "ZTEG1234"))
	assert.Error(t, svc.SetSerialNumber(context.Background(), "ORD-4", "  "))

	ev, err := svc.Load(context.Background(), "ORD-4")
	require.NoError(t, err)
	assert.Equal(t, "ODP-CBB-01", ev.ODPName)
	assert.Equal(t, "ZTEG1234", ev.SerialNumber)
}

func TestNextSlotComplete(t *testing.T) {
	ev := &model.Evidence{Photos: map[string]string{}}
	for _, s := range model.EvidenceSlots {
		ev.Photos[s.Field] = "k"
	}
	_, err := NextSlot(ev)
	assert.ErrorIs(t, err, ErrAlreadyComplete)
}

func TestSetFieldQuery(t *testing.T) {
	builder, err := setFieldQuery("ORD-1", "photo_cable", "key", time.Now())
	require.NoError(t, err)
	query, _, err := builder.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO evidence (order_id,photo_cable,updated_at) VALUES ($1,$2,$3) "+
		"ON CONFLICT (order_id) DO UPDATE SET photo_cable = EXCLUDED.photo_cable, updated_at = EXCLUDED.updated_at", query)

	_, err = setFieldQuery("ORD-1", "order_id; DROP TABLE orders", "x", time.Now())
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

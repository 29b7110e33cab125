package persistence

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"depthcapture/internal/logger"
	"depthcapture/internal/model"
	"depthcapture/internal/repository/sqlite"
	"depthcapture/internal/service/events"
	"depthcapture/internal/service/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

var fixedNow = time.Date(2025, 6, 15, 14, 30, 5, 123_000_000, time.UTC)

type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ events.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestService(t *testing.T, opts ...Option) (*Service, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "Data_image")
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewService(storage.NewArtifactStore(dir), logger.NewConsoleLogger(io.Discard, "ERROR"), opts...)
	return svc, dir
}

func TestAcceptEncodedPayload_RoundTripSize(t *testing.T) {
	svc, dir := newTestService(t)

	res, err := svc.AcceptEncodedPayload(context.Background(), "data:image/png;base64,AAAA", "")
	require.NoError(t, err)

	assert.Equal(t, "depth_capture_2025-06-15T14-30-05-123Z.png", res.Filename)
	assert.Equal(t, int64(3), res.Size)
	assert.Equal(t, filepath.Join(dir, res.Filename), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0}, data)
}

func TestAcceptEncodedPayload_NamedOverwrite(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	_, err := svc.AcceptEncodedPayload(ctx, "AAAA", "x.png")
	require.NoError(t, err)
	res, err := svc.AcceptEncodedPayload(ctx, "AAAAAAAA", "x.png")
	require.NoError(t, err)

	assert.Equal(t, "x.png", res.Filename)
	assert.Equal(t, int64(6), res.Size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAcceptEncodedPayload_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AcceptEncodedPayload(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestAcceptEncodedPayload_Undecodable(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AcceptEncodedPayload(context.Background(), "not base64 !!", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBadRequest))
}

func TestAcceptEncodedPayload_InvalidName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AcceptEncodedPayload(context.Background(), "AAAA", "../escape.png")

	var storageErr *storage.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestAcceptUpload_GeneratesName(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.AcceptUpload(context.Background(), strings.NewReader("pngbytes"), "holiday.png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Filename, storage.FilenamePrefix))
	assert.Equal(t, "holiday.png", res.OriginalName)
	assert.Equal(t, int64(8), res.Size)
	assert.Equal(t, fixedNow, res.Timestamp)
}

func TestAcceptUpload_NoFile(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AcceptUpload(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestService_JournalsAndPublishes(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, WithJournal(sqlite.NewCaptureRepository(db)), WithPublisher(pub))

	res, err := svc.AcceptUpload(context.Background(), bytes.NewReader([]byte{1, 2, 3, 4}), "a.png")
	require.NoError(t, err, "publisher failures must not fail the ingestion")

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeArtifactStored, pub.events[0].Type)
	assert.Equal(t, res.Filename, pub.events[0].Filename)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCaptures)
	assert.Equal(t, map[string]int{model.SourceUpload: 1}, stats.PerSource)

	recent, err := svc.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Len(t, recent[0].Checksum, 64)
	assert.Equal(t, "a.png", recent[0].OriginalName)

	rec, err := svc.Lookup(res.Filename)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, recent[0].Checksum, rec.Checksum)
}

func TestService_StatsWithoutJournal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Stats()
	assert.ErrorIs(t, err, ErrNoJournal)

	rec, err := svc.Lookup("any.png")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestListArtifacts(t *testing.T) {
	svc, _ := newTestService(t)

	listing, err := svc.ListArtifacts()
	require.NoError(t, err)
	assert.Zero(t, listing.Count)
	assert.NotNil(t, listing.Images)

	_, err = svc.AcceptEncodedPayload(context.Background(), "AAAA", "one.png")
	require.NoError(t, err)

	listing, err = svc.ListArtifacts()
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Count)
	assert.Equal(t, "one.png", listing.Images[0].Filename)
}

func TestHealth_DoesNotTouchDisk(t *testing.T) {
	svc, dir := newTestService(t)

	h := svc.Health()
	assert.Equal(t, "OK", h.Status)
	assert.Equal(t, dir, h.DataImageDir)

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestAcceptEncodedPayload_StalledPublisherDoesNotBlock(t *testing.T) {
	svc, dir := newTestService(t, WithPublisher(stalledPublisher{}))
	svc.publishTimeout = 50 * time.Millisecond

	start := time.Now()
	res, err := svc.AcceptEncodedPayload(context.Background(), "AAAA", "")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	_, err = os.Stat(filepath.Join(dir, res.Filename))
	assert.NoError(t, err)
}

package command

import (
	"context"
	"errors"
	"kbfit/internal/core/domain"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTextSender struct {
	err     error
	Message string
}

func (m *MockTextSender) SendMessageReply(_ context.Context, _ *domain.Message, message string) (int, error) {
	m.Message = message
	return 0, m.err
}

func (m *MockTextSender) NotifyAndReturnError(_ context.Context, err error, _ *domain.Message) error {
	m.Message = err.Error()
	if m.err != nil {
		return m.err
	}
	return err
}

func (m *MockTextSender) SendChatAction(_ context.Context, _ int64, _ domain.Action) {}

type MockDocumentSender struct {
	fileName string
	file     []byte
	caption  string
	err      error
}

func (m *MockDocumentSender) SendDocumentReply(_ context.Context, _ *domain.Message, fileName string, file []byte,
	caption string) error {
	m.fileName = fileName
	m.file = file
	m.caption = caption
	return m.err
}

type MockCompressor struct {
	result   *domain.Result
	err      error
	targetKB int
	input    []byte
}

func (m *MockCompressor) Compress(_ context.Context, input []byte, targetKB int) (*domain.Result, error) {
	m.input = input
	m.targetKB = targetKB
	return m.result, m.err
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Record(ctx context.Context, name string, size int64, targetKB int) (domain.HistoryEntry,
	error) {
	args := m.Called(ctx, name, size, targetKB)
	return domain.HistoryEntry{}, args.Error(0)
}

func (m *MockHistory) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]domain.HistoryEntry)
	return entries, args.Error(1)
}

func (m *MockHistory) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHistory) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTracker struct {
	allowed bool
	usage   int64
}

func (m *MockTracker) AddUsage(_ int64, bytes int64) {
	m.usage += bytes
}

func (m *MockTracker) CheckLimit(_ context.Context, _ int64) bool {
	return m.allowed
}

func (m *MockTracker) GetUsage(_ int64) int64 {
	return m.usage
}

type compressFixture struct {
	compressor *MockCompressor
	history    *MockHistory
	text       *MockTextSender
	document   *MockDocumentSender
	tracker    *MockTracker
	downloaded string
	cmd        *Compress
}

func newCompressFixture(downloadErr error) *compressFixture {
	f := &compressFixture{
		compressor: &MockCompressor{result: &domain.Result{
			Data: make([]byte, 30*1024), Quality: 0.62, Width: 800, Height: 600,
		}},
		history:  new(MockHistory),
		text:     &MockTextSender{},
		document: &MockDocumentSender{},
		tracker:  &MockTracker{allowed: true},
	}

	f.cmd = NewCompress(CompressParams{
		Compressor: f.compressor,
		History:    f.history,
		Download: func(_ context.Context, url string, _ int64) ([]byte, error) {
			f.downloaded = url
			if downloadErr != nil {
				return nil, downloadErr
			}
			return []byte("source image bytes"), nil
		},
		TextSender:     f.text,
		DocumentSender: f.document,
		Track:          f.tracker,
		DefaultKB:      100,
		MaxDownload:    1 << 20,
		Command:        "/compress",
	})

	return f
}

func imageMessage(text string) *domain.Message {
	return &domain.Message{
		ID:       1,
		ChatID:   2,
		Text:     text,
		FileURL:  "https://files.example/cat photo.png",
		FileName: "cat photo.png",
	}
}

func TestNewCompress(t *testing.T) {
	f := newCompressFixture(nil)

	assert.NotNil(t, f.cmd)
	assert.Equal(t, "/compress", f.cmd.GetCommand())
}

func TestCompressRespondSuccessful(t *testing.T) {
	f := newCompressFixture(nil)
	f.history.On("Record", mock.Anything, "cat photo.png", int64(30*1024), 50).Return(nil)

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.NoError(t, err)

	assert.Equal(t, "https://files.example/cat photo.png", f.downloaded)
	assert.Equal(t, 50, f.compressor.targetKB)
	assert.Equal(t, []byte("source image bytes"), f.compressor.input)
	assert.Equal(t, "compressed-cat-photo.png.jpg", f.document.fileName)
	assert.Len(t, f.document.file, 30*1024)
	assert.Equal(t, "30.0 KB, 800x600, quality 62%", f.document.caption)
	assert.Equal(t, int64(len("source image bytes")), f.tracker.usage)
	f.history.AssertExpectations(t)
}

func TestCompressRespondDefaultTarget(t *testing.T) {
	f := newCompressFixture(nil)
	f.history.On("Record", mock.Anything, mock.Anything, mock.Anything, 100).Return(nil)

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress"))
	require.NoError(t, err)

	assert.Equal(t, 100, f.compressor.targetKB)
}

func TestCompressRespondOverBudgetCaption(t *testing.T) {
	f := newCompressFixture(nil)
	f.history.On("Record", mock.Anything, mock.Anything, mock.Anything, 10).Return(nil)

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 10"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(f.document.caption, "could not reach 10 KB, this is the smallest version"))
}

func TestCompressRespondMissingImage(t *testing.T) {
	f := newCompressFixture(nil)

	err := f.cmd.Respond(t.Context(), time.Minute, &domain.Message{ID: 1, ChatID: 2, Text: "/compress 50"})
	require.NoError(t, err)

	assert.Contains(t, f.text.Message, "missing image")
	assert.Empty(t, f.downloaded)
}

func TestCompressRespondInvalidTarget(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "below minimum", text: "/compress 5"},
		{name: "above maximum", text: "/compress 20000"},
		{name: "not a number", text: "/compress small"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCompressFixture(nil)

			err := f.cmd.Respond(t.Context(), time.Minute, imageMessage(tc.text))
			require.NoError(t, err)

			assert.Contains(t, f.text.Message, "invalid argument")
			assert.Empty(t, f.downloaded)
			assert.Nil(t, f.compressor.input)
		})
	}
}

func TestCompressRespondLimitReached(t *testing.T) {
	f := newCompressFixture(nil)
	f.tracker.allowed = false

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.NoError(t, err)

	assert.Empty(t, f.downloaded)
}

func TestCompressRespondDownloadFails(t *testing.T) {
	f := newCompressFixture(errors.New("mock error"))

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.Error(t, err)

	assert.Equal(t, "failed to download image: mock error", f.text.Message)
	assert.Nil(t, f.compressor.input)
}

func TestCompressRespondCompressFails(t *testing.T) {
	f := newCompressFixture(nil)
	f.compressor.err = domain.ErrUnreadableImage

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.ErrorIs(t, err, domain.ErrUnreadableImage)

	assert.Equal(t, "unreadable image", f.text.Message)
	assert.Empty(t, f.document.fileName)
}

func TestCompressRespondSendFails(t *testing.T) {
	f := newCompressFixture(nil)
	f.document.err = errors.New("mock error")

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.Error(t, err)

	assert.Equal(t, "failed to send compressed image: mock error", f.text.Message)
	f.history.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompressRespondHistoryFailureIgnored(t *testing.T) {
	f := newCompressFixture(nil)
	f.history.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("disk full"))

	err := f.cmd.Respond(t.Context(), time.Minute, imageMessage("/compress 50"))
	require.NoError(t, err)

	assert.NotEmpty(t, f.document.file)
}

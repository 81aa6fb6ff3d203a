package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/rpupo63/portfolio-backend/models"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) StreamChat(ctx context.Context, turns []ChatTurn, onChunk func(string) error) (string, error) {
	args := m.Called(ctx, turns, onChunk)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) DescribeImage(ctx context.Context, prompt, mimeType string, data []byte) (string, error) {
	args := m.Called(ctx, prompt, mimeType, data)
	return args.String(0), args.Error(1)
}

func (m *mockLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vectors, _ := args.Get(0).([][]float32)
	return vectors, args.Error(1)
}

type mockOCR struct {
	mock.Mock
}

func (m *mockOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) Nearest(ctx context.Context, embedding []float32, k int) ([]*models.Project, error) {
	args := m.Called(ctx, embedding, k)
	projects, _ := args.Get(0).([]*models.Project)
	return projects, args.Error(1)
}

type mockEmbeddingStore struct {
	mock.Mock
}

func (m *mockEmbeddingStore) Upsert(ctx context.Context, projectID uuid.UUID, content string, embedding []float32) error {
	return m.Called(ctx, projectID, content, embedding).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, email Email) error {
	return m.Called(ctx, email).Error(0)
}

type mockSMS struct {
	mock.Mock
}

func (m *mockSMS) SendSMS(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

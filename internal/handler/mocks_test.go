package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/candorapp/session-server-go/internal/generator"
	"github.com/candorapp/session-server-go/internal/model"
)

// Mock repositories

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) DecrementTrialIfPositive(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockSoloPrepRepo struct {
	mock.Mock
}

func (m *mockSoloPrepRepo) Create(ctx context.Context, params model.CreateSoloPrepParams) (*model.SoloPrepSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SoloPrepSession), args.Error(1)
}

func (m *mockSoloPrepRepo) FindByID(ctx context.Context, id string) (*model.SoloPrepSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SoloPrepSession), args.Error(1)
}

func (m *mockSoloPrepRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.SoloPrepSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SoloPrepSession), args.Error(1)
}

func (m *mockSoloPrepRepo) UpsertJournalEntry(ctx context.Context, sessionID, promptID, response string) (*model.JournalEntry, error) {
	args := m.Called(ctx, sessionID, promptID, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JournalEntry), args.Error(1)
}

func (m *mockSoloPrepRepo) ListJournalEntries(ctx context.Context, sessionID string) ([]model.JournalEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.JournalEntry), args.Error(1)
}

func (m *mockSoloPrepRepo) SetBriefing(ctx context.Context, id, briefing string) error {
	args := m.Called(ctx, id, briefing)
	return args.Error(0)
}

func (m *mockSoloPrepRepo) MarkConverted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockJointRepo struct {
	mock.Mock
}

func (m *mockJointRepo) Create(ctx context.Context, params model.CreateJointUnpackParams) (*model.JointUnpackSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JointUnpackSession), args.Error(1)
}

func (m *mockJointRepo) FindByID(ctx context.Context, id string) (*model.JointUnpackSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JointUnpackSession), args.Error(1)
}

func (m *mockJointRepo) FindBySoloPrepID(ctx context.Context, soloPrepID string) (*model.JointUnpackSession, error) {
	args := m.Called(ctx, soloPrepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JointUnpackSession), args.Error(1)
}

func (m *mockJointRepo) FindByToken(ctx context.Context, token string) (*model.JointUnpackSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JointUnpackSession), args.Error(1)
}

func (m *mockJointRepo) MarkAccepted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJointRepo) MarkCompleted(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockJointRepo) SetReady(ctx context.Context, id string, party model.Party) (*model.RevealState, error) {
	args := m.Called(ctx, id, party)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RevealState), args.Error(1)
}

func (m *mockJointRepo) SetAgenda(ctx context.Context, id, agenda string) error {
	args := m.Called(ctx, id, agenda)
	return args.Error(0)
}

func (m *mockJointRepo) UpsertGuestResponse(ctx context.Context, sessionID, promptID, response string) (*model.GuestResponse, error) {
	args := m.Called(ctx, sessionID, promptID, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestResponse), args.Error(1)
}

func (m *mockJointRepo) ListGuestResponses(ctx context.Context, sessionID string) ([]model.GuestResponse, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GuestResponse), args.Error(1)
}

func (m *mockJointRepo) MarkExpiredPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Mock content generator

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GeneratePrompts(ctx context.Context, req generator.PromptsRequest) ([]generator.Prompt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generator.Prompt), args.Error(1)
}

func (m *mockGenerator) GenerateBriefing(ctx context.Context, req generator.BriefingRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateAgenda(ctx context.Context, req generator.AgendaRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certverify/internal/university/models"
	"certverify/internal/university/store"
	"certverify/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *store.InMemory
	ctx   context.Context
}

func (s *InMemorySuite) SetupTest() {
	s.store = store.NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemorySuite) newUniversity(id, name, email string) *models.University {
	now := time.Now().UTC()
	return &models.University{
		ID:        id,
		Name:      name,
		Email:     email,
		PublicKey: "pub",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *InMemorySuite) TestCreateAndFind() {
	u := s.newUniversity("mit", "MIT", "registrar@mit.edu")
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, "mit")
	s.Require().NoError(err)
	s.Equal("MIT", found.Name)

	_, err = s.store.FindByID(s.ctx, "oxford")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestUniqueConstraints() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUniversity("mit", "MIT", "registrar@mit.edu")))

	err := s.store.Create(s.ctx, s.newUniversity("mit", "Other", "other@example.edu"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	// Names and emails are matched case-insensitively.
	err = s.store.Create(s.ctx, s.newUniversity("mit2", "mit", "other@example.edu"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	err = s.store.Create(s.ctx, s.newUniversity("mit3", "Other", "REGISTRAR@MIT.EDU"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemorySuite) TestSetVerified() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUniversity("mit", "MIT", "registrar@mit.edu")))

	now := time.Now().UTC()
	u, err := s.store.SetVerified(s.ctx, "mit", true, now)
	s.Require().NoError(err)
	s.True(u.Verified)
	s.Equal(now, u.UpdatedAt)

	_, err = s.store.SetVerified(s.ctx, "oxford", true, now)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestListOrderedByID() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUniversity("b-uni", "B", "b@example.edu")))
	s.Require().NoError(s.store.Create(s.ctx, s.newUniversity("a-uni", "A", "a@example.edu")))

	us, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(us, 2)
	s.Equal("a-uni", us[0].ID)
	s.Equal("b-uni", us[1].ID)
}

func (s *InMemorySuite) TestFindReturnsCopy() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUniversity("mit", "MIT", "registrar@mit.edu")))

	found, err := s.store.FindByID(s.ctx, "mit")
	s.Require().NoError(err)
	found.Name = "mutated"

	again, err := s.store.FindByID(s.ctx, "mit")
	s.Require().NoError(err)
	require.Equal(s.T(), "MIT", again.Name)
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/allexgorbunov/kingfin-contest-bot/internal/models"
)

type RegistrationSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func TestRegistrationSuite(t *testing.T) {
	suite.Run(t, new(RegistrationSuite))
}

func (s *RegistrationSuite) SetupTest() {
	s.f = newFixture(0)
	s.ctx = context.Background()
}

func (s *RegistrationSuite) register(email string, chatID int64) Registration {
	reg, err := s.f.registration.Register(s.ctx, email, chatID)
	s.Require().NoError(err)
	return reg
}

func (s *RegistrationSuite) TestSequentialNumbers() {
	s.Equal(Registration{Number: "001", Created: true}, s.register("a@x.com", 1))
	s.Equal(Registration{Number: "002", Created: true}, s.register("b@x.com", 2))
	s.Equal(Registration{Number: "001", Created: false}, s.register("a@x.com", 1))
}

func (s *RegistrationSuite) TestReRegistrationMovesChatID() {
	first := s.register("a@x.com", 10)
	second := s.register("a@x.com", 20)

	s.Equal(first.Number, second.Number)
	s.False(second.Created)

	p, err := s.f.store.FindByEmail(s.ctx, "a@x.com")
	s.Require().NoError(err)
	s.Equal(int64(20), *p.ChatID)
}

func (s *RegistrationSuite) TestSameChatSkipsUpdate() {
	s.register("a@x.com", 10)
	s.f.store.fail["update_chat_id"] = errStoreDown

	reg, err := s.f.registration.Register(s.ctx, "a@x.com", 10)
	s.Require().NoError(err)
	s.Equal("001", reg.Number)
}

func (s *RegistrationSuite) TestLegacyRowWithoutChatID() {
	s.Require().NoError(s.f.store.Insert(s.ctx, &models.Participant{ID: 1, Email: "old@x.com", Number: "001"}))

	reg := s.register("old@x.com", 5)
	s.False(reg.Created)

	p, err := s.f.store.FindByEmail(s.ctx, "old@x.com")
	s.Require().NoError(err)
	s.Require().NotNil(p.ChatID)
	s.Equal(int64(5), *p.ChatID)
}

func (s *RegistrationSuite) TestNumberAfterGap() {
	s.register("a@x.com", 1)
	s.register("b@x.com", 2)
	s.register("c@x.com", 3)
	_, err := s.f.roster.Remove(s.ctx, testAdminID, "002")
	s.Require().NoError(err)

	s.Equal("004", s.register("d@x.com", 4).Number)

	_, err = s.f.roster.Remove(s.ctx, testAdminID, "004")
	s.Require().NoError(err)
	s.Equal("005", s.register("e@x.com", 5).Number)

	list, err := s.f.roster.List(s.ctx, testAdminID)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"001", "003", "005"}, []string{list[0].Number, list[1].Number, list[2].Number})
}

func (s *RegistrationSuite) TestResetRestartsNumbering() {
	for i := range 5 {
		s.register(fmt.Sprintf("user%d@x.com", i), int64(i))
	}
	s.Require().NoError(s.f.roster.Reset(s.ctx, testAdminID))

	s.Equal(Registration{Number: "001", Created: true}, s.register("fresh@x.com", 9))
}

func (s *RegistrationSuite) TestConcurrentRegistrationsGetDistinctNumbers() {
	const n = 64
	var wg sync.WaitGroup
	numbers := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := s.f.registration.Register(s.ctx, fmt.Sprintf("p%d@x.com", i), int64(i))
			s.NoError(err)
			numbers[i] = reg.Number
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, num := range numbers {
		s.False(seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	for i := 1; i <= n; i++ {
		s.True(seen[models.FormatNumber(uint(i))])
	}
}

func (s *RegistrationSuite) TestConcurrentSameEmailRegistersOnce() {
	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := s.f.registration.Register(s.ctx, "same@x.com", int64(i))
			s.NoError(err)
			s.Equal("001", reg.Number)
			if reg.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, created)
}

func (s *RegistrationSuite) TestStorageFailureLeavesRosterUntouched() {
	s.f.store.fail["insert"] = errStoreDown

	_, err := s.f.registration.Register(s.ctx, "a@x.com", 1)
	s.Require().Error(err)
	s.True(IsStorageError(err))
	s.ErrorIs(err, errStoreDown)

	var se *StorageError
	s.Require().ErrorAs(err, &se)
	s.Equal("insert", se.Op)
	s.Equal("a@x.com", se.Key)

	delete(s.f.store.fail, "insert")
	list, err := s.f.store.ListAllOrderedByID(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *RegistrationSuite) TestLookupFailureIsStorageError() {
	s.f.store.fail["find_by_email"] = errStoreDown
	_, err := s.f.registration.Register(s.ctx, "a@x.com", 1)
	s.True(IsStorageError(err))
}

func (s *RegistrationSuite) TestPublishesOnlyNewRegistrations() {
	s.register("a@x.com", 1)
	s.register("a@x.com", 2)
	s.Equal([]string{EventParticipantRegistered}, s.f.publisher.types())
}

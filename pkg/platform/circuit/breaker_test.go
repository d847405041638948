package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New("registrar", opts...)
}

func (s *BreakerSuite) TestDefaults() {
	b := s.breaker()
	s.Equal("registrar", b.Name())
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpensOnConsecutiveFailures() {
	b := s.breaker(WithFailureThreshold(2))

	fallback, change := b.RecordFailure()
	s.False(fallback)
	s.False(change.Opened)

	fallback, change = b.RecordFailure()
	s.True(fallback)
	s.True(change.Opened)
	s.Equal("open", b.State().String())

	fallback, change = b.RecordFailure()
	s.True(fallback)
	s.False(change.Opened, "already open")
}

func (s *BreakerSuite) TestSuccessClearsFailureRun() {
	b := s.breaker(WithFailureThreshold(2))
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	s.False(b.IsOpen())
}

func (s *BreakerSuite) TestClosesAfterSuccessRun() {
	b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	primary, change := b.RecordSuccess()
	s.False(primary)
	s.False(change.Closed)

	b.RecordFailure()
	primary, _ = b.RecordSuccess()
	s.False(primary, "a failure restarts the success run")

	primary, change = b.RecordSuccess()
	s.True(primary)
	s.True(change.Closed)
	s.False(b.IsOpen())
}

func (s *BreakerSuite) TestAllowProbesOncePerCooldown() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(5*time.Second))
	b.RecordFailure()
	s.False(b.Allow())

	s.now = s.now.Add(5 * time.Second)
	s.True(b.Allow())
	s.False(b.Allow(), "second caller waits for the next window")
}

func (s *BreakerSuite) TestReset() {
	b := s.breaker(WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}

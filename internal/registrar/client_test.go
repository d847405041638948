package registrar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"namecart/internal/registrar"
	"namecart/internal/registrar/registrartest"
	"namecart/pkg/platform/circuit"
)

type ClientSuite struct {
	suite.Suite
	fake   *registrartest.Server
	client *registrar.Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.fake = registrartest.NewServer(s.T())
	client, err := registrar.New(registrar.Config{BaseURL: s.fake.URL, APIKey: "key"})
	s.Require().NoError(err)
	s.client = client
}

func (s *ClientSuite) TestGetDomain() {
	ctx := context.Background()

	s.Run("missing domain is not_found", func() {
		_, err := s.client.GetDomain(ctx, "ghost")
		s.Require().Error(err)
		s.True(registrar.IsNotFound(err))
		s.False(registrar.IsRetryable(err))
	})

	s.Run("decodes owner", func() {
		s.fake.SetDomain(registrar.DomainRecord{Name: "alice", Status: registrar.StatusCompleted, Owner: registrar.Owner{Type: registrar.OwnerMe}})
		rec, err := s.client.GetDomain(ctx, "alice")
		s.Require().NoError(err)
		s.Equal(registrar.OwnerMe, rec.Owner.Type)
		s.False(rec.Registrable())
	})
}

func (s *ClientSuite) TestRegisterAndTransfer() {
	ctx := context.Background()

	op, err := s.client.Register(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(registrar.StatusPending, op.Status)
	s.NotEmpty(op.ID)

	transfer, err := s.client.Transfer(ctx, "alice", "0xabc")
	s.Require().NoError(err)
	s.NotEqual(op.ID, transfer.ID, "every action gets its own operation id")

	rec, ok := s.fake.Domain("alice")
	s.Require().True(ok)
	s.Equal(registrar.OwnerUser, rec.Owner.Type)
	s.Equal("0xabc", rec.Owner.Address)
}

func (s *ClientSuite) TestErrorTaxonomy() {
	ctx := context.Background()
	s.fake.SetDomain(registrar.DomainRecord{Name: "bob", Owner: registrar.Owner{Type: registrar.OwnerUser}})

	cases := []struct {
		status    int
		category  registrar.Category
		retryable bool
	}{
		{http.StatusServiceUnavailable, registrar.CategoryTransient, true},
		{http.StatusTooManyRequests, registrar.CategoryTransient, true},
		{http.StatusConflict, registrar.CategoryConflict, false},
		{http.StatusForbidden, registrar.CategoryRejected, false},
		{http.StatusNotFound, registrar.CategoryNotFound, false},
	}
	for _, tc := range cases {
		s.fake.FailNext(registrartest.CallGetDomain, tc.status)
		_, err := s.client.GetDomain(ctx, "bob")
		s.Require().Error(err)
		s.Equal(tc.category, registrar.CategoryOf(err), "status %d", tc.status)
		s.Equal(tc.retryable, registrar.IsRetryable(err), "status %d", tc.status)
	}
}

func TestClient_RejectsUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"op-1","status":"MAYBE","domain":"alice"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := registrar.New(registrar.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.GetOperation(context.Background(), "op-1")
	require.Error(t, err)
	assert.Equal(t, registrar.CategoryBadData, registrar.CategoryOf(err))
}

func TestClient_SendsBearerKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"op-1","status":"COMPLETED","domain":"alice"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := registrar.New(registrar.Config{BaseURL: srv.URL, APIKey: "sk_test"})
	require.NoError(t, err)
	_, err = client.GetOperation(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk_test", auth)
}

func TestClient_BreakerOpensOnTransientFailures(t *testing.T) {
	fake := registrartest.NewServer(t)
	breaker := circuit.New("registrar", circuit.WithFailureThreshold(2))
	client, err := registrar.New(registrar.Config{BaseURL: fake.URL}, registrar.WithBreaker(breaker))
	require.NoError(t, err)

	ctx := context.Background()
	fake.FailNext(registrartest.CallGetOperation, http.StatusBadGateway, http.StatusBadGateway)
	_, _ = client.GetOperation(ctx, "op-1")
	_, _ = client.GetOperation(ctx, "op-1")
	require.True(t, breaker.IsOpen())

	_, err = client.GetOperation(ctx, "op-1")
	assert.Equal(t, registrar.CategoryCircuitOpen, registrar.CategoryOf(err))
	assert.Equal(t, 2, fake.Calls(registrartest.CallGetOperation), "open circuit short-circuits the call")
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := registrar.New(registrar.Config{})
	assert.ErrorContains(t, err, "base URL is required")
}

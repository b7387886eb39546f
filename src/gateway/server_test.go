package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/rif-marketplace/placements/src/placements"
	"github.com/rif-marketplace/placements/src/utils/config"
	monitor_market "github.com/rif-marketplace/placements/src/utils/monitoring/market"
)

var (
	testAdmin = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testNft   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	engine *placements.Engine
	server *Server
}

func (s *ServerTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.config.Gateway.RESTListenAddress = "127.0.0.1:0"

	s.engine = placements.NewEngine(s.config).
		WithLedger(placements.NewMemoryLedger())

	err := s.engine.Initialize(s.ctx, testNft, testAdmin)
	assert.Nil(s.T(), err)

	s.server = NewServer(s.config).
		WithEngine(s.engine).
		WithMonitor(monitor_market.NewMonitor())

	err = s.server.Start()
	assert.Nil(s.T(), err)

	// Routes are registered by the server subtask
	time.Sleep(100 * time.Millisecond)
}

func (s *ServerTestSuite) TearDownSuite() {
	s.server.StopWait()
	s.cancel()
}

func (s *ServerTestSuite) get(path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	s.server.Router.ServeHTTP(recorder, request)
	return recorder
}

func (s *ServerTestSuite) post(path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	s.server.Router.ServeHTTP(recorder, request)
	return recorder
}

func (s *ServerTestSuite) TestHealth() {
	response := s.get("/v1/health")
	assert.Equal(s.T(), http.StatusOK, response.Code)
}

func (s *ServerTestSuite) TestMetrics() {
	response := s.get("/metrics")
	assert.Equal(s.T(), http.StatusOK, response.Code)
}

func (s *ServerTestSuite) TestGetState() {
	response := s.get("/v1/state")
	assert.Equal(s.T(), http.StatusOK, response.Code)
	assert.Contains(s.T(), response.Body.String(), testAdmin.Hex())
}

func (s *ServerTestSuite) TestGetPlacementNotFound() {
	response := s.get("/v1/placements/42")
	assert.Equal(s.T(), http.StatusNotFound, response.Code)
	assert.Contains(s.T(), response.Body.String(), "Token not placed.")
}

func (s *ServerTestSuite) TestGetPlacementBadTokenId() {
	response := s.get("/v1/placements/not-a-number")
	assert.Equal(s.T(), http.StatusBadRequest, response.Code)
}

func (s *ServerTestSuite) TestInitializeTwice() {
	response := s.post("/v1/initialize", `{"nft_token":"`+testNft.Hex()+`","owner":"`+testAdmin.Hex()+`"}`)
	assert.Equal(s.T(), http.StatusConflict, response.Code)
	assert.Contains(s.T(), response.Body.String(), "already been initialized")
}

func (s *ServerTestSuite) TestWhitelistRequiresOwner() {
	body := `{"caller":"0x0000000000000000000000000000000000000099","payment_token":"0x00000000000000000000000000000000000000cc","is_erc20":true}`
	response := s.post("/v1/whitelist", body)
	assert.Equal(s.T(), http.StatusForbidden, response.Code)
	assert.Contains(s.T(), response.Body.String(), "Ownable: caller is not the owner")
}

func (s *ServerTestSuite) TestUnplaceIsIdempotent() {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodDelete, "/v1/placements/42", nil)
	s.server.Router.ServeHTTP(recorder, request)
	assert.Equal(s.T(), http.StatusOK, recorder.Code)
}

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/scandaemon/pkg/api"
	"github.com/tauraamui/scandaemon/pkg/api/auth"
	"github.com/tauraamui/scandaemon/pkg/camera"
	"github.com/tauraamui/scandaemon/pkg/database/models"
	"github.com/tauraamui/scandaemon/pkg/mocks"
	"github.com/tauraamui/scandaemon/pkg/scan"
	"github.com/tauraamui/scandaemon/pkg/scanner"
	"github.com/tauraamui/scandaemon/pkg/state"
	"github.com/tauraamui/scandaemon/pkg/video/videoframe"
)

const testSecret = "testsecret"

type nopRecognizer struct{}

func (nopRecognizer) Recognize(context.Context, videoframe.Frame) ([]scan.Barcode, error) {
	return []scan.Barcode{}, nil
}

func (nopRecognizer) Close() error { return nil }

type nopSnapshotWriter struct{}

func (nopSnapshotWriter) Write(string, videoframe.Frame) error { return nil }

type fixedHistory struct {
	scans []models.Scan
}

func (f fixedHistory) Create(*models.Scan) error { return nil }

func (f fixedHistory) ListByCamera(title string, limit int) ([]models.Scan, error) {
	return f.scans, nil
}

type sessions struct {
	list []*scanner.Session
}

func (s sessions) Sessions() []*scanner.Session { return s.list }

func (s sessions) Session(title string) (*scanner.Session, bool) {
	for _, sess := range s.list {
		if sess.Title() == title {
			return sess, true
		}
	}
	return nil, false
}

type users struct{}

func (users) Authenticate(username, password string) (models.User, error) {
	if username == "admin" && password == "hunter2" {
		return models.User{UUID: "admin-uuid", Name: "admin"}, nil
	}
	return models.User{}, errors.New("invalid username or password")
}

type APITestSuite struct {
	suite.Suite
	session *scanner.Session
	server  *httptest.Server
	token   string
}

func (suite *APITestSuite) SetupSuite() {
	logging.CurrentLoggingLevel = logging.SilentLevel
}

func (suite *APITestSuite) TearDownSuite() {
	logging.CurrentLoggingLevel = logging.WarnLevel
}

func (suite *APITestSuite) SetupTest() {
	cam := mocks.NewCamConn(mocks.Options{
		UUID: "front-door-uuid", Title: "FrontDoor", IsOpen: true,
		Settings: camera.Settings{SamplingWindow: time.Second},
	})
	suite.session = scanner.NewSession(cam, scanner.SessionOptions{
		Recognizer: nopRecognizer{},
		Snapshots:  nopSnapshotWriter{},
		History: fixedHistory{scans: []models.Scan{
			{UUID: "scan-1", CameraTitle: "FrontDoor", Format: "QR_CODE", ValueType: "URL", RawValue: "https://example.com"},
		}},
	})
	suite.session.Start()

	suite.server = httptest.NewServer(api.NewRouter(api.Options{
		Secret:   testSecret,
		Sessions: sessions{list: []*scanner.Session{suite.session}},
		Users:    users{},
	}))

	token, err := auth.GenToken(testSecret, "admin-uuid")
	require.NoError(suite.T(), err)
	suite.token = token
}

func (suite *APITestSuite) TearDownTest() {
	suite.server.Close()
	suite.session.Stop()
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, &APITestSuite{})
}

func (suite *APITestSuite) request(method, path string) *http.Response {
	req, err := http.NewRequest(method, suite.server.URL+path, nil)
	require.NoError(suite.T(), err)
	req.Header.Set("Authorization", "Bearer "+suite.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(suite.T(), err)
	return resp
}

func (suite *APITestSuite) TestHealthz() {
	resp, err := http.Get(suite.server.URL + "/healthz")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
}

func (suite *APITestSuite) TestMetricsExposeSamplerDecisions() {
	require.Eventually(suite.T(), func() bool {
		return suite.session.Sampler().Stats().Rejected > 0
	}, 3*time.Second, time.Millisecond)

	resp, err := http.Get(suite.server.URL + "/metrics")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()

	var body strings.Builder
	_, err = body.ReadFrom(resp.Body)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), body.String(), "scandaemon_frames_sampled_total")
}

func (suite *APITestSuite) TestAuthIssuesTokenForValidCredentials() {
	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/auth", nil)
	require.NoError(suite.T(), err)
	req.SetBasicAuth("admin", "hunter2")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	body := map[string]string{}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	userUUID, err := auth.ValidateToken(testSecret, body["token"])
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "admin-uuid", userUUID)
}

func (suite *APITestSuite) TestAuthRejectsInvalidCredentials() {
	req, err := http.NewRequest(http.MethodPost, suite.server.URL+"/auth", nil)
	require.NoError(suite.T(), err)
	req.SetBasicAuth("admin", "wrong")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *APITestSuite) TestSessionsRequireToken() {
	resp, err := http.Get(suite.server.URL + "/sessions")
	require.NoError(suite.T(), err)
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)

	suite.token = "not-a-token"
	resp = suite.request(http.MethodGet, "/sessions")
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *APITestSuite) TestListSessions() {
	resp := suite.request(http.MethodGet, "/sessions")
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	body := []struct {
		Title string `json:"title"`
		UUID  string `json:"uuid"`
	}{}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.Len(suite.T(), body, 1)
	assert.Equal(suite.T(), "FrontDoor", body[0].Title)
	assert.Equal(suite.T(), "front-door-uuid", body[0].UUID)
}

func (suite *APITestSuite) TestUnknownSessionIsNotFound() {
	resp := suite.request(http.MethodGet, "/sessions/Nowhere/state")
	defer resp.Body.Close()
	assert.Equal(suite.T(), http.StatusNotFound, resp.StatusCode)
}

func (suite *APITestSuite) TestTakePictureUpdatesState() {
	resp := suite.request(http.MethodPost, "/sessions/FrontDoor/picture")
	resp.Body.Close()
	require.Equal(suite.T(), http.StatusAccepted, resp.StatusCode)

	require.Eventually(suite.T(), func() bool {
		resp := suite.request(http.MethodGet, "/sessions/FrontDoor/state")
		defer resp.Body.Close()
		st := state.State{}
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return false
		}
		return st.ImageTaken != nil && !st.IsLoading
	}, 3*time.Second, 10*time.Millisecond)
}

func (suite *APITestSuite) TestListScans() {
	resp := suite.request(http.MethodGet, "/sessions/FrontDoor/scans?limit=5")
	defer resp.Body.Close()
	require.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	body := []map[string]interface{}{}
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	require.Len(suite.T(), body, 1)
	assert.Equal(suite.T(), "https://example.com", body[0]["raw_value"])
	assert.Equal(suite.T(), "URL", body[0]["value_type"])

	bad := suite.request(http.MethodGet, "/sessions/FrontDoor/scans?limit=lots")
	defer bad.Body.Close()
	assert.Equal(suite.T(), http.StatusBadRequest, bad.StatusCode)
}

func (suite *APITestSuite) TestStreamPushesPreviewReady() {
	url := "ws" + strings.TrimPrefix(suite.server.URL, "http") + "/sessions/FrontDoor/stream?token=" + suite.token
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(suite.T(), err)
	defer c.Close()

	require.NoError(suite.T(), c.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, msg, err := c.ReadMessage()
		require.NoError(suite.T(), err)
		st := state.State{}
		require.NoError(suite.T(), json.Unmarshal(msg, &st))
		if st.PreviewReady {
			require.NotNil(suite.T(), st.Preview)
			assert.Equal(suite.T(), "FrontDoor", st.Preview.CameraTitle)
			return
		}
	}
}

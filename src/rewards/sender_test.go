package rewards

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/model"
	monitor_rewards "github.com/onton/reconciler/src/utils/monitoring/rewards"
	"github.com/onton/reconciler/src/utils/sbt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testActivityId = "act-1"

func TestSenderTestSuite(t *testing.T) {
	suite.Run(t, new(SenderTestSuite))
}

type SenderTestSuite struct {
	suite.Suite
	config *config.Config
	db     *gorm.DB

	server *httptest.Server
	// Per-test request handling
	handler http.HandlerFunc

	monitor *monitor_rewards.Monitor
	sender  *Sender
}

func (s *SenderTestSuite) SetupSuite() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
}

func (s *SenderTestSuite) TearDownSuite() {
	s.server.Close()
}

func (s *SenderTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Rewards.ApiUrl = s.server.URL
	s.config.Rewards.BatchSize = 2
	s.config.Rewards.MaxAttempts = 2
	s.config.Rewards.RetryDelay = time.Millisecond
	s.config.Rewards.RateLimitCooldown = time.Millisecond

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(s.T(), err)
	sqlDb, err := db.DB()
	require.NoError(s.T(), err)
	sqlDb.SetMaxOpenConns(1)

	err = db.AutoMigrate(&model.Event{}, &model.Reward{})
	require.NoError(s.T(), err)
	s.db = db

	client := sbt.NewClient(&s.config.Rewards)
	s.monitor = monitor_rewards.NewMonitor()
	s.sender = NewSender(s.config).
		WithDb(db).
		WithClient(client).
		WithActivityWindow(NewActivityWindow(s.config, client)).
		WithMonitor(s.monitor)
}

func (s *SenderTestSuite) seedEvent(endDate time.Time) *model.Event {
	event := &model.Event{
		Id:         7,
		Title:      "Conference",
		ActivityId: testActivityId,
		EndDate:    endDate,
	}
	require.NoError(s.T(), s.db.Create(event).Error)
	return event
}

func (s *SenderTestSuite) seedRewards(kind model.RewardKind, count int) {
	for i := 0; i < count; i++ {
		require.NoError(s.T(), s.db.Create(&model.Reward{
			EventId:        7,
			UserId:         int64(100 + i),
			TelegramUserId: int64(1000 + i),
			Kind:           kind,
			Status:         model.RewardStatusPendingCreation,
		}).Error)
	}
}

func (s *SenderTestSuite) activityResponse(w http.ResponseWriter, endDate time.Time) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sbt.Activity{Id: testActivityId, EndDate: endDate})
}

func (s *SenderTestSuite) countByStatus(status model.RewardStatus) (count int64) {
	s.db.Model(&model.Reward{}).Where("status = ?", status).Count(&count)
	return
}

func (s *SenderTestSuite) TestBatchPathMarksCreated() {
	event := s.seedEvent(time.Now().Add(time.Hour))
	s.seedRewards(model.RewardKindSbt, 5)

	var batchCalls int
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/activities/" + testActivityId:
			s.activityResponse(w, time.Now().Add(time.Hour))
		case "/v1/activities/" + testActivityId + "/rewards/batch":
			batchCalls++
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reward_link": "https://rewards.example/b/1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	require.NoError(s.T(), s.sender.ProcessEvent(event))

	// 5 rewards at batch size 2 means 3 submissions
	assert.Equal(s.T(), 3, batchCalls)
	assert.Equal(s.T(), int64(5), s.countByStatus(model.RewardStatusCreated))
	assert.Equal(s.T(), int64(0), s.countByStatus(model.RewardStatusPendingCreation))

	var reward model.Reward
	require.NoError(s.T(), s.db.First(&reward).Error)
	assert.Equal(s.T(), "https://rewards.example/b/1", reward.RewardLink)
}

func (s *SenderTestSuite) TestRateLimitedBatchEventuallySucceeds() {
	event := s.seedEvent(time.Now().Add(time.Hour))
	s.seedRewards(model.RewardKindSbt, 1)

	var batchCalls int
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/activities/" + testActivityId:
			s.activityResponse(w, time.Now().Add(time.Hour))
		case "/v1/activities/" + testActivityId + "/rewards/batch":
			batchCalls++
			// Rate limits beyond the bounded-retry budget still clear
			if batchCalls <= 3 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reward_link": "https://rewards.example/b/2"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	require.NoError(s.T(), s.sender.ProcessEvent(event))

	assert.Equal(s.T(), 4, batchCalls)
	assert.Equal(s.T(), int64(1), s.countByStatus(model.RewardStatusCreated))
	assert.Equal(s.T(), uint64(3), s.monitor.Report.Rewards.State.RateLimitHits.Load())
}

func (s *SenderTestSuite) TestIndividualFailureMarksFailed() {
	event := s.seedEvent(time.Now().Add(time.Hour))
	s.seedRewards(model.RewardKindCsbt, 1)

	var rewardCalls int
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/activities/" + testActivityId:
			s.activityResponse(w, time.Now().Add(time.Hour))
		case "/v1/activities/" + testActivityId + "/rewards":
			rewardCalls++
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	require.NoError(s.T(), s.sender.ProcessEvent(event))

	assert.Equal(s.T(), s.config.Rewards.MaxAttempts, rewardCalls)
	assert.Equal(s.T(), int64(1), s.countByStatus(model.RewardStatusFailed))
}

func (s *SenderTestSuite) TestElapsedActivityIsExtendedAndReverted() {
	originalEnd := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	event := s.seedEvent(originalEnd)
	s.seedRewards(model.RewardKindSbt, 1)

	var patches []string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/activities/"+testActivityId && r.Method == http.MethodGet:
			s.activityResponse(w, originalEnd)
		case r.URL.Path == "/v1/activities/"+testActivityId && r.Method == http.MethodPatch:
			var body struct {
				EndDate string `json:"end_date"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			patches = append(patches, body.EndDate)
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/activities/"+testActivityId+"/rewards/batch":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reward_link": "https://rewards.example/b/3"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	require.NoError(s.T(), s.sender.ProcessEvent(event))

	// Extended before the batch, reverted to the original date afterwards
	require.Len(s.T(), patches, 2)
	assert.Equal(s.T(), originalEnd.Format(time.RFC3339), patches[1])
	assert.Equal(s.T(), int64(1), s.countByStatus(model.RewardStatusCreated))
}

func (s *SenderTestSuite) TestStartedTaskIssuesIndividualRewards() {
	event := s.seedEvent(time.Now().Add(time.Hour))
	s.seedRewards(model.RewardKindCsbt, 3)

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/activities/" + testActivityId:
			s.activityResponse(w, time.Now().Add(time.Hour))
		case "/v1/activities/" + testActivityId + "/rewards":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reward_link": "https://rewards.example/i/1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	// The worker pool must stay usable for the whole started lifetime of the
	// task, not just until the startup goroutines settle
	require.NoError(s.T(), s.sender.Start())
	require.NoError(s.T(), s.sender.ProcessEvent(event))
	s.sender.StopWait()

	assert.Equal(s.T(), int64(3), s.countByStatus(model.RewardStatusCreated))
	assert.Equal(s.T(), int64(0), s.countByStatus(model.RewardStatusPendingCreation))
}

func (s *SenderTestSuite) TestNoPendingRewardsIsQuiet() {
	event := s.seedEvent(time.Now().Add(time.Hour))

	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.T().Errorf("unexpected request to %s", r.URL.Path)
	}

	require.NoError(s.T(), s.sender.ProcessEvent(event))
}

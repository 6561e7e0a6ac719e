package sbt

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// ErrRateLimited marks a 429 response. Rate limits are expected to clear,
// callers retry these with a fixed cooldown and never count them against
// the bounded-retry budget.
var ErrRateLimited = errors.New("rewards API rate limited")

type Activity struct {
	Id      string    `json:"id"`
	EndDate time.Time `json:"end_date"`
}

type rewardLinkResponse struct {
	RewardLink string `json:"reward_link"`
}

// Client talks to the external rewards (SBT) platform
type Client struct {
	httpClient *resty.Client
	config     *config.Rewards
	log        *logrus.Entry
}

func NewClient(config *config.Rewards) (self *Client) {
	self = new(Client)
	self.config = config
	self.log = logger.NewSublogger("sbt-client")
	self.httpClient = resty.New().
		SetBaseURL(config.ApiUrl).
		SetTimeout(config.RequestTimeout).
		SetHeader("Authorization", "Bearer "+config.ApiKey)
	return
}

// CreateRewardLink issues a single reward for one recipient
func (self *Client) CreateRewardLink(ctx context.Context, activityId string, telegramUserId int64, attributes map[string]string) (link string, err error) {
	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(rewardLinkResponse{}).
		ForceContentType("application/json").
		SetHeader("Accept", "application/json").
		SetBody(map[string]interface{}{
			"telegram_user_id": telegramUserId,
			"attributes":       attributes,
		}).
		Post("/v1/activities/" + activityId + "/rewards")
	if err != nil {
		return
	}

	if resp.StatusCode() == 429 {
		return "", ErrRateLimited
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("reward link request failed with status %d", resp.StatusCode())
	}

	result, ok := resp.Result().(*rewardLinkResponse)
	if !ok {
		return "", errors.New("failed to parse reward link response")
	}
	return result.RewardLink, nil
}

// SubmitRewardBatch submits one CSV of recipient identifiers and returns the
// shareable reward link covering the whole batch
func (self *Client) SubmitRewardBatch(ctx context.Context, activityId string, csvPayload []byte) (link string, err error) {
	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(rewardLinkResponse{}).
		SetFileReader("file", "recipients.csv", bytes.NewReader(csvPayload)).
		SetHeader("Accept", "application/json").
		Post("/v1/activities/" + activityId + "/rewards/batch")
	if err != nil {
		return
	}

	if resp.StatusCode() == 429 {
		return "", ErrRateLimited
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("reward batch request failed with status %d", resp.StatusCode())
	}

	result, ok := resp.Result().(*rewardLinkResponse)
	if !ok {
		return "", errors.New("failed to parse reward batch response")
	}
	return result.RewardLink, nil
}

// GetActivity fetches the activity's current reward campaign window
func (self *Client) GetActivity(ctx context.Context, activityId string) (activity *Activity, err error) {
	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetResult(Activity{}).
		ForceContentType("application/json").
		SetHeader("Accept", "application/json").
		Get("/v1/activities/" + activityId)
	if err != nil {
		return
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("activity request failed with status %d", resp.StatusCode())
	}

	activity, ok := resp.Result().(*Activity)
	if !ok {
		return nil, errors.New("failed to parse activity response")
	}
	return
}

// UpdateActivity patches the activity's end date. Used to temporarily extend
// an elapsed campaign window and to revert the extension afterwards.
func (self *Client) UpdateActivity(ctx context.Context, activityId string, endDate time.Time) (err error) {
	resp, err := self.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(map[string]interface{}{
			"end_date": endDate.UTC().Format(time.RFC3339),
		}).
		Patch("/v1/activities/" + activityId)
	if err != nil {
		return
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("activity update failed with status %d", resp.StatusCode())
	}
	return nil
}

// BuildRecipientsCsv renders the batch submission payload
func BuildRecipientsCsv(telegramUserIds []int64) (out []byte, err error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err = writer.Write([]string{"telegram_user_id"}); err != nil {
		return
	}
	for _, id := range telegramUserIds {
		if err = writer.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
			return
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return
	}
	return buf.Bytes(), nil
}

package notify

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/task"

	"github.com/go-resty/resty/v2"
)

// UnreconciledRecord is one transaction that carried the payment comment
// prefix but could not be matched to an order
type UnreconciledRecord struct {
	TrxHash string
	Lt      uint64
	Sender  string
	Comment string
	Reason  string
}

// Notifier batches unreconciled records and sends them as a CSV attachment
// to the operations chat. Operational visibility only, losing a report is
// acceptable; reconciliation state lives in the database.
type Notifier struct {
	*task.Processor[*UnreconciledRecord, *UnreconciledRecord]

	httpClient     *resty.Client
	notifierConfig *config.Notifier
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)
	self.notifierConfig = &config.Notifier

	self.httpClient = resty.New().
		SetBaseURL(config.Notifier.BotApiUrl).
		SetTimeout(config.Notifier.RequestTimeout)

	self.Processor = task.NewProcessor[*UnreconciledRecord, *UnreconciledRecord](config, "notifier").
		WithBatchSize(config.Notifier.BatchSize).
		WithOnFlush(config.Notifier.FlushInterval, self.flush).
		WithOnProcess(self.process).
		WithBackoff(0, config.Notifier.MaxBackoffInterval)

	return
}

func (self *Notifier) WithInputChannel(v chan *UnreconciledRecord) *Notifier {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *Notifier) process(record *UnreconciledRecord) (out []*UnreconciledRecord, err error) {
	out = []*UnreconciledRecord{record}
	return
}

func (self *Notifier) flush(records []*UnreconciledRecord) (out []*UnreconciledRecord, err error) {
	if len(records) == 0 {
		return
	}

	if self.notifierConfig.BotToken == "" || self.notifierConfig.ChatId == "" {
		self.Log.Debug("Notifier not configured, dropping report")
		return
	}

	payload, err := renderCsv(records)
	if err != nil {
		return
	}

	resp, err := self.httpClient.R().
		SetContext(self.Ctx).
		SetFileReader("document", "unreconciled.csv", bytes.NewReader(payload)).
		SetFormData(map[string]string{
			"chat_id": self.notifierConfig.ChatId,
			"caption": fmt.Sprintf("%d transactions could not be reconciled", len(records)),
		}).
		Post("/bot" + self.notifierConfig.BotToken + "/sendDocument")
	if err != nil {
		return
	}

	if !resp.IsSuccess() {
		err = fmt.Errorf("notifier request failed with status %d", resp.StatusCode())
		return
	}

	self.Log.WithField("count", len(records)).Info("Sent unreconciled transactions report")

	// Processing stops here, no need to return anything
	out = nil
	return
}

func renderCsv(records []*UnreconciledRecord) (out []byte, err error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err = writer.Write([]string{"trx_hash", "lt", "sender", "comment", "reason"}); err != nil {
		return
	}
	for _, record := range records {
		row := []string{
			record.TrxHash,
			strconv.FormatUint(record.Lt, 10),
			record.Sender,
			record.Comment,
			record.Reason,
		}
		if err = writer.Write(row); err != nil {
			return
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return
	}
	return buf.Bytes(), nil
}

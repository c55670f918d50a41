package services

import (
	"context"
	"time"

	"dues-ledger/internal/aggregation"
	"dues-ledger/internal/models"
)

// QueryService computes the read-only views. Nothing it derives is stored.
type QueryService struct {
	ledger   *LedgerService
	journal  *JournalService
	settings *SettingsService
	loc      *time.Location
	now      func() time.Time
}

func NewQueryService(ledger *LedgerService, journal *JournalService, settings *SettingsService, loc *time.Location) *QueryService {
	if loc == nil {
		loc = time.Local
	}
	return &QueryService{
		ledger:   ledger,
		journal:  journal,
		settings: settings,
		loc:      loc,
		now:      time.Now,
	}
}

type ConsumerQuery struct {
	Filter string
	Search string
	Sort   string
}

type ConsumerDetail struct {
	Consumer *models.Consumer          `json:"consumer"`
	History  []*models.FollowUpHistory `json:"history"`
}

func (s *QueryService) today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// ListConsumers narrows by status or follow-up date through the store
// indexes when the filter allows it, then applies search, filter and sort.
func (s *QueryService) ListConsumers(ctx context.Context, q ConsumerQuery) ([]*models.Consumer, error) {
	day := s.today()

	var consumers []*models.Consumer
	var err error
	switch status := models.ConsumerStatus(q.Filter); {
	case q.Filter == aggregation.FilterFollowUpToday:
		consumers, err = s.ledger.ListFollowUpsOn(ctx, day)
	case status.IsValid():
		consumers, err = s.ledger.ListByStatus(ctx, status)
	default:
		consumers, err = s.ledger.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	return aggregation.Filter(consumers, aggregation.FilterSpec{
		Filter:    q.Filter,
		Search:    q.Search,
		Sort:      q.Sort,
		Day:       day,
		Location:  s.loc,
		Threshold: s.settings.Get(ctx).HighDueThreshold,
	}), nil
}

func (s *QueryService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	consumers, err := s.ledger.GetAll(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return aggregation.Dashboard(consumers, s.settings.Get(ctx), s.today(), s.loc), nil
}

func (s *QueryService) ConsumerDetail(ctx context.Context, consumerNo string) (*ConsumerDetail, error) {
	c, err := s.ledger.Get(ctx, consumerNo)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConsumerNotFound
	}

	history, err := s.journal.ListForConsumer(ctx, consumerNo)
	if err != nil {
		return nil, err
	}
	return &ConsumerDetail{Consumer: c, History: history}, nil
}

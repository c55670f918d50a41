// Package aggregation derives read-only views over the consumer list. Nothing
// here touches storage; every view is recomputed from the slices it is given.
package aggregation

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dues-ledger/internal/models"
)

// Filter names understood by Filter, besides exact status values
const (
	FilterAll           = "All"
	FilterPaid          = "Paid"
	FilterPaidToday     = "PaidToday"
	FilterUnpaid        = "Unpaid"
	FilterFollowUpToday = "FollowUpToday"
	FilterHighDue       = "HighDue"
)

// Sort orders
const (
	SortByAmount = "amount"
	SortByAge    = "age"
)

func where(consumers []*models.Consumer, keep func(c *models.Consumer) bool) []*models.Consumer {
	out := []*models.Consumer{}
	for _, c := range consumers {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func Unpaid(consumers []*models.Consumer) []*models.Consumer {
	return where(consumers, func(c *models.Consumer) bool { return !c.IsPaid() })
}

// HighDue returns unpaid consumers owing at least the threshold.
func HighDue(consumers []*models.Consumer, threshold decimal.Decimal) []*models.Consumer {
	return where(consumers, func(c *models.Consumer) bool {
		return !c.IsPaid() && c.TotalDue.GreaterThanOrEqual(threshold)
	})
}

// FollowUpDueOn returns unpaid consumers scheduled for a callback on day.
func FollowUpDueOn(consumers []*models.Consumer, day string) []*models.Consumer {
	return where(consumers, func(c *models.Consumer) bool {
		return !c.IsPaid() && c.NextFollowUpDate != "" && c.NextFollowUpDate == day
	})
}

// AttendedOn returns consumers last touched on day, in loc.
func AttendedOn(consumers []*models.Consumer, day string, loc *time.Location) []*models.Consumer {
	return where(consumers, func(c *models.Consumer) bool {
		return !c.UpdatedAt.IsZero() && c.UpdatedAt.In(loc).Format(models.DateLayout) == day
	})
}

func PaidOn(consumers []*models.Consumer, day string, loc *time.Location) []*models.Consumer {
	return where(AttendedOn(consumers, day, loc), func(c *models.Consumer) bool { return c.IsPaid() })
}

// CollectedAmount sums the dues of the given consumers.
func CollectedAmount(consumers []*models.Consumer) decimal.Decimal {
	total := decimal.Zero
	for _, c := range consumers {
		total = total.Add(c.TotalDue)
	}
	return total
}

// Search matches term case-insensitively against name, consumer number,
// mobile and address. An empty term matches everything.
func Search(consumers []*models.Consumer, term string) []*models.Consumer {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]*models.Consumer{}, consumers...)
	}
	return where(consumers, func(c *models.Consumer) bool {
		return strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(strings.ToLower(c.ConsumerNo), term) ||
			strings.Contains(strings.ToLower(c.Mobile), term) ||
			strings.Contains(strings.ToLower(c.Address), term)
	})
}

// SortByDue orders by total due, largest first. Ties keep their input order.
func SortByDue(consumers []*models.Consumer) {
	sort.SliceStable(consumers, func(i, j int) bool {
		return consumers[i].TotalDue.GreaterThan(consumers[j].TotalDue)
	})
}

// SortByAgeInDays orders by age, oldest first. Ties keep their input order.
func SortByAgeInDays(consumers []*models.Consumer) {
	sort.SliceStable(consumers, func(i, j int) bool {
		return consumers[i].AgeInDays > consumers[j].AgeInDays
	})
}

type FilterSpec struct {
	Filter    string
	Search    string
	Sort      string
	Day       string
	Location  *time.Location
	Threshold decimal.Decimal
}

// Filter applies search, then the named filter, then the sort order, the
// same sequence the consumer list screen uses. Unknown filter names are
// treated as exact status values.
func Filter(consumers []*models.Consumer, opts FilterSpec) []*models.Consumer {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	result := Search(consumers, opts.Search)

	switch opts.Filter {
	case "", FilterAll:
	case FilterPaid:
		result = where(result, func(c *models.Consumer) bool { return c.IsPaid() })
	case FilterPaidToday:
		result = PaidOn(result, opts.Day, loc)
	case FilterUnpaid:
		result = Unpaid(result)
	case FilterFollowUpToday:
		result = FollowUpDueOn(result, opts.Day)
	case FilterHighDue:
		result = HighDue(result, opts.Threshold)
	default:
		status := models.ConsumerStatus(opts.Filter)
		result = where(result, func(c *models.Consumer) bool { return c.Status == status })
	}

	switch opts.Sort {
	case SortByAge:
		SortByAgeInDays(result)
	case SortByAmount, "":
		SortByDue(result)
	}
	return result
}

// Dashboard computes the counters for day in loc.
func Dashboard(consumers []*models.Consumer, settings models.AppSettings, day string, loc *time.Location) models.DashboardStats {
	paid := PaidOn(consumers, day, loc)
	return models.DashboardStats{
		TodayFollowUps:       len(FollowUpDueOn(consumers, day)),
		TodayPaidCount:       len(paid),
		TodayCollectedAmount: CollectedAmount(paid),
		UnpaidCount:          len(Unpaid(consumers)),
		HighDueCount:         len(HighDue(consumers, settings.HighDueThreshold)),
	}
}

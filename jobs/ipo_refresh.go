package jobs

import (
	"context"
	"time"

	"github.com/fenilmodi00/ipo-dashboard/models"
	"github.com/fenilmodi00/ipo-dashboard/shared"
	"github.com/sirupsen/logrus"
)

const refreshTimeout = 2 * time.Minute

// CalendarFetcher is the IPO calendar source the refresh job polls
type CalendarFetcher interface {
	GetIPOCalendar(ctx context.Context, from, to string) ([]models.IPOListing, error)
}

// IPORefreshJob re-fetches the IPO calendar once a day and logs what came back.
// It keeps no state beyond metrics.
type IPORefreshJob struct {
	Calendar CalendarFetcher
	Metrics  *shared.ServiceMetrics
	From     string
	Hour     int
	Minute   int
	Now      func() time.Time
	after    func(time.Duration) <-chan time.Time
}

func NewIPORefreshJob(calendar CalendarFetcher, metrics *shared.ServiceMetrics, from string, hour, minute int) *IPORefreshJob {
	return &IPORefreshJob{
		Calendar: calendar,
		Metrics:  metrics,
		From:     from,
		Hour:     hour,
		Minute:   minute,
		Now:      time.Now,
		after:    time.After,
	}
}

// Start runs the job daily at Hour:Minute local time until ctx is cancelled
func (j *IPORefreshJob) Start(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"component": "IPORefreshJob",
		"hour":      j.Hour,
		"minute":    j.Minute,
	}).Info("Starting IPO refresh job")

	go func() {
		for {
			now := j.Now()
			select {
			case <-ctx.Done():
				logrus.WithField("component", "IPORefreshJob").Info("IPO refresh job stopped")
				return
			case <-j.after(NextRun(now, j.Hour, j.Minute).Sub(now)):
				j.Run(ctx)
			}
		}
	}()
}

// Run fetches the calendar from From to three months ahead. Failures are logged, never fatal.
func (j *IPORefreshJob) Run(ctx context.Context) int {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	to := j.Now().AddDate(0, 3, 0).Format(models.CalendarDateLayout)
	logger := logrus.WithFields(logrus.Fields{
		"component": "IPORefreshJob",
		"from":      j.From,
		"to":        to,
	})
	logger.Info("Running daily IPO data refresh")

	listings, err := j.Calendar.GetIPOCalendar(ctx, j.From, to)
	j.Metrics.RecordRefreshRun(len(listings), err)
	if err != nil {
		logger.WithField("error", err.Error()).Error("IPO refresh failed")
		return 0
	}

	logger.WithFields(logrus.Fields{
		"count":    len(listings),
		"duration": time.Since(startTime).String(),
	}).Infof("Fetched %d upcoming IPOs", len(listings))
	return len(listings)
}

// NextRun returns the first hour:minute strictly after now, in now's location
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

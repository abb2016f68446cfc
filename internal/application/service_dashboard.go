package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dashboard gathers the landing-page figures concurrently.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (DashboardResponse, error) {
	var resp DashboardResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.MitraCounts(gctx)
		resp.Mitra = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.KegiatanCounts(gctx, now)
		resp.Kegiatan = counts
		return err
	})
	g.Go(func() error {
		total, err := s.CurrentMonthTotalHonor(gctx, now)
		resp.TotalHonorCurrentMonth = total.TotalHonor
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardResponse{}, err
	}
	return resp, nil
}

// Now exposes the service clock to transports.
func (s *Service) Now() time.Time {
	return s.nowFn()
}

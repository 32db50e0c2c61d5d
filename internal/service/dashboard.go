package service

import (
	"context"

	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/policy"
	"github.com/inkwell/inkwell/internal/repository"
)

const dashboardRecentLimit = 5

// DashboardService summarizes an author's activity.
type DashboardService struct {
	stats StatsStore
	posts PostStore
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(stats StatsStore, posts PostStore) *DashboardService {
	return &DashboardService{stats: stats, posts: posts}
}

// Get returns the caller's dashboard.
func (s *DashboardService) Get(ctx context.Context, caller model.Caller) (*model.Dashboard, error) {
	if !caller.IsAuthenticated() {
		return nil, policy.ErrUnauthenticated
	}

	totalPosts, totalComments, err := s.stats.AuthorStats(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	recentPosts, err := s.posts.ListPosts(ctx, repository.PostFilter{
		AuthorID: caller.UserID,
		Limit:    dashboardRecentLimit,
	})
	if err != nil {
		return nil, err
	}

	recentComments, err := s.stats.RecentCommentsForAuthor(ctx, caller.UserID, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		TotalPosts:     totalPosts,
		TotalComments:  totalComments,
		RecentPosts:    recentPosts,
		RecentComments: recentComments,
	}, nil
}

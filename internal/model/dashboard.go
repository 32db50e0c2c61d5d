package model

// Dashboard summarizes an author's activity.
type Dashboard struct {
	TotalPosts     int64      `json:"totalPosts"`
	TotalComments  int64      `json:"totalComments"`
	RecentPosts    []*Post    `json:"recentPosts"`
	RecentComments []*Comment `json:"recentComments"`
}

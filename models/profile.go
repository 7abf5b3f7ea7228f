package models

// ProfileStats — производная статистика канала/профиля. Всегда неотрицательные
// числа; нулевые значения для пустого профиля, а не ошибка.
type ProfileStats struct {
	TotalFollowers int `json:"total_followers"`
	TotalVideos    int `json:"total_videos"`
	TotalLikes     int `json:"total_likes"`
	TotalViews     int `json:"total_views"`
}

// FollowerEntry — элемент списка подписчиков канала с обратной связью:
// подписан ли сам канал на этого подписчика и сколько подписчиков у него.
type FollowerEntry struct {
	User           User `json:"user"`
	FollowersCount int  `json:"followers_count"`
	FollowedBack   bool `json:"followed_back"`
}

// FollowingEntry — элемент списка каналов, на которые подписан пользователь.
type FollowingEntry struct {
	User        User   `json:"user"`
	LatestVideo *Video `json:"latest_video,omitempty"`
}

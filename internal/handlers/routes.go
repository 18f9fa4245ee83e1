package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the REST API on r (normally the /api/v1 group).
// requireAuth guards every non-public route; authLimit throttles the
// credential endpoints.
func (h *Handlers) RegisterRoutes(r gin.IRouter, requireAuth, authLimit gin.HandlerFunc) {
	users := r.Group("/users")
	{
		// Public account lifecycle
		users.POST("/register", authLimit, h.Register)
		users.POST("/resend-otp", authLimit, h.ResendOTP)
		users.POST("/verify-otp", authLimit, h.VerifyOTP)
		users.POST("/login", authLimit, h.Login)
		users.POST("/login/2fa", authLimit, h.LoginTwoFactor)
		users.POST("/refresh-token", h.RefreshToken)
		users.POST("/forgot-password", authLimit, h.ForgotPassword)
		users.POST("/reset-password", authLimit, h.ResetPassword)
		users.GET("/google/login", h.GoogleLogin)
		users.GET("/google/callback", h.GoogleCallback)

		authed := users.Group("", requireAuth)
		authed.POST("/set-password", h.SetPassword)
		authed.GET("/default-usernames", h.DefaultUsernames)
		authed.POST("/set-username", h.SetUsername)
		authed.POST("/profile-image", h.UploadProfileImage)
		authed.POST("/banner-image", h.UploadBannerImage)
		authed.PUT("/profile", h.UpdateProfile)
		authed.POST("/logout", h.Logout)
		authed.GET("/me", h.Me)
		authed.GET("/search", h.SearchUsers)
		authed.GET("/2fa/status", h.TwoFactorStatus)
		authed.POST("/2fa/enable", h.EnableTwoFactor)
		authed.POST("/2fa/verify", h.VerifyTwoFactor)
		authed.POST("/2fa/disable", h.DisableTwoFactor)
		authed.GET("/:userId", h.GetUser)
	}

	tweets := r.Group("/tweets", requireAuth)
	{
		tweets.POST("", h.CreateTweet)
		tweets.GET("/timeline", h.GetTimeline)
		tweets.GET("/search", h.SearchTweets)
		tweets.GET("/user/:userId", h.GetUserTweets)
		tweets.GET("/:tweetId", h.GetTweet)
		tweets.PUT("/:tweetId", h.UpdateTweet)
		tweets.DELETE("/:tweetId", h.DeleteTweet)
		tweets.GET("/:tweetId/replies", h.GetReplies)
		tweets.POST("/:tweetId/pin", h.TogglePin)
	}

	likes := r.Group("/likes", requireAuth)
	{
		likes.POST("/:tweetId", h.LikeTweet)
		likes.DELETE("/:tweetId", h.UnlikeTweet)
		likes.GET("/:tweetId", h.GetLikers)
	}

	bookmarks := r.Group("/bookmarks", requireAuth)
	{
		bookmarks.GET("", h.GetBookmarks)
		bookmarks.POST("/:tweetId", h.BookmarkTweet)
		bookmarks.DELETE("/:tweetId", h.UnbookmarkTweet)
	}

	retweets := r.Group("/retweets", requireAuth)
	{
		retweets.GET("/me", h.GetMyRetweets)
		retweets.GET("/tweet/:tweetId", h.GetRetweeters)
		retweets.GET("/user/:userId", h.GetUserRetweets)
		retweets.POST("/:tweetId", h.Retweet)
		retweets.DELETE("/:tweetId", h.Unretweet)
		retweets.GET("/:tweetId/status", h.RetweetStatus)
	}

	follows := r.Group("/follows", requireAuth)
	{
		follows.POST("/:userId", h.FollowUser)
		follows.DELETE("/:userId", h.UnfollowUser)
		follows.GET("/:userId/followers", h.GetFollowers)
		follows.GET("/:userId/following", h.GetFollowing)
	}

	notifications := r.Group("/notifications", requireAuth)
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadNotificationCount)
		notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
	}

	messages := r.Group("/messages", requireAuth)
	{
		messages.POST("", h.SendMessage)
		messages.GET("/conversations", h.GetConversations)
		messages.GET("/conversations/:userId", h.GetConversation)
		messages.GET("/unread-count", h.GetUnreadMessageCount)
		messages.GET("/search", h.SearchMessages)
		messages.PATCH("/:id/read", h.MarkMessageRead)
		messages.DELETE("/:id", h.DeleteMessage)
	}

	communities := r.Group("/communities", requireAuth)
	{
		communities.POST("", h.CreateCommunity)
		communities.GET("", h.ListCommunities)
		communities.GET("/mine", h.GetMyCommunities)
		communities.GET("/feed", h.GetCommunityFeed)
		communities.GET("/memberships", h.GetMyMemberships)
		communities.GET("/:communityId", h.GetCommunity)
		communities.PUT("/:communityId", h.UpdateCommunity)
		communities.DELETE("/:communityId", h.DeleteCommunity)
		communities.GET("/:communityId/posts", h.GetCommunityPosts)
		communities.POST("/:communityId/join", h.JoinCommunity)
		communities.POST("/:communityId/leave", h.LeaveCommunity)
		communities.GET("/:communityId/members", h.GetCommunityMembers)
		communities.PUT("/:communityId/members/:memberId/role", h.UpdateMemberRole)
		communities.DELETE("/:communityId/members/:memberId", h.RemoveMember)
		communities.GET("/:communityId/membership", h.GetMembershipStatus)
	}

	ai := r.Group("/assistant", requireAuth)
	{
		ai.POST("/threads", h.CreateAssistantThread)
		ai.GET("/threads", h.ListAssistantThreads)
		ai.DELETE("/threads/:threadId", h.DeleteAssistantThread)
		ai.POST("/threads/:threadId/messages", h.SendAssistantMessage)
		ai.POST("/threads/:threadId/continue", h.ContinueAssistantThread)
		ai.GET("/threads/:threadId/messages", h.GetAssistantMessages)
		ai.DELETE("/threads/:threadId/messages", h.ClearAssistantMessages)
		ai.GET("/messages/:messageId", h.GetAssistantMessage)
		ai.PUT("/messages/:messageId", h.UpdateAssistantMessage)
		ai.DELETE("/messages/:messageId", h.DeleteAssistantMessage)
		ai.GET("/stats", h.GetAssistantStats)
	}
}

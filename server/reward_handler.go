package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/aquawatch/server/response"
)

func (s *Server) handleGetRewardSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		summary, err := s.RewardService.GetSummary(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "unable to fetch rewards", err)
			return
		}
		response.JSON(c, "Rewards retrieved successfully", http.StatusOK, summary, nil)
	}
}

func (s *Server) handleGetAvailableRewards() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		rewards, err := s.RewardService.GetAvailableRewards(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "unable to fetch rewards", err)
			return
		}
		response.JSON(c, "Rewards retrieved successfully", http.StatusOK, rewards, nil)
	}
}

func (s *Server) handleGetTransactions() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		transactions, err := s.RewardService.GetTransactions(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "unable to fetch transactions", err)
			return
		}
		response.JSON(c, "Transactions retrieved successfully", http.StatusOK, transactions, nil)
	}
}

func (s *Server) handleRedeemReward() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		rewardID, ok := parseIDParam(c, "rewardID")
		if !ok {
			return
		}
		profile, err := s.RewardService.RedeemReward(c.Request.Context(), userID, rewardID)
		if err != nil {
			s.respondWithError(c, "unable to redeem reward", err)
			return
		}
		response.JSON(c, "Reward redeemed successfully", http.StatusOK, profile, nil)
	}
}

func (s *Server) handleGetLeaderboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := s.RewardService.GetLeaderboard(c.Request.Context(), queryLimit(c))
		if err != nil {
			s.respondWithError(c, "unable to fetch leaderboard", err)
			return
		}
		response.JSON(c, "Leaderboard retrieved successfully", http.StatusOK, entries, nil)
	}
}

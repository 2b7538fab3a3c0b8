package httpapi

import (
	"context"
	"net/http"

	"campus_notifier/internal/domain/content"

	"github.com/gin-gonic/gin"
)

type proposalChange struct {
	Before *content.Proposal `json:"before"`
	After  *content.Proposal `json:"after"`
}

func (s *Server) handleArticleCreated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var article content.Article
		if !bindSnapshot(c, &article, func() string { return article.ID }) {
			return
		}
		s.dispatch(c, func(ctx context.Context) { s.triggers.OnArticleCreated(ctx, &article) })
	}
}

func (s *Server) handlePollCreated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var poll content.Poll
		if !bindSnapshot(c, &poll, func() string { return poll.ID }) {
			return
		}
		now := s.now()
		s.dispatch(c, func(ctx context.Context) { s.triggers.OnPollCreated(ctx, &poll, now) })
	}
}

func (s *Server) handleEventCreated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var event content.Event
		if !bindSnapshot(c, &event, func() string { return event.ID }) {
			return
		}
		now := s.now()
		s.dispatch(c, func(ctx context.Context) { s.triggers.OnEventCreated(ctx, &event, now) })
	}
}

func (s *Server) handleProposalUpdated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var change proposalChange
		if err := c.ShouldBindJSON(&change); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal change"})
			return
		}
		// A deleted proposal has no after snapshot; nothing to announce.
		if change.After == nil || change.After.ID == "" {
			c.JSON(http.StatusAccepted, gin.H{"status": "ignored"})
			return
		}
		s.dispatch(c, func(ctx context.Context) { s.triggers.OnProposalUpdated(ctx, change.Before, change.After) })
	}
}

func (s *Server) handleReplyCreated() gin.HandlerFunc {
	return func(c *gin.Context) {
		var reply content.Reply
		if !bindSnapshot(c, &reply, func() string { return reply.ID }) {
			return
		}
		proposalID := c.Param("id")
		reply.ProposalID = proposalID
		s.dispatch(c, func(ctx context.Context) { s.triggers.OnReplyCreated(ctx, proposalID, &reply) })
	}
}

// bindSnapshot decodes a created document and requires its id.
func bindSnapshot(c *gin.Context, v any, id func() string) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document snapshot"})
		return false
	}
	if id() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document id is required"})
		return false
	}
	return true
}

// dispatch acknowledges the trigger and runs fn in the background. The
// fan-out outlives the request but not the server.
func (s *Server) dispatch(c *gin.Context, fn func(ctx context.Context)) {
	base := context.WithoutCancel(c.Request.Context())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		fn(ctx)
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

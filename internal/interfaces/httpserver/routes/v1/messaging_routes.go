package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver/handlers"
	messagingreq "github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver/requests/messaging"
	"github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver/responses"
	messagingres "github.com/iuridev/sge-messaging-api/internal/interfaces/httpserver/responses/messaging"
	"github.com/iuridev/sge-messaging-api/internal/utils/platformerrors"
)

// RegisterMessagingRoutes registers the messaging routes.
func RegisterMessagingRoutes(router gin.IRoutes, handler *handlers.MessagingHandler) {
	router.POST("/messaging/clients", attachClient(handler))
	router.DELETE("/messaging/clients", detachClient(handler))
	router.POST("/messaging/clients/resync", resyncClient(handler))

	router.GET("/messaging/contacts", listContacts(handler))

	router.POST("/messaging/conversations/open", openConversation(handler))
	router.POST("/messaging/conversations/close", closeConversation(handler))
	router.POST("/messaging/messages", sendMessage(handler))
	router.GET("/messaging/transcript", getTranscript(handler))
	router.GET("/messaging/unread", getUnread(handler))
}

// attachClient godoc
// @Summary      Attach a messaging client
// @Description  Starts the per-user messaging core: bootstraps unread tallies and subscribes to the change feed.
// @Tags         Messaging API
// @Produce      json
// @Success      201 {object} messagingres.AttachResponse
// @Failure      401 {object} responses.ErrorResponse
// @Failure      409 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/clients [post]
func attachClient(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		if err := handler.Attach(c.Request.Context(), userID); err != nil {
			responses.HandleError(c, err, "failed to attach messaging client")
			return
		}

		c.JSON(http.StatusCreated, messagingres.AttachResponse{UserID: userID, Status: "attached"})
	}
}

// detachClient godoc
// @Summary      Detach a messaging client
// @Description  Stops the per-user messaging core and releases its feed subscription.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.AttachResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/clients [delete]
func detachClient(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		if err := handler.Detach(userID); err != nil {
			responses.HandleError(c, err, "failed to detach messaging client")
			return
		}

		c.JSON(http.StatusOK, messagingres.AttachResponse{UserID: userID, Status: "detached"})
	}
}

// resyncClient godoc
// @Summary      Resync unread state
// @Description  Re-bootstraps the unread snapshot from the store after a feed reconnect.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.AttachResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/clients/resync [post]
func resyncClient(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		if err := handler.Resync(c.Request.Context(), userID); err != nil {
			responses.HandleError(c, err, "failed to resync messaging client")
			return
		}

		c.JSON(http.StatusOK, messagingres.AttachResponse{UserID: userID, Status: "resynced"})
	}
}

// listContacts godoc
// @Summary      List contacts
// @Description  Returns the ordered contact list: unread first (by count), then open conversations, then the rest.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.ContactListResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/contacts [get]
func listContacts(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		contacts, err := handler.Contacts(c.Request.Context(), userID)
		if err != nil {
			responses.HandleError(c, err, "failed to list contacts")
			return
		}

		c.JSON(http.StatusOK, messagingres.NewContactListResponse(userID, contacts))
	}
}

// openConversation godoc
// @Summary      Open a conversation
// @Description  Selects a contact, loading the transcript of the open conversation or entering a draft when none exists.
// @Tags         Messaging API
// @Accept       json
// @Produce      json
// @Param        request body messagingreq.OpenConversationRequest true "Contact to open"
// @Success      200 {object} messagingres.SessionResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/conversations/open [post]
func openConversation(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		var req messagingreq.OpenConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "contact_id is required")
			return
		}

		client, err := handler.OpenConversation(c.Request.Context(), userID, req.ContactID)
		if err != nil {
			responses.HandleError(c, err, "failed to open conversation")
			return
		}

		state, conv, protocol, transcript := client.Session().Snapshot()
		c.JSON(http.StatusOK, messagingres.NewSessionResponse(userID, state, conv, protocol, transcript))
	}
}

// closeConversation godoc
// @Summary      Close the current conversation
// @Description  Returns the session to idle. The conversation row stays open in the store.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.AttachResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/conversations/close [post]
func closeConversation(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		if err := handler.CloseConversation(userID); err != nil {
			responses.HandleError(c, err, "failed to close conversation")
			return
		}

		c.JSON(http.StatusOK, messagingres.AttachResponse{UserID: userID, Status: "closed"})
	}
}

// getTranscript godoc
// @Summary      Get the current transcript
// @Description  Returns the session state, the selected conversation and its transcript.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.SessionResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/transcript [get]
func getTranscript(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		client, err := handler.Session(userID)
		if err != nil {
			responses.HandleError(c, err, "failed to get session")
			return
		}

		state, conv, protocol, transcript := client.Session().Snapshot()
		c.JSON(http.StatusOK, messagingres.NewSessionResponse(userID, state, conv, protocol, transcript))
	}
}

// sendMessage godoc
// @Summary      Send a message
// @Description  Inserts a message on the current conversation. A draft send creates the conversation row first.
// @Tags         Messaging API
// @Accept       json
// @Produce      json
// @Param        request body messagingreq.SendMessageRequest true "Message body"
// @Success      201 {object} messagingres.MessageResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/messages [post]
func sendMessage(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		var req messagingreq.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "content is required")
			return
		}

		msg, err := handler.Send(c.Request.Context(), userID, req.Content)
		if err != nil {
			responses.HandleError(c, err, "failed to send message")
			return
		}

		c.JSON(http.StatusCreated, messagingres.NewMessageResponse(msg))
	}
}

// getUnread godoc
// @Summary      Get unread tallies
// @Description  Returns the per-conversation unread counts and their total.
// @Tags         Messaging API
// @Produce      json
// @Success      200 {object} messagingres.UnreadResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /messaging/unread [get]
func getUnread(handler *handlers.MessagingHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		tallies, err := handler.Unread(userID)
		if err != nil {
			responses.HandleError(c, err, "failed to get unread tallies")
			return
		}

		c.JSON(http.StatusOK, messagingres.NewUnreadResponse(tallies))
	}
}

func requireUserID(c *gin.Context) (string, bool) {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok && id != "" {
			return id, true
		}
	}
	responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity is required")
	return "", false
}

package api

import "net/http"

func botMessageHandler(bot ChatResponder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BotMessageRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		reply, err := bot.Reply(r.Context(), req.Message)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, BotReplyResponse{Intent: string(reply.Intent), Reply: reply.Text})
	}
}
